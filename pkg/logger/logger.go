package logger

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger 全局日志实例
	Logger *logrus.Logger
	// currentLogFile 当前日志文件路径
	currentLogFile string
	// logMu 初始化锁
	logMu sync.Mutex
	// secrets 需要在日志中脱敏的字符串
	secrets   = newSecretSet()
	redaction = &redactHook{secrets: secrets}
)

// Config 日志配置
type Config struct {
	Level      string `yaml:"level"`       // 日志级别: debug, info, warn, error
	OutputFile string `yaml:"output_file"` // 日志文件路径（可选，为空则只输出到控制台）
	MaxSize    int    `yaml:"max_size"`    // 日志文件最大大小（MB）
	MaxBackups int    `yaml:"max_backups"` // 保留的旧日志文件数量
	MaxAge     int    `yaml:"max_age"`     // 保留旧日志文件的天数
	Compress   bool   `yaml:"compress"`    // 是否压缩旧日志文件
	JSON       bool   `yaml:"json"`        // JSON 格式输出
}

// Init 初始化日志系统
func Init(config Config) error {
	return initWith(config, true)
}

// InitFileOnly 只写日志文件（TUI 等占用终端的程序使用）
func InitFileOnly(config Config) error {
	if config.OutputFile == "" {
		return errors.New("output_file is required")
	}
	return initWith(config, false)
}

func initWith(config Config, console bool) error {
	logMu.Lock()
	defer logMu.Unlock()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	var writers []io.Writer
	if console {
		writers = append(writers, os.Stdout)
	}
	if config.OutputFile != "" {
		if err := os.MkdirAll(filepath.Dir(config.OutputFile), 0755); err != nil {
			return err
		}
		// 配置日志轮转
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		})
	}
	currentLogFile = config.OutputFile

	logger := logrus.New()
	configure(logger, io.MultiWriter(writers...), level, config.JSON)

	// 同时设置全局 logrus，组件里 logrus.WithField() 创建的 logger 也写入同一输出
	configure(logrus.StandardLogger(), io.MultiWriter(writers...), level, config.JSON)

	Logger = logger
	return nil
}

func configure(l *logrus.Logger, out io.Writer, level logrus.Level, json bool) {
	l.SetOutput(out)
	l.SetLevel(level)
	if json {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "06-01-02 15:04:05", // 格式: yy-mm-dd HH:MM:ss
		})
	}
	l.ReplaceHooks(make(logrus.LevelHooks))
	l.AddHook(redaction)
}

// InitDefault 使用默认配置初始化日志系统
func InitDefault() error {
	return Init(Config{
		Level:      "info",
		OutputFile: "logs/aevo.log",
		MaxSize:    100, // 100MB
		MaxBackups: 3,
		MaxAge:     7, // 7天
		Compress:   true,
	})
}

// RegisterSecret 登记凭证，之后出现在日志消息或字段中的该字符串会被替换
func RegisterSecret(values ...string) {
	secrets.add(values...)
}

// Debug 记录 DEBUG 级别日志
func Debug(args ...interface{}) {
	if Logger != nil {
		Logger.Debug(args...)
	}
}

// Debugf 记录格式化的 DEBUG 级别日志
func Debugf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Debugf(format, args...)
	}
}

// Info 记录 INFO 级别日志
func Info(args ...interface{}) {
	if Logger != nil {
		Logger.Info(args...)
	}
}

// Infof 记录格式化的 INFO 级别日志
func Infof(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Infof(format, args...)
	}
}

// Warnf 记录格式化的 WARN 级别日志
func Warnf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Warnf(format, args...)
	}
}

// Errorf 记录格式化的 ERROR 级别日志
func Errorf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Errorf(format, args...)
	}
}

// WithField 添加字段到日志上下文
func WithField(key string, value interface{}) *logrus.Entry {
	if Logger != nil {
		return Logger.WithField(key, value)
	}
	return logrus.WithField(key, value)
}

// WithFields 添加多个字段到日志上下文
func WithFields(fields logrus.Fields) *logrus.Entry {
	if Logger != nil {
		return Logger.WithFields(fields)
	}
	return logrus.WithFields(fields)
}

// GetCurrentLogFile 获取当前日志文件路径
func GetCurrentLogFile() string {
	logMu.Lock()
	defer logMu.Unlock()
	return currentLogFile
}

// secretSet 并发安全的脱敏字符串集合
type secretSet struct {
	mu     sync.RWMutex
	values []string
}

func newSecretSet() *secretSet {
	return &secretSet{}
}

func (s *secretSet) add(values ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range values {
		// 太短的值替换会误伤正常文本
		if len(v) < 6 {
			continue
		}
		s.values = append(s.values, v, strings.TrimPrefix(v, "0x"))
	}
}

func (s *secretSet) redact(text string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.values {
		if v != "" && strings.Contains(text, v) {
			text = strings.ReplaceAll(text, v, "<redacted>")
		}
	}
	return text
}

// redactHook 在输出前替换消息和字符串字段中的凭证
type redactHook struct {
	secrets *secretSet
}

func (h *redactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *redactHook) Fire(entry *logrus.Entry) error {
	entry.Message = h.secrets.redact(entry.Message)
	for k, v := range entry.Data {
		switch val := v.(type) {
		case string:
			entry.Data[k] = h.secrets.redact(val)
		case error:
			entry.Data[k] = h.secrets.redact(val.Error())
		}
	}
	return nil
}
