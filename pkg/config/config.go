package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/betbot/goaevo/aevo/client"
	"github.com/betbot/goaevo/aevo/types"
	"github.com/betbot/goaevo/aevo/ws"
	"github.com/betbot/goaevo/pkg/logger"
	"github.com/betbot/goaevo/pkg/secretstore"
	"gopkg.in/yaml.v3"
)

// 环境变量
const (
	EnvEnvironment   = "AEVO_ENV"
	EnvSigningKey    = "AEVO_SIGNING_KEY"
	EnvWalletAddress = "AEVO_WALLET_ADDRESS"
	EnvAPIKey        = "AEVO_API_KEY"
	EnvAPISecret     = "AEVO_API_SECRET"
	EnvProxyURL      = "AEVO_PROXY_URL"
	EnvLogLevel      = "AEVO_LOG_LEVEL"
	EnvMnemonic      = "AEVO_MNEMONIC"
	EnvSecretDB      = "AEVO_SECRET_DB"
	EnvSecretKey     = "AEVO_SECRET_KEY"
	EnvHTTPTimeout   = "AEVO_HTTP_TIMEOUT_SECONDS"
	EnvJournalPath   = "AEVO_JOURNAL_PATH"
)

// CredentialsConfig 凭证配置（建议通过环境变量或 secret store 提供，不要写进配置文件）
type CredentialsConfig struct {
	APIKey        string `yaml:"api_key"`
	APISecret     string `yaml:"api_secret"`
	WalletAddress string `yaml:"wallet_address"`
	SigningKey    string `yaml:"signing_key"`
}

// MnemonicConfig 从助记词派生签名私钥
type MnemonicConfig struct {
	Phrase         string `yaml:"phrase"`
	DerivationPath string `yaml:"derivation_path"` // 默认 m/44'/60'/0'/0/0
}

// SecretStoreConfig Badger 凭证库
type SecretStoreConfig struct {
	Path          string `yaml:"path"`
	EncryptionKey string `yaml:"encryption_key"` // 32 字节 hex/base64
	Prefix        string `yaml:"prefix"`
}

// RealtimeConfig 实时连接参数
type RealtimeConfig struct {
	ReconnectDelay    time.Duration     `yaml:"reconnect_delay"`
	MaxReconnectDelay time.Duration     `yaml:"max_reconnect_delay"`
	PingInterval      time.Duration     `yaml:"ping_interval"`
	Headers           map[string]string `yaml:"headers"`
	Channels          []string          `yaml:"channels"`
}

// Config 应用配置
type Config struct {
	Environment string            `yaml:"environment"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Mnemonic    MnemonicConfig    `yaml:"mnemonic"`
	SecretStore SecretStoreConfig `yaml:"secret_store"`

	RestURL     string            `yaml:"rest_url"`
	WSURL       string            `yaml:"ws_url"`
	RestHeaders map[string]string `yaml:"rest_headers"`
	HTTPTimeout time.Duration     `yaml:"http_timeout"`
	ProxyURL    string            `yaml:"proxy_url"`

	Realtime    RealtimeConfig `yaml:"realtime"`
	Log         logger.Config  `yaml:"log"`
	MetricsAddr string         `yaml:"metrics_addr"`

	// JournalPath 订单流水 SQLite 路径，为空则不记录
	JournalPath string `yaml:"journal_path"`
}

// Default 默认配置
func Default() *Config {
	return &Config{
		Environment: string(types.EnvTestnet),
		HTTPTimeout: 30 * time.Second,
		Realtime: RealtimeConfig{
			ReconnectDelay: ws.DefaultReconnectDelay,
			PingInterval:   ws.DefaultPingInterval,
		},
		Log: logger.Config{
			Level:      "info",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
		},
		SecretStore: SecretStoreConfig{Prefix: secretstore.DefaultPrefix},
	}
}

// Load 读取 YAML 配置文件（path 为空时只用默认值），再用环境变量覆盖
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv 环境变量优先于配置文件
func (c *Config) applyEnv() error {
	setIfPresent := func(dst *string, key string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setIfPresent(&c.Environment, EnvEnvironment)
	setIfPresent(&c.Credentials.SigningKey, EnvSigningKey)
	setIfPresent(&c.Credentials.WalletAddress, EnvWalletAddress)
	setIfPresent(&c.Credentials.APIKey, EnvAPIKey)
	setIfPresent(&c.Credentials.APISecret, EnvAPISecret)
	setIfPresent(&c.ProxyURL, EnvProxyURL)
	setIfPresent(&c.Log.Level, EnvLogLevel)
	setIfPresent(&c.Mnemonic.Phrase, EnvMnemonic)
	setIfPresent(&c.SecretStore.Path, EnvSecretDB)
	setIfPresent(&c.SecretStore.EncryptionKey, EnvSecretKey)
	setIfPresent(&c.JournalPath, EnvJournalPath)

	if v := strings.TrimSpace(os.Getenv(EnvHTTPTimeout)); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return &types.ConfigurationError{Field: EnvHTTPTimeout, Err: fmt.Errorf("must be a positive integer, got %q", v)}
		}
		c.HTTPTimeout = time.Duration(secs) * time.Second
	}
	return nil
}

// Validate 校验配置
func (c *Config) Validate() error {
	env, err := types.ParseEnvironment(c.Environment)
	if err != nil {
		return err
	}
	c.Environment = string(env)
	if c.Realtime.MaxReconnectDelay > 0 && c.Realtime.MaxReconnectDelay < c.Realtime.ReconnectDelay {
		return &types.ConfigurationError{
			Field: "realtime.max_reconnect_delay",
			Err:   fmt.Errorf("must be >= reconnect_delay (%v)", c.Realtime.ReconnectDelay),
		}
	}
	return nil
}

// ResolveCredentials 合并凭证来源：配置/环境变量 > secret store > 助记词派生
func (c *Config) ResolveCredentials() (types.Credentials, error) {
	creds := types.Credentials{
		APIKey:        c.Credentials.APIKey,
		APISecret:     c.Credentials.APISecret,
		WalletAddress: c.Credentials.WalletAddress,
		SigningKey:    c.Credentials.SigningKey,
	}

	if c.SecretStore.Path != "" {
		stored, err := c.loadFromStore()
		if err != nil {
			return types.Credentials{}, err
		}
		fillEmpty(&creds.APIKey, stored.APIKey)
		fillEmpty(&creds.APISecret, stored.APISecret)
		fillEmpty(&creds.WalletAddress, stored.WalletAddress)
		fillEmpty(&creds.SigningKey, stored.SigningKey)
	}

	if creds.SigningKey == "" && c.Mnemonic.Phrase != "" {
		w, err := DeriveFromMnemonic(c.Mnemonic.Phrase, c.Mnemonic.DerivationPath)
		if err != nil {
			return types.Credentials{}, &types.ConfigurationError{Field: "mnemonic", Err: err}
		}
		creds.SigningKey = w.PrivateKeyHex
	}

	logger.RegisterSecret(creds.APISecret, creds.SigningKey, c.Mnemonic.Phrase)
	return creds, nil
}

func (c *Config) loadFromStore() (secretstore.Credentials, error) {
	key, err := secretstore.ParseKey(c.SecretStore.EncryptionKey)
	if err != nil {
		return secretstore.Credentials{}, &types.ConfigurationError{Field: "secret_store.encryption_key", Err: err}
	}
	store, err := secretstore.Open(secretstore.OpenOptions{
		Path:          c.SecretStore.Path,
		EncryptionKey: key,
		ReadOnly:      true,
	})
	if err != nil {
		return secretstore.Credentials{}, &types.ConfigurationError{Field: "secret_store.path", Err: err}
	}
	defer store.Close()

	prefix := c.SecretStore.Prefix
	if prefix == "" {
		prefix = secretstore.DefaultPrefix
	}
	return store.LoadCredentials(prefix)
}

// ToClientConfig 转换为客户端配置
func (c *Config) ToClientConfig() (client.Config, error) {
	if err := c.Validate(); err != nil {
		return client.Config{}, err
	}
	creds, err := c.ResolveCredentials()
	if err != nil {
		return client.Config{}, err
	}

	realtime := ws.DefaultConfig()
	if c.Realtime.ReconnectDelay > 0 {
		realtime.ReconnectDelay = c.Realtime.ReconnectDelay
	}
	realtime.MaxReconnectDelay = c.Realtime.MaxReconnectDelay
	if c.Realtime.PingInterval > 0 {
		realtime.PingInterval = c.Realtime.PingInterval
		realtime.PongWait = 0
	}

	return client.Config{
		Environment: types.Environment(c.Environment),
		Credentials: creds,
		RestHeaders: c.RestHeaders,
		WSHeaders:   c.Realtime.Headers,
		RestURL:     c.RestURL,
		WSURL:       c.WSURL,
		HTTPTimeout: c.HTTPTimeout,
		ProxyURL:    c.ProxyURL,
		Realtime:    realtime,
		Logger:      logger.WithField("component", "aevo-client"),
	}, nil
}

func fillEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
