package ws

import (
	"time"

	"github.com/betbot/goaevo/aevo/types"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultReconnectDelay 断线后重连的固定间隔
	DefaultReconnectDelay = 10 * time.Second
	DefaultPingInterval   = 20 * time.Second
	DefaultPongWait       = 60 * time.Second
	DefaultWriteTimeout   = 10 * time.Second
	DefaultHandshake      = 15 * time.Second

	DefaultMessageBufferSize = 256
	DefaultErrorBufferSize   = 64

	// authRequestID 鉴权请求固定使用 id=1
	authRequestID int64 = 1
)

// Auth 实时连接鉴权信息
//
// 只包含 API key/secret，签名私钥不会进入本包。
type Auth struct {
	APIKey        string
	APISecret     string
	WalletAddress string
}

// enabled key 和钱包地址同时存在时才发送鉴权握手
func (a Auth) enabled() bool {
	return a.APIKey != "" && a.WalletAddress != ""
}

// Config 连接管理器配置
type Config struct {
	URL     string
	Headers map[string]string // 握手时附加的 HTTP 头
	Auth    Auth

	// ReconnectDelay 首次重连等待时间；MaxReconnectDelay 大于它时按指数退避增长，否则固定间隔
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration

	PingInterval time.Duration
	PongWait     time.Duration
	WriteTimeout time.Duration
	ProxyURL     string

	MessageBufferSize int
	ErrorBufferSize   int

	// Dialer 为空时使用 gorilla/websocket
	Dialer Dialer
	Logger *logrus.Entry
}

// DefaultConfig 默认配置
func DefaultConfig() Config {
	return Config{
		ReconnectDelay:    DefaultReconnectDelay,
		PingInterval:      DefaultPingInterval,
		PongWait:          DefaultPongWait,
		WriteTimeout:      DefaultWriteTimeout,
		MessageBufferSize: DefaultMessageBufferSize,
		ErrorBufferSize:   DefaultErrorBufferSize,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = d.ReconnectDelay
	}
	if c.MaxReconnectDelay < c.ReconnectDelay {
		c.MaxReconnectDelay = c.ReconnectDelay
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PongWait <= c.PingInterval {
		c.PongWait = c.PingInterval * 3
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.MessageBufferSize <= 0 {
		c.MessageBufferSize = d.MessageBufferSize
	}
	if c.ErrorBufferSize <= 0 {
		c.ErrorBufferSize = d.ErrorBufferSize
	}
	if c.Logger == nil {
		c.Logger = logrus.WithField("component", "aevo-ws")
	}
	if c.Dialer == nil {
		c.Dialer = &GorillaDialer{
			HandshakeTimeout: DefaultHandshake,
			ProxyURL:         c.ProxyURL,
			PingInterval:     c.PingInterval,
			PongWait:         c.PongWait,
			WriteTimeout:     c.WriteTimeout,
		}
	}
	return c
}

func (c Config) validate() error {
	if c.URL == "" {
		return &types.ConfigurationError{Field: "ws_url", Err: errMissing}
	}
	return nil
}
