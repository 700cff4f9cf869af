package client

import (
	"context"
	"crypto/ecdsa"
	"strings"
	"time"

	"github.com/betbot/goaevo/aevo/signing"
	"github.com/betbot/goaevo/aevo/types"
	"github.com/betbot/goaevo/aevo/ws"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config 客户端配置
type Config struct {
	Environment types.Environment
	Credentials types.Credentials

	// RestHeaders 每个 REST 请求附加的头，不能覆盖鉴权头
	RestHeaders map[string]string
	// WSHeaders websocket 握手附加的头
	WSHeaders map[string]string

	// RestURL / WSURL 覆盖环境默认地址（测试或私有网关）
	RestURL string
	WSURL   string

	HTTPTimeout time.Duration
	ProxyURL    string

	// Realtime 重连与心跳参数，URL / 鉴权 / 头由客户端填充
	Realtime ws.Config

	// Recorder 订单提交流水（可选）
	Recorder OrderRecorder

	Logger *logrus.Entry
}

// OrderRecorder 记录每次订单提交的结果
type OrderRecorder interface {
	RecordOrder(ctx context.Context, env types.Environment, order *types.SignedOrder, resp *types.OrderResponse, submitErr error) error
}

// Client Aevo 客户端
//
// 持有凭证，负责 REST 调用、订单构建签名以及创建实时连接。
type Client struct {
	env         types.Environment
	envConfig   EnvironmentConfig
	creds       types.Credentials
	restHeaders map[string]string
	wsHeaders   map[string]string
	realtime    ws.Config
	proxyURL    string

	http     *httpClient
	builder  *OrderBuilder
	recorder OrderRecorder
	logger   *logrus.Entry
}

// NewClient 创建客户端；环境非法时返回 *types.ConfigurationError
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Environment.Validate(); err != nil {
		return nil, err
	}
	envConfig, err := GetEnvironmentConfig(cfg.Environment)
	if err != nil {
		return nil, err
	}
	if cfg.RestURL != "" {
		envConfig.RestURL = strings.TrimSuffix(cfg.RestURL, "/")
	}
	if cfg.WSURL != "" {
		envConfig.WSURL = cfg.WSURL
	}
	if addr := cfg.Credentials.WalletAddress; addr != "" && !common.IsHexAddress(addr) {
		return nil, &types.ConfigurationError{Field: "wallet_address", Err: errors.Errorf("invalid address %q", addr)}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.WithField("component", "aevo-client")
	}
	logger = logger.WithField("env", cfg.Environment)

	return &Client{
		env:         cfg.Environment,
		envConfig:   envConfig,
		creds:       cfg.Credentials,
		restHeaders: signing.BuildRestHeaders(cfg.Credentials, cfg.RestHeaders),
		wsHeaders:   copyHeaders(cfg.WSHeaders),
		realtime:    cfg.Realtime,
		proxyURL:    cfg.ProxyURL,
		http:        newHTTPClient(envConfig.RestURL, cfg.HTTPTimeout, cfg.ProxyURL, logger),
		builder:     NewOrderBuilder(),
		recorder:    cfg.Recorder,
		logger:      logger,
	}, nil
}

// Environment 当前环境
func (c *Client) Environment() types.Environment {
	return c.env
}

// RestURL REST 基础地址
func (c *Client) RestURL() string {
	return c.envConfig.RestURL
}

// WSURL websocket 地址
func (c *Client) WSURL() string {
	return c.envConfig.WSURL
}

// SigningDomain 当前环境的签名域
func (c *Client) SigningDomain() types.SigningDomain {
	return c.envConfig.Domain
}

// MakerAddress 下单使用的 maker 地址：优先钱包地址，否则取签名私钥对应地址
func (c *Client) MakerAddress() (string, error) {
	if c.creds.WalletAddress != "" {
		return common.HexToAddress(c.creds.WalletAddress).Hex(), nil
	}
	key, err := c.signingKey()
	if err != nil {
		return "", err
	}
	return signing.GetAddressFromPrivateKey(key).Hex(), nil
}

// signingKey 按需解析签名私钥
func (c *Client) signingKey() (*ecdsa.PrivateKey, error) {
	return signing.PrivateKeyFromHex(c.creds.SigningKey)
}

func copyHeaders(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
