package client

import (
	"github.com/betbot/goaevo/aevo/ws"
)

// NewConnection 创建实时连接管理器（未连接）
//
// 鉴权只使用 API key/secret，extraHeaders 会与配置中的 WSHeaders 合并。
func (c *Client) NewConnection(extraHeaders map[string]string) (*ws.Manager, error) {
	cfg := c.realtime
	cfg.URL = c.envConfig.WSURL
	cfg.Auth = ws.Auth{
		APIKey:        c.creds.APIKey,
		APISecret:     c.creds.APISecret,
		WalletAddress: c.creds.WalletAddress,
	}
	headers := copyHeaders(c.wsHeaders)
	for k, v := range extraHeaders {
		headers[k] = v
	}
	cfg.Headers = headers
	if cfg.ProxyURL == "" {
		cfg.ProxyURL = c.proxyURL
	}
	if cfg.Logger == nil {
		cfg.Logger = c.logger.WithField("component", "aevo-ws")
	}
	return ws.NewManager(cfg)
}

// OpenConnection 创建并打开实时连接
func (c *Client) OpenConnection(extraHeaders map[string]string) (*ws.Manager, error) {
	m, err := c.NewConnection(extraHeaders)
	if err != nil {
		return nil, err
	}
	if err := m.Open(); err != nil {
		return nil, err
	}
	return m, nil
}
