package ws

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Conn 单条实时连接
//
// ReadMessage 只由一个 goroutine 调用；WriteMessage 和 Close 可并发调用。
type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

// Dialer 建立实时连接
type Dialer interface {
	Dial(ctx context.Context, url string, headers http.Header) (Conn, error)
}

// GorillaDialer 基于 gorilla/websocket 的 Dialer，自带 ping/pong 心跳
type GorillaDialer struct {
	HandshakeTimeout time.Duration
	ProxyURL         string
	PingInterval     time.Duration
	PongWait         time.Duration
	WriteTimeout     time.Duration
}

// Dial 建立连接并启动心跳
func (d *GorillaDialer) Dial(ctx context.Context, rawURL string, headers http.Header) (Conn, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: d.HandshakeTimeout,
		Proxy:            http.ProxyFromEnvironment,
	}
	if d.ProxyURL != "" {
		proxyURL, err := url.Parse(d.ProxyURL)
		if err != nil {
			return nil, errors.Wrap(err, "invalid proxy url")
		}
		dialer.Proxy = http.ProxyURL(proxyURL)
	}

	ws, resp, err := dialer.DialContext(ctx, rawURL, headers)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "dial %s: http %d", rawURL, resp.StatusCode)
		}
		return nil, errors.Wrapf(err, "dial %s", rawURL)
	}

	c := &gorillaConn{
		ws:           ws,
		pingInterval: d.PingInterval,
		pongWait:     d.PongWait,
		writeTimeout: d.WriteTimeout,
		done:         make(chan struct{}),
	}
	c.startHeartbeat()
	return c, nil
}

type gorillaConn struct {
	ws           *websocket.Conn
	pingInterval time.Duration
	pongWait     time.Duration
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func (c *gorillaConn) startHeartbeat() {
	if c.pingInterval <= 0 || c.pongWait <= 0 {
		return
	}
	// 超过 pongWait 没收到任何数据视为连接失效，ReadMessage 返回超时错误
	_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				deadline := time.Now().Add(c.writeTimeout)
				if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					_ = c.Close()
					return
				}
			}
		}
	}()
}

func (c *gorillaConn) ReadMessage() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	if c.pongWait > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	}
	return data, nil
}

func (c *gorillaConn) WriteMessage(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.writeTimeout > 0 {
		_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *gorillaConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	return err
}
