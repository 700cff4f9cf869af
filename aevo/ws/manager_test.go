package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/betbot/goaevo/aevo/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errFakeClosed = errors.New("fake conn closed")

// fakeConn 内存连接：inbound 模拟服务端推送，written 记录客户端发送
type fakeConn struct {
	inbound   chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	written  [][]byte
	writeErr error
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case <-c.closed:
		return nil, errFakeClosed
	case data := <-c.inbound:
		return data, nil
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	select {
	case <-c.closed:
		return errFakeClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.written = append(c.written, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) messages() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, 0, len(c.written))
	for _, w := range c.written {
		var m map[string]any
		_ = json.Unmarshal(w, &m)
		out = append(out, m)
	}
	return out
}

func (c *fakeConn) rawWritten() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.written))
	for _, w := range c.written {
		out = append(out, string(w))
	}
	return out
}

// fakeDialer 前 failures 次拨号失败，之后返回新的 fakeConn
type fakeDialer struct {
	mu       sync.Mutex
	failures int
	dials    int
	dialTime []time.Time
	conns    []*fakeConn
	headers  http.Header
}

func (d *fakeDialer) Dial(ctx context.Context, url string, headers http.Header) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	d.dialTime = append(d.dialTime, time.Now())
	d.headers = headers
	if d.dials <= d.failures {
		return nil, errors.New("connection refused")
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *fakeDialer) lastConn() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

const testDelay = 50 * time.Millisecond

func newTestManager(t *testing.T, d *fakeDialer, auth Auth) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		URL:            "wss://ws-testnet.aevo.xyz",
		Headers:        map[string]string{"X-Test": "1"},
		Auth:           auth,
		ReconnectDelay: testDelay,
		Dialer:         d,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func waitReady(t *testing.T, m *Manager, timeout time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	require.NoError(t, m.WaitReady(ctx), "未在 %v 内进入 Ready", timeout)
}

func TestNewManager_RequiresURL(t *testing.T) {
	_, err := NewManager(Config{})
	var cfgErr *types.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestManager_ReconnectAndReplaySubscriptions(t *testing.T) {
	d := &fakeDialer{failures: 2}
	m := newTestManager(t, d, Auth{})

	// 连接前请求的订阅，包含重复项
	require.NoError(t, m.Subscribe("ticker:ETH:PERPETUAL", "orderbook:ETH-PERP"))
	require.NoError(t, m.Subscribe("ticker:ETH:PERPETUAL", "trades:BTC-PERP"))

	start := time.Now()
	require.NoError(t, m.Open())
	waitReady(t, m, 3*testDelay+time.Second)

	assert.Equal(t, 3, d.dialCount())
	assert.Equal(t, types.StateReady, m.State())
	assert.Less(t, time.Since(start), 3*testDelay+time.Second)

	conn := d.lastConn()
	require.NotNil(t, conn)
	require.Eventually(t, func() bool { return len(conn.messages()) == 1 }, time.Second, 5*time.Millisecond)

	msgs := conn.messages()
	assert.Equal(t, "subscribe", msgs[0]["op"])
	assert.Equal(t, []any{"ticker:ETH:PERPETUAL", "orderbook:ETH-PERP", "trades:BTC-PERP"}, msgs[0]["data"])
	assert.Equal(t, "1", d.headers.Get("X-Test"))

	// 前两次失败应上报 TransportError
	var terr *types.TransportError
	select {
	case err := <-m.Errors():
		assert.ErrorAs(t, err, &terr)
		assert.Equal(t, "dial", terr.Op)
	case <-time.After(time.Second):
		t.Fatal("未收到拨号错误")
	}
}

func TestManager_ReplayAfterDrop(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d, Auth{})
	require.NoError(t, m.Open())
	waitReady(t, m, time.Second)

	first := d.lastConn()
	require.NoError(t, m.Subscribe("ticker:ETH:PERPETUAL"))
	require.NoError(t, m.Subscribe("ticker:BTC:PERPETUAL"))
	assert.Len(t, first.messages(), 2, "Ready 状态下订阅立即发送")

	// 服务端断开
	_ = first.Close()
	require.Eventually(t, func() bool { return d.dialCount() == 2 }, 3*testDelay+time.Second, 5*time.Millisecond)
	waitReady(t, m, time.Second)

	second := d.lastConn()
	require.Eventually(t, func() bool { return len(second.messages()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []any{"ticker:ETH:PERPETUAL", "ticker:BTC:PERPETUAL"}, second.messages()[0]["data"])
}

func TestManager_SubscribeIdempotent(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d, Auth{})
	require.NoError(t, m.Open())
	waitReady(t, m, time.Second)

	require.NoError(t, m.Subscribe("ticker:ETH:PERPETUAL"))
	require.NoError(t, m.Subscribe("ticker:ETH:PERPETUAL"))
	assert.Equal(t, []string{"ticker:ETH:PERPETUAL"}, m.Subscriptions())
	assert.Len(t, d.lastConn().messages(), 1)

	require.NoError(t, m.Unsubscribe("ticker:ETH:PERPETUAL"))
	assert.Empty(t, m.Subscriptions())
	msgs := d.lastConn().messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "unsubscribe", msgs[1]["op"])
}

func TestManager_SendWhenDisconnectedTriggersConnect(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d, Auth{})
	assert.Equal(t, types.StateDisconnected, m.State())

	err := m.Send(map[string]any{"op": "ping"})
	var terr *types.TransportError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, types.ErrNotConnected)

	require.Eventually(t, func() bool { return d.dialCount() >= 1 }, time.Second, 5*time.Millisecond)
	waitReady(t, m, time.Second)

	require.NoError(t, m.Send(map[string]any{"op": "ping"}))
	assert.Contains(t, d.lastConn().rawWritten(), `{"op":"ping"}`)
}

func TestManager_SendWriteFailureReconnects(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d, Auth{})
	require.NoError(t, m.Open())
	waitReady(t, m, time.Second)

	conn := d.lastConn()
	conn.mu.Lock()
	conn.writeErr = errors.New("broken pipe")
	conn.mu.Unlock()

	err := m.Send(map[string]any{"op": "ping"})
	var terr *types.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, "write", terr.Op)
	assert.True(t, conn.isClosed())

	require.Eventually(t, func() bool { return d.dialCount() == 2 }, 3*testDelay+time.Second, 5*time.Millisecond)
	waitReady(t, m, time.Second)
}

func TestManager_NoReconnectAfterClose(t *testing.T) {
	d := &fakeDialer{failures: 1000}
	m := newTestManager(t, d, Auth{})
	require.NoError(t, m.Open())

	require.Eventually(t, func() bool { return d.dialCount() >= 1 }, time.Second, time.Millisecond)
	require.NoError(t, m.Close())
	dials := d.dialCount()

	time.Sleep(3 * testDelay)
	assert.Equal(t, dials, d.dialCount(), "关闭后不应再重连")
	assert.Equal(t, types.StateDisconnected, m.State())

	_, ok := <-m.Messages()
	assert.False(t, ok, "关闭后消息通道应关闭")
}

func TestManager_CloseWhileReady(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d, Auth{})
	require.NoError(t, m.Open())
	waitReady(t, m, time.Second)

	conn := d.lastConn()
	require.NoError(t, m.Close())
	assert.True(t, conn.isClosed())
	assert.Empty(t, m.SessionID())

	time.Sleep(3 * testDelay)
	assert.Equal(t, 1, d.dialCount())
}

func TestManager_OpenTwiceKeepsSingleConnection(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d, Auth{})
	require.NoError(t, m.Open())
	waitReady(t, m, time.Second)
	first := d.lastConn()

	require.NoError(t, m.Open())
	assert.True(t, first.isClosed(), "重新打开前应关闭旧连接")
	waitReady(t, m, time.Second)
	assert.Equal(t, 2, d.dialCount())
}

func TestManager_MalformedMessage(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d, Auth{})
	require.NoError(t, m.Open())
	waitReady(t, m, time.Second)

	conn := d.lastConn()
	conn.inbound <- []byte("not json at all")
	conn.inbound <- []byte(`{"channel":"ticker:ETH:PERPETUAL","data":{"price":"1850.5"}}`)
	conn.inbound <- []byte(`{"id":1,"data":{"success":true}}`)

	var perr *types.ProtocolError
	select {
	case err := <-m.Errors():
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, perr.Raw, "not json")
	case <-time.After(time.Second):
		t.Fatal("未收到解析错误")
	}

	var got []*Message
	for len(got) < 2 {
		select {
		case msg := <-m.Messages():
			got = append(got, msg)
		case <-time.After(time.Second):
			t.Fatalf("只收到 %d 条消息", len(got))
		}
	}
	assert.Equal(t, "ticker:ETH:PERPETUAL", got[0].Channel)
	require.NotNil(t, got[1].ID)
	assert.Equal(t, int64(1), *got[1].ID)

	select {
	case err := <-m.Errors():
		t.Fatalf("只应上报一次错误，多余: %v", err)
	default:
	}
	assert.Equal(t, types.StateReady, m.State())
	assert.Equal(t, 1, d.dialCount())
}

func TestManager_AuthHandshake(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d, Auth{APIKey: "key-1", APISecret: "secret-1", WalletAddress: "0xabc"})
	require.NoError(t, m.Subscribe("orders"))
	require.NoError(t, m.Open())
	waitReady(t, m, time.Second)

	conn := d.lastConn()
	require.Eventually(t, func() bool { return len(conn.messages()) == 2 }, time.Second, 5*time.Millisecond)
	msgs := conn.messages()
	assert.Equal(t, "auth", msgs[0]["op"])
	assert.Equal(t, float64(1), msgs[0]["id"])
	assert.Equal(t, map[string]any{"key": "key-1", "secret": "secret-1"}, msgs[0]["data"])
	assert.Equal(t, "subscribe", msgs[1]["op"], "订阅在鉴权之后补发")
}

func TestManager_NoAuthWithoutWallet(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d, Auth{APIKey: "key-1", APISecret: "secret-1"})
	require.NoError(t, m.Open())
	waitReady(t, m, time.Second)

	for _, raw := range d.lastConn().rawWritten() {
		assert.False(t, strings.Contains(raw, `"auth"`), "缺少钱包地址时不应发送鉴权")
	}
}

func TestManager_ReadMessages(t *testing.T) {
	d := &fakeDialer{}
	m := newTestManager(t, d, Auth{})
	require.NoError(t, m.Open())
	waitReady(t, m, time.Second)

	conn := d.lastConn()
	for i := 0; i < 5; i++ {
		conn.inbound <- []byte(`{"channel":"c","data":` + string(rune('0'+i)) + `}`)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var order []string
	err := m.ReadMessages(ctx, func(msg *Message) {
		order = append(order, string(msg.Data))
		if len(order) == 5 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, order, "按到达顺序投递")
}
