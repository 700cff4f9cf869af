package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/betbot/goaevo/aevo/types"
	"github.com/betbot/goaevo/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Manager 管理唯一一条实时会话：连接、鉴权、订阅、接收、断线重连
//
// 状态只在 Manager 内部按锁串行修改。收到的消息按到达顺序放入 Messages()，
// 由单个消费者读取；解析失败和传输错误放入 Errors()。
type Manager struct {
	cfg     Config
	logger  *logrus.Entry
	headers http.Header

	// lifecycleMu 串行化 Open / Close
	lifecycleMu sync.Mutex

	mu        sync.Mutex
	state     types.ConnectionState
	stateCh   chan struct{} // 状态变化时关闭并重建
	conn      Conn
	sessionID string
	subs      []string // 按首次请求顺序
	subSet    map[string]struct{}
	cancel    context.CancelFunc
	done      chan struct{}

	msgCh    chan *Message
	errCh    chan error
	chClosed bool
}

// NewManager 创建连接管理器，不会立即连接
func NewManager(cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	headers := make(http.Header, len(cfg.Headers))
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}

	m := &Manager{
		cfg:     cfg,
		logger:  cfg.Logger,
		headers: headers,
		state:   types.StateDisconnected,
		stateCh: make(chan struct{}),
		subSet:  make(map[string]struct{}),
		msgCh:   make(chan *Message, cfg.MessageBufferSize),
		errCh:   make(chan error, cfg.ErrorBufferSize),
	}
	return m, nil
}

// Open 开始连接并在后台维持会话，立即返回
//
// 已有会话时先关闭旧会话再重新连接，保证同一时刻只有一条连接。
func (m *Manager) Open() error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	m.stop()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	m.mu.Lock()
	if m.chClosed {
		m.msgCh = make(chan *Message, m.cfg.MessageBufferSize)
		m.errCh = make(chan error, m.cfg.ErrorBufferSize)
		m.chClosed = false
	}
	m.cancel, m.done = cancel, done
	msgCh := m.msgCh
	m.mu.Unlock()

	m.logger.Infof("打开实时连接: %s", m.cfg.URL)
	go m.run(ctx, msgCh, done)
	return nil
}

// Close 关闭会话：取消等待中的重连，关闭连接，之后不再自动重连。
// Messages() 和 Errors() 返回的通道会被关闭。
func (m *Manager) Close() error {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()

	m.stop()

	m.mu.Lock()
	if !m.chClosed {
		close(m.msgCh)
		close(m.errCh)
		m.chClosed = true
	}
	m.mu.Unlock()
	m.logger.Info("实时连接已关闭")
	return nil
}

// stop 停止后台会话并等待其退出，调用方持有 lifecycleMu
func (m *Manager) stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()
	if cancel == nil {
		return
	}

	// 先取消再取连接：run 在锁内检查 ctx 后才保存连接
	cancel()
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	<-done

	m.mu.Lock()
	m.conn = nil
	m.sessionID = ""
	m.setStateLocked(types.StateDisconnected)
	m.mu.Unlock()
}

// Send 发送一条 JSON 消息
//
// 只在 Ready / Authenticating 状态下写入。未打开时会触发连接并返回错误；
// 写入失败会关闭当前连接触发重连，并返回 *types.TransportError，消息不会被静默丢弃。
func (m *Manager) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}

	m.mu.Lock()
	state, conn, sid := m.state, m.conn, m.sessionID
	running := m.done != nil
	m.mu.Unlock()

	if !running {
		metrics.SendFailures.Add(1)
		m.logger.Warn("连接未打开，发起重连")
		if err := m.Open(); err != nil {
			return err
		}
		return &types.TransportError{Op: "write", Err: types.ErrNotConnected}
	}
	if !state.CanSend() || conn == nil {
		metrics.SendFailures.Add(1)
		return &types.TransportError{Op: "write", SessionID: sid, Err: types.ErrNotConnected}
	}

	if err := conn.WriteMessage(data); err != nil {
		metrics.SendFailures.Add(1)
		// 关闭连接让读循环感知失败并进入重连
		_ = conn.Close()
		terr := &types.TransportError{Op: "write", SessionID: sid, Err: err}
		m.publishErr(terr)
		return terr
	}
	return nil
}

// Subscribe 订阅频道。已订阅的频道忽略；Ready 时立即发送，否则等下次 Ready 时补发。
func (m *Manager) Subscribe(channels ...string) error {
	m.mu.Lock()
	added := make([]string, 0, len(channels))
	for _, ch := range channels {
		if ch == "" {
			continue
		}
		if _, ok := m.subSet[ch]; ok {
			continue
		}
		m.subSet[ch] = struct{}{}
		m.subs = append(m.subs, ch)
		added = append(added, ch)
	}
	state, conn, sid := m.state, m.conn, m.sessionID
	m.mu.Unlock()

	if len(added) == 0 || state != types.StateReady || conn == nil {
		return nil
	}
	return m.writeOp(conn, sid, OpSubscribe, added)
}

// Unsubscribe 取消订阅，Ready 时立即通知服务端
func (m *Manager) Unsubscribe(channels ...string) error {
	m.mu.Lock()
	removed := make([]string, 0, len(channels))
	for _, ch := range channels {
		if _, ok := m.subSet[ch]; !ok {
			continue
		}
		delete(m.subSet, ch)
		removed = append(removed, ch)
	}
	if len(removed) > 0 {
		kept := m.subs[:0]
		for _, ch := range m.subs {
			if _, ok := m.subSet[ch]; ok {
				kept = append(kept, ch)
			}
		}
		m.subs = kept
	}
	state, conn, sid := m.state, m.conn, m.sessionID
	m.mu.Unlock()

	if len(removed) == 0 || state != types.StateReady || conn == nil {
		return nil
	}
	return m.writeOp(conn, sid, OpUnsubscribe, removed)
}

// Subscriptions 当前订阅集合（按请求顺序）
func (m *Manager) Subscriptions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.subs...)
}

// State 当前连接状态
func (m *Manager) State() types.ConnectionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SessionID 当前连接的会话 ID，未连接时为空
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Messages 入站消息通道，Close 后关闭
func (m *Manager) Messages() <-chan *Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.msgCh
}

// Errors 错误事件通道（*types.TransportError / *types.ProtocolError），满时丢弃
func (m *Manager) Errors() <-chan error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errCh
}

// WaitReady 等待进入 Ready 状态
func (m *Manager) WaitReady(ctx context.Context) error {
	for {
		m.mu.Lock()
		state, changed := m.state, m.stateCh
		m.mu.Unlock()
		if state == types.StateReady {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

// ReadMessages 依次把消息交给 handler，直到通道关闭或 ctx 结束
func (m *Manager) ReadMessages(ctx context.Context, handler func(*Message)) error {
	msgs := m.Messages()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			handler(msg)
		}
	}
}

// run 后台会话循环：连接 -> 会话 -> 失败 -> 退避 -> 重连，直到 ctx 取消
func (m *Manager) run(ctx context.Context, msgCh chan<- *Message, done chan struct{}) {
	defer close(done)

	bo := m.newBackOff()
	// 限制重连频率，退避带随机抖动时也不会超过每个间隔一次
	limiter := rate.NewLimiter(rate.Every(m.cfg.ReconnectDelay), 1)

	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		if attempt > 1 {
			metrics.Reconnects.Add(1)
		}

		connected, err := m.session(ctx, msgCh)
		if ctx.Err() != nil {
			return
		}
		if connected {
			bo.Reset()
		}

		m.setState(types.StateFailed)
		m.publishErr(err)

		delay := bo.NextBackOff()
		m.logger.WithField("attempt", attempt).Warnf("实时连接失败: %v，%v 后重连", err, delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session 建立一次连接并运行到连接失败；connected 表示是否拨号成功
func (m *Manager) session(ctx context.Context, msgCh chan<- *Message) (connected bool, err error) {
	m.setState(types.StateConnecting)
	metrics.ConnectAttempts.Add(1)

	conn, err := m.cfg.Dialer.Dial(ctx, m.cfg.URL, m.headers)
	if err != nil {
		metrics.ConnectFailures.Add(1)
		return false, &types.TransportError{Op: "dial", Err: err}
	}

	sessionID := uuid.NewString()
	m.mu.Lock()
	if ctx.Err() != nil {
		m.mu.Unlock()
		_ = conn.Close()
		return false, ctx.Err()
	}
	m.conn, m.sessionID = conn, sessionID
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.conn == conn {
			m.conn = nil
		}
		m.mu.Unlock()
		_ = conn.Close()
	}()

	log := m.logger.WithField("session", sessionID)
	log.Info("实时连接已建立")

	if m.cfg.Auth.enabled() {
		m.setState(types.StateAuthenticating)
		auth := AuthMessage{
			ID: authRequestID,
			Op: OpAuth,
			Data: AuthData{
				Key:    m.cfg.Auth.APIKey,
				Secret: m.cfg.Auth.APISecret,
			},
		}
		if err := writeJSON(conn, auth); err != nil {
			return true, &types.TransportError{Op: "auth", SessionID: sessionID, Err: err}
		}
		metrics.AuthHandshakes.Add(1)
		log.Info("鉴权握手已发送")
	}

	// 进入 Ready 和读取订阅快照在同一把锁内，之后的 Subscribe 会直接发送
	m.mu.Lock()
	m.setStateLocked(types.StateReady)
	subs := append([]string(nil), m.subs...)
	m.mu.Unlock()

	if len(subs) > 0 {
		if err := writeJSON(conn, SubscribeMessage{Op: OpSubscribe, Data: subs}); err != nil {
			return true, &types.TransportError{Op: "subscribe", SessionID: sessionID, Err: err}
		}
		log.Infof("已恢复 %d 个订阅", len(subs))
	}

	return true, m.readLoop(ctx, conn, sessionID, msgCh)
}

// readLoop 读取消息并按顺序交给消费者
func (m *Manager) readLoop(ctx context.Context, conn Conn, sessionID string, msgCh chan<- *Message) error {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &types.TransportError{Op: "read", SessionID: sessionID, Err: err}
		}
		metrics.MessagesIn.Add(1)

		msg, err := ParseMessage(data)
		if err != nil {
			metrics.ParseErrors.Add(1)
			m.logger.WithField("session", sessionID).Warnf("消息解析失败: %v", err)
			m.publishErr(err)
			continue
		}

		select {
		case msgCh <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (m *Manager) writeOp(conn Conn, sessionID, op string, channels []string) error {
	if err := writeJSON(conn, SubscribeMessage{Op: op, Data: channels}); err != nil {
		metrics.SendFailures.Add(1)
		_ = conn.Close()
		terr := &types.TransportError{Op: op, SessionID: sessionID, Err: err}
		m.publishErr(terr)
		return terr
	}
	return nil
}

func writeJSON(conn Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(data)
}

func (m *Manager) newBackOff() backoff.BackOff {
	if m.cfg.MaxReconnectDelay <= m.cfg.ReconnectDelay {
		return backoff.NewConstantBackOff(m.cfg.ReconnectDelay)
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.ReconnectDelay
	b.MaxInterval = m.cfg.MaxReconnectDelay
	b.MaxElapsedTime = 0 // 永不放弃，直到 Close
	b.Reset()
	return b
}

func (m *Manager) setState(s types.ConnectionState) {
	m.mu.Lock()
	m.setStateLocked(s)
	m.mu.Unlock()
}

func (m *Manager) setStateLocked(s types.ConnectionState) {
	if m.state == s {
		return
	}
	m.logger.Debugf("状态变化: %s -> %s", m.state, s)
	m.state = s
	close(m.stateCh)
	m.stateCh = make(chan struct{})
	metrics.ConnectionState.Set(s.String())
}

// publishErr 非阻塞上报错误，通道关闭后丢弃
func (m *Manager) publishErr(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chClosed {
		return
	}
	select {
	case m.errCh <- err:
	default:
		m.logger.Debugf("错误通道已满，丢弃: %v", err)
	}
}
