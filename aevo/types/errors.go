package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected 实时连接当前不可写
	ErrNotConnected = errors.New("aevo: realtime connection is not open")

	// ErrInvalidOrderIntent 下单意图不满足前置条件
	ErrInvalidOrderIntent = errors.New("aevo: invalid order intent")

	// ErrMissingSigningKey 未配置签名私钥
	ErrMissingSigningKey = errors.New("aevo: signing key is not configured")
)

// ConfigurationError 构造阶段的配置错误，调用方必须处理
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// TransportError 实时连接的传输层错误（连接失败、异常关闭、写入已关闭的连接）。
// 连接管理器会自动重连，同时通过事件通道上报。
type TransportError struct {
	Op        string // dial / read / write / ping
	SessionID string
	Err       error
}

func (e *TransportError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("transport error (%s, session %s): %v", e.Op, e.SessionID, e.Err)
	}
	return fmt.Sprintf("transport error (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError 收到无法解析的消息，不会终止会话
type ProtocolError struct {
	Raw string // 截断后的原始数据
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %v (raw=%q)", e.Err, e.Raw)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// SigningError 私钥或订单字段缺失/非法，签名调用直接失败
type SigningError struct {
	Field string
	Err   error
}

func (e *SigningError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("signing error (%s): %v", e.Field, e.Err)
	}
	return fmt.Sprintf("signing error: %v", e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// RestError REST 调用失败：网络错误（StatusCode=0）或非 2xx 响应
type RestError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
	Err        error
}

func (e *RestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("rest error: %s %s: %v", e.Method, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("rest error: %s %s: http %d: %s", e.Method, e.Endpoint, e.StatusCode, e.Body)
}

func (e *RestError) Unwrap() error { return e.Err }
