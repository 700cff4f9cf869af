package types

// ConnectionState 实时连接状态
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateAuthenticating // 鉴权握手已发送前的阶段
	StateReady
	StateFailed
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CanSend 该状态下是否允许发送业务消息
func (s ConnectionState) CanSend() bool {
	return s == StateReady || s == StateAuthenticating
}
