package ws

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/betbot/goaevo/aevo/types"
)

// 操作类型
const (
	OpAuth        = "auth"
	OpSubscribe   = "subscribe"
	OpUnsubscribe = "unsubscribe"
)

const maxRawPreview = 256

var (
	errMissing   = errors.New("missing")
	errNotObject = errors.New("message is not a JSON object")
)

// AuthMessage 鉴权握手 {"id":1,"op":"auth","data":{"key":..,"secret":..}}
type AuthMessage struct {
	ID   int64    `json:"id"`
	Op   string   `json:"op"`
	Data AuthData `json:"data"`
}

// AuthData 鉴权参数
type AuthData struct {
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// SubscribeMessage 订阅 / 取消订阅请求
type SubscribeMessage struct {
	Op   string   `json:"op"`
	Data []string `json:"data"`
}

// Message 服务端推送的消息
//
// 请求的响应带 id；频道推送带 channel；错误带 error。
type Message struct {
	ID      *int64          `json:"id,omitempty"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   json.RawMessage `json:"error,omitempty"`

	// Raw 原始消息
	Raw json.RawMessage `json:"-"`
}

// IsError 是否为错误响应
func (m *Message) IsError() bool {
	return len(m.Error) > 0 && !bytes.Equal(m.Error, []byte("null"))
}

// ParseMessage 解析一条推送；无法解析时返回 *types.ProtocolError
func ParseMessage(raw []byte) (*Message, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, &types.ProtocolError{Raw: preview(raw), Err: errNotObject}
	}

	var msg Message
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return nil, &types.ProtocolError{Raw: preview(raw), Err: err}
	}
	msg.Raw = append(json.RawMessage(nil), trimmed...)
	return &msg, nil
}

func preview(raw []byte) string {
	if len(raw) > maxRawPreview {
		return string(raw[:maxRawPreview]) + "..."
	}
	return string(raw)
}
