package ws

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/betbot/goaevo/aevo/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	msg, err := ParseMessage([]byte(`  {"channel":"ticker:ETH:PERPETUAL","data":{"tickers":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, "ticker:ETH:PERPETUAL", msg.Channel)
	assert.Nil(t, msg.ID)
	assert.False(t, msg.IsError())
	assert.JSONEq(t, `{"tickers":[]}`, string(msg.Data))

	msg, err = ParseMessage([]byte(`{"id":1,"error":"INVALID_API_KEY"}`))
	require.NoError(t, err)
	assert.True(t, msg.IsError())
	assert.Equal(t, int64(1), *msg.ID)
}

func TestParseMessage_Malformed(t *testing.T) {
	for _, raw := range []string{"", "hello", "[1,2,3]", `{"channel":`, strings.Repeat("x", 1000)} {
		_, err := ParseMessage([]byte(raw))
		var perr *types.ProtocolError
		require.ErrorAs(t, err, &perr, "raw=%q", raw)
		assert.LessOrEqual(t, len(perr.Raw), maxRawPreview+3)
	}
}

func TestAuthMessageShape(t *testing.T) {
	data, err := json.Marshal(AuthMessage{ID: authRequestID, Op: OpAuth, Data: AuthData{Key: "k", Secret: "s"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"op":"auth","data":{"key":"k","secret":"s"}}`, string(data))
}
