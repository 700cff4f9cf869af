package main

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBook(t *testing.T) {
	raw := json.RawMessage(`{"type":"snapshot","instrument_name":"ETH-PERP","bids":[["1850.5","2.1","0"],["bad","1"]],"asks":[["1851.5","0.4"]],"last_updated":"1700000000000000000"}`)
	b, err := parseBook(raw)
	require.NoError(t, err)
	assert.Equal(t, "snapshot", b.Type)

	bids := toLevels(b.Bids)
	asks := toLevels(b.Asks)
	require.Len(t, bids, 1, "无法解析的档位被跳过")
	require.Len(t, asks, 1)
	assert.True(t, bids[0].Size.Equal(decimal.RequireFromString("2.1")))

	mid, ok := midPrice(bids, asks)
	require.True(t, ok)
	assert.Equal(t, "1851", mid.String())
}

func TestMidPrice_OneSided(t *testing.T) {
	bids := []orderLevel{{Price: decimal.NewFromInt(10), Size: decimal.NewFromInt(1)}}
	mid, ok := midPrice(bids, nil)
	assert.True(t, ok)
	assert.Equal(t, "10", mid.String())

	_, ok = midPrice(nil, nil)
	assert.False(t, ok)
}

func TestParseTicker(t *testing.T) {
	raw := json.RawMessage(`{"timestamp":"1","tickers":[{"instrument_name":"ETH-PERP","funding_rate":"0.0001","index_price":"1850","mark":{"price":"1850.7"}}]}`)
	tk, err := parseTicker(raw)
	require.NoError(t, err)
	require.Len(t, tk.Tickers, 1)
	assert.Equal(t, "1850.7", tk.Tickers[0].Mark.Price)
}

func TestChannelKind(t *testing.T) {
	assert.Equal(t, "orderbook", channelKind("orderbook:ETH-PERP"))
	assert.Equal(t, "ticker", channelKind("ticker:ETH:PERPETUAL"))
	assert.Equal(t, "index", channelKind("index"))
}
