package main

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// orderLevel 订单薄层级
type orderLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// bookUpdate orderbook:<instrument> 频道推送
type bookUpdate struct {
	Type           string     `json:"type"` // snapshot / update
	InstrumentName string     `json:"instrument_name"`
	Bids           [][]string `json:"bids"`
	Asks           [][]string `json:"asks"`
	LastUpdated    string     `json:"last_updated"`
}

// tickerUpdate ticker:<asset>:<kind> 频道推送
type tickerUpdate struct {
	Timestamp string        `json:"timestamp"`
	Tickers   []tickerEntry `json:"tickers"`
}

type tickerEntry struct {
	InstrumentName string `json:"instrument_name"`
	FundingRate    string `json:"funding_rate"`
	IndexPrice     string `json:"index_price"`
	Mark           struct {
		Price string `json:"price"`
	} `json:"mark"`
}

func parseBook(data json.RawMessage) (*bookUpdate, error) {
	var b bookUpdate
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func parseTicker(data json.RawMessage) (*tickerUpdate, error) {
	var t tickerUpdate
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// toLevels 转换 [[price, amount, ...]]，跳过无法解析的档位
func toLevels(raw [][]string) []orderLevel {
	out := make([]orderLevel, 0, len(raw))
	for _, row := range raw {
		if len(row) < 2 {
			continue
		}
		p, err := decimal.NewFromString(row[0])
		if err != nil {
			continue
		}
		s, err := decimal.NewFromString(row[1])
		if err != nil {
			continue
		}
		out = append(out, orderLevel{Price: p, Size: s})
	}
	return out
}

// midPrice 中间价；单边时取该边最优价
func midPrice(bids, asks []orderLevel) (decimal.Decimal, bool) {
	switch {
	case len(bids) > 0 && len(asks) > 0:
		return bids[0].Price.Add(asks[0].Price).Div(decimal.NewFromInt(2)), true
	case len(bids) > 0:
		return bids[0].Price, true
	case len(asks) > 0:
		return asks[0].Price, true
	}
	return decimal.Zero, false
}

// channelKind 频道前缀（orderbook / ticker / ...）
func channelKind(channel string) string {
	if i := strings.IndexByte(channel, ':'); i >= 0 {
		return channel[:i]
	}
	return channel
}
