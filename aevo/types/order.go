package types

import "github.com/shopspring/decimal"

// OrderIntent 用户下单意图
type OrderIntent struct {
	// Instrument 合约 ID
	Instrument string

	// IsBuy true 为买入（做多），false 为卖出
	IsBuy bool

	// LimitPrice 限价（美元），构建载荷时按 6 位定点放大
	LimitPrice decimal.Decimal

	// Quantity 合约数量，构建载荷时按 6 位定点放大
	Quantity decimal.Decimal

	// PostOnly 只做 maker
	PostOnly bool
}

// OrderPayload 可签名、可上送的订单载荷
//
// Amount / LimitPrice / Salt 均为十进制整数字符串。构建后不可修改。
type OrderPayload struct {
	Instrument string `json:"instrument"`
	Maker      string `json:"maker"`
	IsBuy      bool   `json:"is_buy"`
	Amount     string `json:"amount"`
	LimitPrice string `json:"limit_price"`
	Salt       string `json:"salt"`
	PostOnly   bool   `json:"post_only"`
	Timestamp  int64  `json:"timestamp"`
}

// SignedOrder 已签名订单（POST /orders 的请求体）
type SignedOrder struct {
	OrderPayload
	Signature string `json:"signature"`
}

// OrderResponse 下单响应
type OrderResponse struct {
	OrderID          string `json:"order_id"`
	Account          string `json:"account"`
	InstrumentID     string `json:"instrument_id"`
	InstrumentName   string `json:"instrument_name"`
	InstrumentType   string `json:"instrument_type"`
	OrderType        string `json:"order_type"`
	Side             string `json:"side"`
	Amount           string `json:"amount"`
	Price            string `json:"price"`
	Filled           string `json:"filled"`
	OrderStatus      string `json:"order_status"`
	PostOnly         bool   `json:"post_only"`
	ReduceOnly       bool   `json:"reduce_only"`
	CreatedTimestamp string `json:"created_timestamp"`
}
