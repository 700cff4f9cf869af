package types

// Market 市场信息（GET /markets）
type Market struct {
	InstrumentID     string `json:"instrument_id"`
	InstrumentName   string `json:"instrument_name"`
	InstrumentType   string `json:"instrument_type"` // OPTION / PERPETUAL / SPOT
	UnderlyingAsset  string `json:"underlying_asset"`
	QuoteAsset       string `json:"quote_asset"`
	PriceStep        string `json:"price_step"`
	AmountStep       string `json:"amount_step"`
	MinOrderValue    string `json:"min_order_value"`
	MaxOrderValue    string `json:"max_order_value"`
	MaxNotionalValue string `json:"max_notional_value"`
	MarkPrice        string `json:"mark_price"`
	IndexPrice       string `json:"index_price"`
	ForwardPrice     string `json:"forward_price,omitempty"`
	IsActive         bool   `json:"is_active"`

	// 期权字段
	OptionType string `json:"option_type,omitempty"`
	Expiry     string `json:"expiry,omitempty"`
	Strike     string `json:"strike,omitempty"`
}
