package signing

const (
	// PrimaryTypeOrder 订单 typed data 主类型名
	PrimaryTypeOrder = "Order"

	// HeaderAPIKey / HeaderAPISecret REST 鉴权头
	HeaderAPIKey    = "AEVO-KEY"
	HeaderAPISecret = "AEVO-SECRET"
)
