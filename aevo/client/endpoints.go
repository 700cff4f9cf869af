package client

// API 端点
const (
	EndpointMarkets = "/markets"
	EndpointOrders  = "/orders"
)
