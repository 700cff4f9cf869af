package metrics

import "expvar"

// 实时连接
var (
	ConnectAttempts = expvar.NewInt("aevo_ws_connect_attempts")
	ConnectFailures = expvar.NewInt("aevo_ws_connect_failures")
	Reconnects      = expvar.NewInt("aevo_ws_reconnects")
	AuthHandshakes  = expvar.NewInt("aevo_ws_auth_handshakes")
	MessagesIn      = expvar.NewInt("aevo_ws_messages_in")
	ParseErrors     = expvar.NewInt("aevo_ws_parse_errors")
	SendFailures    = expvar.NewInt("aevo_ws_send_failures")
	ConnectionState = expvar.NewString("aevo_ws_state")
)

// 下单 / REST
var (
	OrdersSigned    = expvar.NewInt("aevo_orders_signed")
	OrdersSubmitted = expvar.NewInt("aevo_orders_submitted")
	RestRequests    = expvar.NewInt("aevo_rest_requests")
	RestErrors      = expvar.NewInt("aevo_rest_errors")
)
