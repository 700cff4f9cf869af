package types

// AuthHeader REST 鉴权头（静态 API key/secret）
type AuthHeader struct {
	AevoKey    string `json:"AEVO-KEY"`
	AevoSecret string `json:"AEVO-SECRET"`
}
