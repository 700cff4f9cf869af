package signing

import (
	"net/http"

	"github.com/betbot/goaevo/aevo/types"
)

// CreateAuthHeader 创建 REST 鉴权头，只包含 API key/secret
func CreateAuthHeader(creds types.Credentials) *types.AuthHeader {
	return &types.AuthHeader{
		AevoKey:    creds.APIKey,
		AevoSecret: creds.APISecret,
	}
}

// BuildRestHeaders 合并调用方附加头与鉴权头。
// 鉴权头最后写入，附加头不能覆盖；未配置 key/secret 时不发送鉴权头。
func BuildRestHeaders(creds types.Credentials, extra map[string]string) map[string]string {
	headers := make(map[string]string, len(extra)+2)
	for k, v := range extra {
		if isAuthHeader(k) {
			continue
		}
		headers[k] = v
	}

	auth := CreateAuthHeader(creds)
	if auth.AevoKey != "" {
		headers[HeaderAPIKey] = auth.AevoKey
	}
	if auth.AevoSecret != "" {
		headers[HeaderAPISecret] = auth.AevoSecret
	}
	return headers
}

func isAuthHeader(k string) bool {
	switch http.CanonicalHeaderKey(k) {
	case http.CanonicalHeaderKey(HeaderAPIKey), http.CanonicalHeaderKey(HeaderAPISecret):
		return true
	}
	return false
}
