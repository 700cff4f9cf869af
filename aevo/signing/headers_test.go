package signing

import (
	"strings"
	"testing"

	"github.com/betbot/goaevo/aevo/types"
	"github.com/stretchr/testify/assert"
)

func TestBuildRestHeaders(t *testing.T) {
	creds := types.Credentials{
		APIKey:        "key-123",
		APISecret:     "secret-456",
		WalletAddress: "0x0000000000000000000000000000000000000001",
		SigningKey:    "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
	}

	headers := BuildRestHeaders(creds, map[string]string{
		"X-Client":    "goaevo",
		"aevo-key":    "spoofed",
		"AEVO-SECRET": "spoofed",
	})

	assert.Equal(t, "goaevo", headers["X-Client"])
	assert.Equal(t, "key-123", headers[HeaderAPIKey])
	assert.Equal(t, "secret-456", headers[HeaderAPISecret])
	assert.NotContains(t, headers, "aevo-key")

	for k, v := range headers {
		assert.NotContains(t, strings.ToLower(v), creds.SigningKey, "header %s 泄露了签名私钥", k)
	}
}

func TestBuildRestHeaders_NoCredentials(t *testing.T) {
	headers := BuildRestHeaders(types.Credentials{}, nil)
	assert.Empty(t, headers)

	headers = BuildRestHeaders(types.Credentials{APIKey: "only-key"}, map[string]string{"X-A": "1"})
	assert.Equal(t, map[string]string{"X-A": "1", HeaderAPIKey: "only-key"}, headers)
}

func TestCredentialsRedacted(t *testing.T) {
	creds := types.Credentials{APIKey: "abcdefgh", APISecret: "topsecret", SigningKey: "deadbeef"}
	s := creds.String()
	assert.NotContains(t, s, "topsecret")
	assert.NotContains(t, s, "deadbeef")
	assert.NotContains(t, s, "abcdefgh")
}
