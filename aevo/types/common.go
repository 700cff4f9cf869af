package types

import (
	"fmt"
	"strings"
)

// Environment 网络环境
type Environment string

const (
	EnvTestnet Environment = "testnet"
	EnvMainnet Environment = "mainnet"
)

// ParseEnvironment 解析环境名称（大小写不敏感），只接受 testnet / mainnet
func ParseEnvironment(s string) (Environment, error) {
	env := Environment(strings.ToLower(strings.TrimSpace(s)))
	if err := env.Validate(); err != nil {
		return "", err
	}
	return env, nil
}

// Validate 校验环境取值
func (e Environment) Validate() error {
	switch e {
	case EnvTestnet, EnvMainnet:
		return nil
	default:
		return &ConfigurationError{
			Field: "environment",
			Err:   fmt.Errorf("environment must be %q or %q, got %q", EnvTestnet, EnvMainnet, string(e)),
		}
	}
}

func (e Environment) String() string {
	return string(e)
}

// SigningDomain EIP712 域参数
type SigningDomain struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	ChainID string `json:"chainId"`
}

// Credentials 账户凭证
//
// SigningKey 只用于订单签名，绝不能出现在 REST 头或 WebSocket 消息里。
type Credentials struct {
	APIKey        string
	APISecret     string
	WalletAddress string
	SigningKey    string // hex 私钥
}

// HasAPIKey 是否配置了 API key/secret
func (c Credentials) HasAPIKey() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// String 脱敏输出，避免凭证进入日志
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{APIKey:%s WalletAddress:%s APISecret:%s SigningKey:%s}",
		redact(c.APIKey), c.WalletAddress, mask(c.APISecret), mask(c.SigningKey))
}

// GoString 同 String，防止 %#v 泄露
func (c Credentials) GoString() string {
	return c.String()
}

func redact(s string) string {
	if len(s) <= 4 {
		return mask(s)
	}
	return s[:4] + "****"
}

func mask(s string) string {
	if s == "" {
		return "<empty>"
	}
	return "<redacted>"
}
