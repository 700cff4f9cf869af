package client

import (
	"github.com/betbot/goaevo/aevo/types"
)

// EnvironmentConfig 环境配置
type EnvironmentConfig struct {
	RestURL string              // REST 基础地址
	WSURL   string              // WebSocket 地址
	Domain  types.SigningDomain // 订单签名域
}

// TestnetConfig 测试网配置（Sepolia）
var TestnetConfig = EnvironmentConfig{
	RestURL: "https://api-testnet.aevo.xyz",
	WSURL:   "wss://ws-testnet.aevo.xyz",
	Domain: types.SigningDomain{
		Name:    "Aevo Testnet",
		Version: "1",
		ChainID: "11155111",
	},
}

// MainnetConfig 主网配置
var MainnetConfig = EnvironmentConfig{
	RestURL: "https://api.aevo.xyz",
	WSURL:   "wss://ws.aevo.xyz",
	Domain: types.SigningDomain{
		Name:    "Aevo Mainnet",
		Version: "1",
		ChainID: "1",
	},
}

// GetEnvironmentConfig 根据环境获取配置，返回副本
func GetEnvironmentConfig(env types.Environment) (EnvironmentConfig, error) {
	switch env {
	case types.EnvTestnet:
		return TestnetConfig, nil
	case types.EnvMainnet:
		return MainnetConfig, nil
	default:
		return EnvironmentConfig{}, env.Validate()
	}
}
