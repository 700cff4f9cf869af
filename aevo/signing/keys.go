package signing

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/betbot/goaevo/aevo/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PrivateKeyFromHex 从十六进制字符串解析私钥（允许 0x 前缀）
func PrivateKeyFromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, &types.SigningError{Field: "signing_key", Err: types.ErrMissingSigningKey}
	}
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		// 不回显私钥内容
		return nil, &types.SigningError{Field: "signing_key", Err: fmt.Errorf("malformed private key: %w", err)}
	}
	return key, nil
}

// GetAddressFromPrivateKey 从私钥获取地址
func GetAddressFromPrivateKey(privateKey *ecdsa.PrivateKey) common.Address {
	return crypto.PubkeyToAddress(privateKey.PublicKey)
}
