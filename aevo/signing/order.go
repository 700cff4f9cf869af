package signing

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/betbot/goaevo/aevo/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// orderTypes 订单 typed data 的类型定义。
// Order 的字段顺序和类型属于签名协议的一部分，改动会让所有签名失效。
var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
	},
	PrimaryTypeOrder: {
		{Name: "maker", Type: "address"},
		{Name: "isBuy", Type: "bool"},
		{Name: "limitPrice", Type: "uint256"},
		{Name: "amount", Type: "uint256"},
		{Name: "salt", Type: "uint256"},
		{Name: "instrument", Type: "string"},
		{Name: "timestamp", Type: "uint256"},
	},
}

// BuildOrderTypedData 构建订单的 EIP712 TypedData
func BuildOrderTypedData(domain types.SigningDomain, payload *types.OrderPayload) (*apitypes.TypedData, error) {
	if err := validateDomain(domain); err != nil {
		return nil, err
	}
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	chainID, ok := math.ParseBig256(domain.ChainID)
	if !ok {
		return nil, &types.SigningError{Field: "domain.chainId", Err: fmt.Errorf("invalid chain id %q", domain.ChainID)}
	}

	// 数值字段统一用十进制字符串传给 apitypes，避免浮点
	message := apitypes.TypedDataMessage{
		"maker":      common.HexToAddress(payload.Maker).Hex(),
		"isBuy":      payload.IsBuy,
		"limitPrice": payload.LimitPrice,
		"amount":     payload.Amount,
		"salt":       payload.Salt,
		"instrument": payload.Instrument,
		"timestamp":  strconv.FormatInt(payload.Timestamp, 10),
	}

	return &apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: PrimaryTypeOrder,
		Domain: apitypes.TypedDataDomain{
			Name:    domain.Name,
			Version: domain.Version,
			ChainId: (*math.HexOrDecimal256)(chainID),
		},
		Message: message,
	}, nil
}

// HashOrder 计算订单的 EIP712 摘要：keccak256("\x19\x01" || domainSeparator || hashStruct(order))
func HashOrder(domain types.SigningDomain, payload *types.OrderPayload) ([]byte, error) {
	typedData, err := BuildOrderTypedData(domain, payload)
	if err != nil {
		return nil, err
	}

	hash, _, err := apitypes.TypedDataAndHash(*typedData)
	if err != nil {
		return nil, &types.SigningError{Field: "typed_data", Err: fmt.Errorf("计算 EIP712 哈希失败: %w", err)}
	}
	return hash, nil
}

// SignOrder 用签名私钥对订单做 EIP712 签名，返回 0x 前缀的 65 字节签名（v 为 27/28）
func SignOrder(privateKey *ecdsa.PrivateKey, domain types.SigningDomain, payload *types.OrderPayload) (string, error) {
	if privateKey == nil {
		return "", &types.SigningError{Field: "signing_key", Err: types.ErrMissingSigningKey}
	}

	hash, err := HashOrder(domain, payload)
	if err != nil {
		return "", err
	}

	signature, err := crypto.Sign(hash, privateKey)
	if err != nil {
		return "", &types.SigningError{Err: fmt.Errorf("签名失败: %w", err)}
	}
	// crypto.Sign 返回的 v 是 0/1，按以太坊惯例转换为 27/28
	signature[crypto.RecoveryIDOffset] += 27

	return hexutil.Encode(signature), nil
}

// RecoverOrderSigner 从签名中恢复签名者地址
func RecoverOrderSigner(domain types.SigningDomain, payload *types.OrderPayload, signature string) (common.Address, error) {
	hash, err := HashOrder(domain, payload)
	if err != nil {
		return common.Address{}, err
	}

	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, &types.SigningError{Field: "signature", Err: err}
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, &types.SigningError{
			Field: "signature",
			Err:   fmt.Errorf("signature length must be %d, got %d", crypto.SignatureLength, len(sig)),
		}
	}

	// 不修改调用方的数据
	normalized := make([]byte, len(sig))
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return common.Address{}, &types.SigningError{Field: "signature", Err: err}
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifyOrderSignature 校验签名是否由 expected 地址在给定域下对该载荷签出
func VerifyOrderSignature(domain types.SigningDomain, payload *types.OrderPayload, signature string, expected common.Address) (bool, error) {
	signer, err := RecoverOrderSigner(domain, payload, signature)
	if err != nil {
		return false, err
	}
	return signer == expected, nil
}

func validateDomain(domain types.SigningDomain) error {
	switch {
	case domain.Name == "":
		return &types.SigningError{Field: "domain.name", Err: errors.New("missing")}
	case domain.Version == "":
		return &types.SigningError{Field: "domain.version", Err: errors.New("missing")}
	case domain.ChainID == "":
		return &types.SigningError{Field: "domain.chainId", Err: errors.New("missing")}
	}
	return nil
}

func validatePayload(p *types.OrderPayload) error {
	if p == nil {
		return &types.SigningError{Field: "payload", Err: errors.New("payload is nil")}
	}
	if !common.IsHexAddress(p.Maker) {
		return &types.SigningError{Field: "maker", Err: fmt.Errorf("invalid address %q", p.Maker)}
	}
	if p.Instrument == "" {
		return &types.SigningError{Field: "instrument", Err: errors.New("missing")}
	}
	if p.Timestamp <= 0 {
		return &types.SigningError{Field: "timestamp", Err: errors.New("missing")}
	}
	for _, f := range []struct{ name, value string }{
		{"limit_price", p.LimitPrice},
		{"amount", p.Amount},
		{"salt", p.Salt},
	} {
		if f.value == "" {
			return &types.SigningError{Field: f.name, Err: errors.New("missing")}
		}
		if _, ok := new(big.Int).SetString(f.value, 10); !ok {
			return &types.SigningError{Field: f.name, Err: fmt.Errorf("not a decimal integer: %q", f.value)}
		}
	}
	return nil
}
