package config

import (
	"fmt"
	"strings"

	hdwallet "github.com/miguelmota/go-ethereum-hdwallet"
)

// DefaultDerivationPath 以太坊第一个账户
const DefaultDerivationPath = "m/44'/60'/0'/0/0"

// DerivedWallet 助记词派生出的签名账户
type DerivedWallet struct {
	PrivateKeyHex string
	Address       string
}

// DeriveFromMnemonic 按 BIP-44 路径从助记词派生签名私钥
func DeriveFromMnemonic(mnemonic, derivationPath string) (*DerivedWallet, error) {
	mnemonic = strings.TrimSpace(mnemonic)
	derivationPath = strings.TrimSpace(derivationPath)
	if mnemonic == "" {
		return nil, fmt.Errorf("mnemonic is required")
	}
	if derivationPath == "" {
		derivationPath = DefaultDerivationPath
	}

	w, err := hdwallet.NewFromMnemonic(mnemonic)
	if err != nil {
		// 不回显助记词
		return nil, fmt.Errorf("invalid mnemonic")
	}

	path, err := hdwallet.ParseDerivationPath(derivationPath)
	if err != nil {
		return nil, fmt.Errorf("invalid derivation_path: %w", err)
	}

	acct, err := w.Derive(path, false)
	if err != nil {
		return nil, fmt.Errorf("derive failed: %w", err)
	}

	pk, err := w.PrivateKeyHex(acct)
	if err != nil {
		return nil, fmt.Errorf("private key failed: %w", err)
	}

	return &DerivedWallet{
		PrivateKeyHex: pk,
		Address:       acct.Address.Hex(),
	}, nil
}
