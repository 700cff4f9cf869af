package secretstore

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// 凭证在库中的键名（实际键为 prefix + 名称）
const (
	KeyAPIKey        = "api_key"
	KeyAPISecret     = "api_secret"
	KeyWalletAddress = "wallet_address"
	KeySigningKey    = "signing_key"
)

// DefaultPrefix 默认键前缀，多账户时可按环境区分，例如 "aevo/mainnet/"
const DefaultPrefix = "aevo/"

var errNotOpened = errors.New("secretstore: not opened")

// Store Badger 加密 KV 封装，加密由 Badger 的 value log + key registry 提供
type Store struct {
	db *badger.DB
}

// OpenOptions 打开参数
type OpenOptions struct {
	Path          string
	EncryptionKey []byte // 32 bytes；为空时不加密（不建议）
	ReadOnly      bool
	InMemory      bool // 测试用
}

// Open 打开存储
func Open(opts OpenOptions) (*Store, error) {
	if !opts.InMemory && strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("secretstore: path is required")
	}
	path := opts.Path
	if opts.InMemory {
		path = ""
	}
	bopts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithInMemory(opts.InMemory).
		WithReadOnly(opts.ReadOnly)
	if len(opts.EncryptionKey) > 0 {
		// 加密模式必须配置 index cache
		bopts = bopts.
			WithEncryptionKey(opts.EncryptionKey).
			WithIndexCacheSize(100 << 20) // 100MB
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("secretstore: open %s: %w", opts.Path, err)
	}
	return &Store{db: db}, nil
}

// Close 关闭存储
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetString 读取字符串，found 表示键是否存在
func (s *Store) GetString(key string) (val string, found bool, err error) {
	k, err := s.key(key)
	if err != nil {
		return "", false, err
	}
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(v []byte) error {
			val = string(v)
			return nil
		})
	})
	if err != nil {
		return "", false, err
	}
	return val, found, nil
}

// SetString 写入字符串
func (s *Store) SetString(key, val string) error {
	k, err := s.key(key)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, []byte(val))
	})
}

// SetMany 在一个事务里写入多个键，跳过空值
func (s *Store) SetMany(prefix string, kv map[string]string) (int, error) {
	if s == nil || s.db == nil {
		return 0, errNotOpened
	}
	n := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		for name, val := range kv {
			if strings.TrimSpace(name) == "" || val == "" {
				continue
			}
			if err := txn.Set([]byte(prefix+strings.TrimSpace(name)), []byte(val)); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Credentials 从库中读出的凭证，缺失的字段为空
type Credentials struct {
	APIKey        string
	APISecret     string
	WalletAddress string
	SigningKey    string
}

// LoadCredentials 读取 prefix 下的凭证
func (s *Store) LoadCredentials(prefix string) (Credentials, error) {
	var out Credentials
	for name, dst := range map[string]*string{
		KeyAPIKey:        &out.APIKey,
		KeyAPISecret:     &out.APISecret,
		KeyWalletAddress: &out.WalletAddress,
		KeySigningKey:    &out.SigningKey,
	} {
		v, _, err := s.GetString(prefix + name)
		if err != nil {
			return Credentials{}, fmt.Errorf("secretstore: read %s: %w", name, err)
		}
		*dst = v
	}
	return out, nil
}

// SaveCredentials 写入 prefix 下的凭证，空字段不写
func (s *Store) SaveCredentials(prefix string, c Credentials) (int, error) {
	return s.SetMany(prefix, map[string]string{
		KeyAPIKey:        c.APIKey,
		KeyAPISecret:     c.APISecret,
		KeyWalletAddress: c.WalletAddress,
		KeySigningKey:    c.SigningKey,
	})
}

func (s *Store) key(key string) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, errNotOpened
	}
	k := []byte(strings.TrimSpace(key))
	if len(k) == 0 {
		return nil, errors.New("secretstore: key is empty")
	}
	return k, nil
}

// ParseKey 解析 32 字节加密密钥（hex 或 base64），输入为空时返回 nil
func ParseKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	// 优先按 hex 解析，避免把 hex 串误当 base64
	if b, err := hex.DecodeString(strings.TrimPrefix(raw, "0x")); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		if len(b) != 32 {
			return nil, fmt.Errorf("decoded key length must be 32, got %d", len(b))
		}
		return b, nil
	}
	return nil, errors.New("key must be base64(32 bytes) or hex(32 bytes)")
}
