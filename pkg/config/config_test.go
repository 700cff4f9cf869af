package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/betbot/goaevo/aevo/signing"
	"github.com/betbot/goaevo/aevo/types"
	"github.com/betbot/goaevo/pkg/secretstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "tag volcano eight thank tide danger coast health above argue embrace heavy"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvEnvironment, EnvSigningKey, EnvWalletAddress, EnvAPIKey, EnvAPISecret,
		EnvProxyURL, EnvLogLevel, EnvMnemonic, EnvSecretDB, EnvSecretKey, EnvHTTPTimeout, EnvJournalPath} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "testnet", cfg.Environment)
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 10*time.Second, cfg.Realtime.ReconnectDelay)
	assert.Empty(t, cfg.JournalPath)
}

func TestLoadJournalPathFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvJournalPath, "data/orders.db")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "data/orders.db", cfg.JournalPath)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
environment: mainnet
credentials:
  api_key: file-key
  api_secret: file-secret
rest_headers:
  X-Client: goaevo
http_timeout: 5s
realtime:
  reconnect_delay: 2s
  max_reconnect_delay: 30s
  channels: ["ticker:ETH:PERPETUAL"]
log:
  level: debug
metrics_addr: 127.0.0.1:6060
`)
	t.Setenv(EnvAPIKey, "env-key")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mainnet", cfg.Environment)
	assert.Equal(t, "env-key", cfg.Credentials.APIKey, "环境变量优先")
	assert.Equal(t, "file-secret", cfg.Credentials.APISecret)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2*time.Second, cfg.Realtime.ReconnectDelay)
	assert.Equal(t, []string{"ticker:ETH:PERPETUAL"}, cfg.Realtime.Channels)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:6060", cfg.MetricsAddr)

	cc, err := cfg.ToClientConfig()
	require.NoError(t, err)
	assert.Equal(t, types.EnvMainnet, cc.Environment)
	assert.Equal(t, "goaevo", cc.RestHeaders["X-Client"])
	assert.Equal(t, 2*time.Second, cc.Realtime.ReconnectDelay)
	assert.Equal(t, 30*time.Second, cc.Realtime.MaxReconnectDelay)
}

func TestLoadInvalid(t *testing.T) {
	clearEnv(t)

	_, err := Load(writeConfig(t, "environment: devnet\n"))
	var cfgErr *types.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = Load(writeConfig(t, "realtime:\n  reconnect_delay: 10s\n  max_reconnect_delay: 1s\n"))
	assert.ErrorAs(t, err, &cfgErr)

	t.Setenv(EnvHTTPTimeout, "soon")
	_, err = Load("")
	assert.ErrorAs(t, err, &cfgErr)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDeriveFromMnemonic(t *testing.T) {
	w, err := DeriveFromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	assert.Equal(t, "0xC49926C4124cEe1cbA0Ea94Ea31a6c12318df947", w.Address)

	key, err := signing.PrivateKeyFromHex(w.PrivateKeyHex)
	require.NoError(t, err)
	assert.Equal(t, w.Address, signing.GetAddressFromPrivateKey(key).Hex())

	second, err := DeriveFromMnemonic(testMnemonic, "m/44'/60'/0'/0/1")
	require.NoError(t, err)
	assert.NotEqual(t, w.Address, second.Address)

	_, err = DeriveFromMnemonic("", "")
	assert.Error(t, err)
	_, err = DeriveFromMnemonic("not a valid mnemonic phrase", "")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "not a valid")
}

func TestResolveCredentials_Sources(t *testing.T) {
	clearEnv(t)

	dbPath := filepath.Join(t.TempDir(), "secrets.badger")
	store, err := secretstore.Open(secretstore.OpenOptions{Path: dbPath})
	require.NoError(t, err)
	_, err = store.SaveCredentials("aevo/testnet/", secretstore.Credentials{
		APIKey:    "store-key",
		APISecret: "store-secret",
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	cfg := Default()
	cfg.Credentials.APIKey = "file-key"
	cfg.SecretStore.Path = dbPath
	cfg.SecretStore.Prefix = "aevo/testnet/"
	cfg.Mnemonic.Phrase = testMnemonic

	creds, err := cfg.ResolveCredentials()
	require.NoError(t, err)
	assert.Equal(t, "file-key", creds.APIKey, "显式配置优先于 secret store")
	assert.Equal(t, "store-secret", creds.APISecret)
	assert.NotEmpty(t, creds.SigningKey, "缺少私钥时从助记词派生")

	key, err := signing.PrivateKeyFromHex(creds.SigningKey)
	require.NoError(t, err)
	assert.Equal(t, "0xC49926C4124cEe1cbA0Ea94Ea31a6c12318df947", signing.GetAddressFromPrivateKey(key).Hex())
}
