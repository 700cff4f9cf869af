package logger

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesFileAndRedacts(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "aevo.log")
	require.NoError(t, Init(Config{Level: "debug", OutputFile: file, MaxSize: 1}))
	assert.Equal(t, file, GetCurrentLogFile())

	secret := "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	RegisterSecret(secret, "abc") // 过短的值被忽略

	Infof("signing with %s", secret)
	WithField("key", secret[2:]).Info("field check")
	logrus.WithField("err", errors.New("bad key "+secret)).Warn("global logger")
	Info("abc stays")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	out := string(data)
	assert.NotContains(t, out, secret[2:])
	assert.Contains(t, out, "<redacted>")
	assert.Contains(t, out, "abc stays")
	assert.Contains(t, out, "global logger")
}

func TestInitInvalidLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init(Config{Level: "loud"}))
	assert.Equal(t, logrus.InfoLevel, Logger.GetLevel())
	assert.Empty(t, GetCurrentLogFile())
}

func TestInitFileOnly(t *testing.T) {
	assert.Error(t, InitFileOnly(Config{Level: "info"}))

	file := filepath.Join(t.TempDir(), "tui.log")
	require.NoError(t, InitFileOnly(Config{Level: "info", OutputFile: file}))
	Info("file only")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "file only")
}
