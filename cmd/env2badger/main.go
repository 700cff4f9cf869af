package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/betbot/goaevo/pkg/config"
	"github.com/betbot/goaevo/pkg/secretstore"
	"github.com/joho/godotenv"
)

// credentialEnv 环境变量到凭证键的映射
var credentialEnv = map[string]string{
	config.EnvAPIKey:        secretstore.KeyAPIKey,
	config.EnvAPISecret:     secretstore.KeyAPISecret,
	config.EnvWalletAddress: secretstore.KeyWalletAddress,
	config.EnvSigningKey:    secretstore.KeySigningKey,
}

func main() {
	var (
		inPath    = flag.String("in", ".env", "input .env file path")
		dbPath    = flag.String("badger", getenv(config.EnvSecretDB, "data/secrets.badger"), "badger secrets db path")
		secretKey = flag.String("secret-key", getenv(config.EnvSecretKey, ""), "badger encryption key (32 bytes base64/hex)")
		prefix    = flag.String("prefix", secretstore.DefaultPrefix, "key prefix inside badger")
		all       = flag.Bool("all", false, "同时按原始变量名导入其余所有项（前缀 env/）")
	)
	flag.Parse()

	keyBytes, err := secretstore.ParseKey(*secretKey)
	if err != nil {
		fatal(err)
	}
	if keyBytes == nil {
		fatal(fmt.Errorf("secret key is required: set %s or pass -secret-key", config.EnvSecretKey))
	}

	kv, err := godotenv.Read(*inPath)
	if err != nil {
		fatal(err)
	}

	creds := make(map[string]string, len(credentialEnv))
	rest := make(map[string]string)
	for k, v := range kv {
		if name, ok := credentialEnv[k]; ok {
			creds[name] = v
			continue
		}
		rest[k] = v
	}

	ss, err := secretstore.Open(secretstore.OpenOptions{
		Path:          *dbPath,
		EncryptionKey: keyBytes,
	})
	if err != nil {
		fatal(err)
	}
	defer ss.Close()

	written, err := ss.SetMany(*prefix, creds)
	if err != nil {
		fatal(err)
	}
	if *all {
		n, err := ss.SetMany("env/", rest)
		if err != nil {
			fatal(err)
		}
		written += n
	}

	fmt.Fprintf(os.Stderr, "已导入 %d 项到 badger：%s（前缀 %s）\n", written, *dbPath, *prefix)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
