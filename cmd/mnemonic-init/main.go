package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/betbot/goaevo/pkg/config"
	"github.com/betbot/goaevo/pkg/secretstore"
)

// 从标准输入读取助记词，派生签名私钥后写入加密的 Badger 凭证库。助记词本身不落盘。
func main() {
	var (
		dbPath    = flag.String("badger", getenv(config.EnvSecretDB, "data/secrets.badger"), "badger secrets db path")
		secretKey = flag.String("secret-key", getenv(config.EnvSecretKey, ""), "badger encryption key (32 bytes base64/hex)")
		prefix    = flag.String("prefix", secretstore.DefaultPrefix, "key prefix inside badger")
		path      = flag.String("path", config.DefaultDerivationPath, "BIP-44 derivation path")
		asWallet  = flag.Bool("wallet", true, "同时把派生地址写为 wallet_address")
	)
	flag.Parse()

	keyBytes, err := secretstore.ParseKey(*secretKey)
	if err != nil {
		fatal(err)
	}
	if keyBytes == nil {
		fatal(fmt.Errorf("secret key is required: set %s or pass -secret-key", config.EnvSecretKey))
	}

	fmt.Fprintln(os.Stderr, "请输入助记词（12/15/18/21/24 个单词），输入完成后回车：")
	mn := strings.TrimSpace(readLine())
	if mn == "" {
		fatal(errors.New("mnemonic is empty"))
	}

	w, err := config.DeriveFromMnemonic(mn, *path)
	if err != nil {
		fatal(err)
	}

	ss, err := secretstore.Open(secretstore.OpenOptions{
		Path:          *dbPath,
		EncryptionKey: keyBytes,
	})
	if err != nil {
		fatal(err)
	}
	defer ss.Close()

	creds := secretstore.Credentials{SigningKey: w.PrivateKeyHex}
	if *asWallet {
		creds.WalletAddress = w.Address
	}
	n, err := ss.SaveCredentials(*prefix, creds)
	if err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "已写入 %d 项到 %s（前缀 %s），地址 %s\n", n, *dbPath, *prefix, w.Address)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func readLine() string {
	br := bufio.NewReader(os.Stdin)
	s, _ := br.ReadString('\n')
	return strings.TrimSpace(s)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err.Error())
	os.Exit(1)
}
