package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/betbot/goaevo/aevo/client"
	"github.com/betbot/goaevo/aevo/signing"
	"github.com/betbot/goaevo/aevo/types"
	"github.com/betbot/goaevo/pkg/config"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// 离线构建并签名订单，输出 POST /orders 的请求体。私钥只从环境变量 / .env 读取。
func main() {
	var (
		env        = flag.String("env", getenv(config.EnvEnvironment, "testnet"), "testnet / mainnet")
		instrument = flag.String("instrument", "", "合约 ID")
		side       = flag.String("side", "buy", "buy / sell")
		price      = flag.String("price", "", "限价（美元）")
		qty        = flag.String("qty", "", "数量")
		maker      = flag.String("maker", getenv(config.EnvWalletAddress, ""), "maker 地址（默认取私钥地址）")
		postOnly   = flag.Bool("post-only", true, "只做 maker")
		verify     = flag.Bool("verify", true, "签名后本地验签")
	)
	flag.Parse()

	_ = godotenv.Load()

	environment, err := types.ParseEnvironment(*env)
	if err != nil {
		fatal(err)
	}
	p, err := decimal.NewFromString(*price)
	if err != nil {
		fatal(fmt.Errorf("invalid -price %q: %w", *price, err))
	}
	q, err := decimal.NewFromString(*qty)
	if err != nil {
		fatal(fmt.Errorf("invalid -qty %q: %w", *qty, err))
	}

	c, err := client.NewClient(client.Config{
		Environment: environment,
		Credentials: types.Credentials{
			WalletAddress: *maker,
			SigningKey:    os.Getenv(config.EnvSigningKey),
		},
	})
	if err != nil {
		fatal(err)
	}

	signed, err := c.CreateOrderPayload(&types.OrderIntent{
		Instrument: *instrument,
		IsBuy:      !strings.EqualFold(*side, "sell"),
		LimitPrice: p,
		Quantity:   q,
		PostOnly:   *postOnly,
	})
	if err != nil {
		fatal(err)
	}

	if *verify {
		ok, err := signing.VerifyOrderSignature(c.SigningDomain(), &signed.OrderPayload, signed.Signature, common.HexToAddress(signed.Maker))
		if err != nil {
			fatal(err)
		}
		if !ok {
			// maker 与签名私钥不一致（例如使用 signing key 代签）
			fmt.Fprintln(os.Stderr, "warning: 签名者不是 maker 地址")
		}
	}

	out, err := json.MarshalIndent(signed, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(out))
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
