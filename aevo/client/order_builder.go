package client

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/betbot/goaevo/aevo/types"
	"github.com/shopspring/decimal"
)

const (
	// PriceDecimals 价格/数量的定点精度（10^6）
	PriceDecimals = 6
)

// saltUpperBound salt 取值上界（不含）
var saltUpperBound = big.NewInt(10_000_000_000)

// OrderBuilder 订单载荷构建器，无 I/O，可并发使用
type OrderBuilder struct {
	now  func() time.Time
	salt func() (*big.Int, error)
}

// NewOrderBuilder 创建订单构建器
func NewOrderBuilder() *OrderBuilder {
	return &OrderBuilder{
		now:  time.Now,
		salt: randomSalt,
	}
}

// Build 把下单意图转换为可签名载荷
//
// amount 和 limit_price 按 10^6 放大后向下取整，使用十进制精确运算。
// 每次调用生成新的 salt 和时间戳，所以同一意图构建两次得到的是两个不同订单。
func (b *OrderBuilder) Build(intent *types.OrderIntent, maker string) (*types.OrderPayload, error) {
	if intent == nil {
		return nil, fmt.Errorf("%w: intent is nil", types.ErrInvalidOrderIntent)
	}
	if strings.TrimSpace(intent.Instrument) == "" {
		return nil, fmt.Errorf("%w: instrument is empty", types.ErrInvalidOrderIntent)
	}
	if !intent.Quantity.IsPositive() {
		return nil, fmt.Errorf("%w: quantity must be > 0, got %s", types.ErrInvalidOrderIntent, intent.Quantity)
	}
	if intent.LimitPrice.IsNegative() {
		return nil, fmt.Errorf("%w: limit price must be >= 0, got %s", types.ErrInvalidOrderIntent, intent.LimitPrice)
	}
	if maker == "" {
		return nil, fmt.Errorf("%w: maker address is empty", types.ErrInvalidOrderIntent)
	}

	salt, err := b.salt()
	if err != nil {
		return nil, fmt.Errorf("生成 salt 失败: %w", err)
	}

	return &types.OrderPayload{
		Instrument: intent.Instrument,
		Maker:      maker,
		IsBuy:      intent.IsBuy,
		Amount:     ScaleUnits(intent.Quantity),
		LimitPrice: ScaleUnits(intent.LimitPrice),
		Salt:       salt.String(),
		PostOnly:   intent.PostOnly,
		Timestamp:  b.now().Unix(),
	}, nil
}

// ScaleUnits 按 10^6 放大并向下取整，输出十进制整数字符串
func ScaleUnits(d decimal.Decimal) string {
	// 入参非负，BigInt 的截断即 floor
	return d.Shift(PriceDecimals).BigInt().String()
}

func randomSalt() (*big.Int, error) {
	return rand.Int(rand.Reader, saltUpperBound)
}
