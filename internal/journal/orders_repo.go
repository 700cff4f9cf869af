package journal

import (
	"context"
	"errors"
	"time"

	"github.com/betbot/goaevo/aevo/types"
)

// Entry 一条订单流水
type Entry struct {
	ID          int64
	Environment types.Environment
	Order       types.SignedOrder
	OrderID     string
	OrderStatus string
	HTTPStatus  int
	Error       string
	CreatedAt   time.Time
}

// Accepted 交易所是否接受了该订单
func (e Entry) Accepted() bool {
	return e.Error == "" && e.OrderID != ""
}

// RecordOrder 记录一次提交结果；同一 (环境, maker, salt) 重复提交时覆盖为最新结果
func (j *Journal) RecordOrder(ctx context.Context, env types.Environment, order *types.SignedOrder, resp *types.OrderResponse, submitErr error) error {
	if order == nil {
		return errors.New("order is nil")
	}

	var orderID, status, errText string
	var httpStatus int
	if resp != nil {
		orderID, status = resp.OrderID, resp.OrderStatus
	}
	if submitErr != nil {
		errText = submitErr.Error()
		var restErr *types.RestError
		if errors.As(submitErr, &restErr) {
			httpStatus = restErr.StatusCode
		}
	}

	_, err := j.db.ExecContext(ctx, `
INSERT INTO orders (environment,instrument,maker,is_buy,amount,limit_price,salt,post_only,order_ts,signature,order_id,order_status,http_status,error,created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
ON CONFLICT(environment,maker,salt) DO UPDATE SET
  order_id=excluded.order_id,
  order_status=excluded.order_status,
  http_status=excluded.http_status,
  error=excluded.error,
  created_at=excluded.created_at
`, string(env), order.Instrument, order.Maker, boolInt(order.IsBuy), order.Amount, order.LimitPrice, order.Salt,
		boolInt(order.PostOnly), order.Timestamp, order.Signature, orderID, status, httpStatus, errText,
		time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// Recent 最近 limit 条流水（新的在前）
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id,environment,instrument,maker,is_buy,amount,limit_price,salt,post_only,order_ts,signature,
       COALESCE(order_id,''),COALESCE(order_status,''),COALESCE(http_status,0),COALESCE(error,''),created_at
FROM orders ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var env, created string
		var isBuy, postOnly int
		if err := rows.Scan(&e.ID, &env, &e.Order.Instrument, &e.Order.Maker, &isBuy, &e.Order.Amount, &e.Order.LimitPrice,
			&e.Order.Salt, &postOnly, &e.Order.Timestamp, &e.Order.Signature,
			&e.OrderID, &e.OrderStatus, &e.HTTPStatus, &e.Error, &created); err != nil {
			return nil, err
		}
		e.Environment = types.Environment(env)
		e.Order.IsBuy = isBuy == 1
		e.Order.PostOnly = postOnly == 1
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
