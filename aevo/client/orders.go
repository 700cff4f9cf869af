package client

import (
	"context"
	"fmt"

	"github.com/betbot/goaevo/aevo/signing"
	"github.com/betbot/goaevo/aevo/types"
	"github.com/betbot/goaevo/internal/metrics"
	"github.com/sirupsen/logrus"
)

// BuildOrder 用客户端的 maker 地址构建订单载荷
func (c *Client) BuildOrder(intent *types.OrderIntent) (*types.OrderPayload, error) {
	maker, err := c.MakerAddress()
	if err != nil {
		return nil, err
	}
	return c.builder.Build(intent, maker)
}

// SignOrder 用签名私钥在当前环境的签名域下签名
func (c *Client) SignOrder(payload *types.OrderPayload) (string, error) {
	key, err := c.signingKey()
	if err != nil {
		return "", err
	}
	sig, err := signing.SignOrder(key, c.envConfig.Domain, payload)
	if err != nil {
		return "", err
	}
	metrics.OrdersSigned.Add(1)
	return sig, nil
}

// CreateOrderPayload 构建并签名订单，不提交
func (c *Client) CreateOrderPayload(intent *types.OrderIntent) (*types.SignedOrder, error) {
	payload, err := c.BuildOrder(intent)
	if err != nil {
		return nil, err
	}
	sig, err := c.SignOrder(payload)
	if err != nil {
		return nil, err
	}
	return &types.SignedOrder{OrderPayload: *payload, Signature: sig}, nil
}

// SubmitOrder 提交已签名订单（POST /orders），失败不重试
func (c *Client) SubmitOrder(ctx context.Context, payload *types.OrderPayload, signature string) (*types.OrderResponse, error) {
	if payload == nil {
		return nil, fmt.Errorf("%w: payload is nil", types.ErrInvalidOrderIntent)
	}
	if signature == "" {
		return nil, &types.SigningError{Field: "signature", Err: fmt.Errorf("missing")}
	}

	body := types.SignedOrder{OrderPayload: *payload, Signature: signature}
	metrics.RestRequests.Add(1)

	var resp types.OrderResponse
	err := c.http.post(ctx, EndpointOrders, &requestOptions{Headers: c.restHeaders, Body: body}, &resp)
	if err != nil {
		c.record(ctx, &body, nil, err)
		metrics.RestErrors.Add(1)
		c.logger.WithFields(logrus.Fields{
			"instrument": payload.Instrument,
			"salt":       payload.Salt,
		}).Warnf("下单失败: %v", err)
		return nil, err
	}

	metrics.OrdersSubmitted.Add(1)
	c.record(ctx, &body, &resp, nil)
	c.logger.WithFields(logrus.Fields{
		"instrument": payload.Instrument,
		"order_id":   resp.OrderID,
		"is_buy":     payload.IsBuy,
		"amount":     payload.Amount,
		"price":      payload.LimitPrice,
	}).Info("订单已提交")
	return &resp, nil
}

// CreateOrder 构建、签名并提交订单
func (c *Client) CreateOrder(ctx context.Context, intent *types.OrderIntent) (*types.OrderResponse, error) {
	signed, err := c.CreateOrderPayload(intent)
	if err != nil {
		return nil, err
	}
	return c.SubmitOrder(ctx, &signed.OrderPayload, signed.Signature)
}

// record 写订单流水，失败只记日志
func (c *Client) record(ctx context.Context, order *types.SignedOrder, resp *types.OrderResponse, submitErr error) {
	if c.recorder == nil {
		return
	}
	if err := c.recorder.RecordOrder(context.WithoutCancel(ctx), c.env, order, resp, submitErr); err != nil {
		c.logger.Warnf("写订单流水失败: %v", err)
	}
}
