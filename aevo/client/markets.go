package client

import (
	"context"
	"strings"

	"github.com/betbot/goaevo/aevo/types"
	"github.com/betbot/goaevo/internal/metrics"
)

// GetMarkets 获取市场列表，asset 为空时返回全部（GET /markets?asset=ETH）
func (c *Client) GetMarkets(ctx context.Context, asset string) ([]types.Market, error) {
	opt := &requestOptions{Headers: c.restHeaders}
	if asset = strings.TrimSpace(asset); asset != "" {
		opt.Params = map[string]string{"asset": strings.ToUpper(asset)}
	}

	metrics.RestRequests.Add(1)
	var markets []types.Market
	if err := c.http.get(ctx, EndpointMarkets, opt, &markets); err != nil {
		metrics.RestErrors.Add(1)
		return nil, err
	}
	return markets, nil
}
