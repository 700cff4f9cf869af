package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/betbot/goaevo/aevo/types"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	userAgent          = "goaevo"
	maxErrorBodyLen    = 2048
)

// httpClient REST 传输封装
//
// 不做自动重试：下单不是幂等操作，重试策略交给调用方。
type httpClient struct {
	client *resty.Client
	logger *logrus.Entry
}

// newHTTPClient 创建 HTTP 客户端；proxyURL 为空时 resty 会读取 HTTP_PROXY 等环境变量
func newHTTPClient(host string, timeout time.Duration, proxyURL string, logger *logrus.Entry) *httpClient {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	c := resty.New().
		SetBaseURL(strings.TrimSuffix(host, "/")).
		SetTimeout(timeout).
		SetRetryCount(0)
	if proxyURL != "" {
		c.SetProxy(proxyURL)
	}
	return &httpClient{client: c, logger: logger}
}

// requestOptions 单次请求参数
type requestOptions struct {
	Headers map[string]string
	Params  map[string]string
	Body    any
}

// do 执行请求并把 2xx 响应解码到 out；其余情况统一返回 *types.RestError
func (h *httpClient) do(ctx context.Context, method, endpoint string, opt *requestOptions, out any) error {
	r := h.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	if opt != nil {
		// Headers 已经是合并好的（鉴权头在最后），这里原样写入
		r.SetHeaders(opt.Headers)
		if len(opt.Params) > 0 {
			r.SetQueryParams(opt.Params)
		}
		if opt.Body != nil {
			r.SetHeader("Content-Type", "application/json")
			r.SetBody(opt.Body)
		}
	}

	start := time.Now()
	resp, err := r.Execute(method, endpoint)
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"method":   method,
			"endpoint": endpoint,
		}).Warnf("REST 请求失败: %v", err)
		return &types.RestError{
			Method:   method,
			Endpoint: endpoint,
			Err:      errors.Wrapf(err, "%s %s", method, endpoint),
		}
	}

	h.logger.WithFields(logrus.Fields{
		"method":   method,
		"endpoint": endpoint,
		"status":   resp.StatusCode(),
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Debug("REST 请求完成")

	if !resp.IsSuccess() {
		return &types.RestError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode(),
			Body:       truncate(string(resp.Body()), maxErrorBodyLen),
			Err:        errors.Errorf("unexpected status %d", resp.StatusCode()),
		}
	}

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return &types.RestError{
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode(),
			Body:       truncate(string(resp.Body()), maxErrorBodyLen),
			Err:        errors.Wrap(err, "decode response"),
		}
	}
	return nil
}

func (h *httpClient) get(ctx context.Context, endpoint string, opt *requestOptions, out any) error {
	return h.do(ctx, http.MethodGet, endpoint, opt, out)
}

func (h *httpClient) post(ctx context.Context, endpoint string, opt *requestOptions, out any) error {
	return h.do(ctx, http.MethodPost, endpoint, opt, out)
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
