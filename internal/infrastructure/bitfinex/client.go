package bitfinex

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "bitfinex")

// Client wraps the Bitfinex v1 REST API with the subset of calls the
// reconciliation engine needs: balances, open orders, tickers and the
// order submit/cancel/status primitives.
type Client struct {
	http      *resty.Client
	apiKey    string
	apiSecret string
	nonce     atomic.Int64
}

type Config struct {
	BaseURL   string
	APIKey    string
	APISecret string
}

func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.bitfinex.com"
	}
	base = strings.TrimSuffix(base, "/")

	// resty 会自动从环境变量读取代理配置（HTTP_PROXY, HTTPS_PROXY）
	http := resty.New().
		SetBaseURL(base).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			// 429 限流时优先使用 Retry-After 头
			if resp.StatusCode() == 429 {
				if retryAfter := resp.Header().Get("Retry-After"); retryAfter != "" {
					if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
						return seconds, nil
					}
				}
				return 10 * time.Second, nil
			}
			return 0, nil
		})

	c := &Client{
		http:      http,
		apiKey:    cfg.APIKey,
		apiSecret: cfg.APISecret,
	}
	c.nonce.Store(time.Now().UnixNano())
	return c
}

// signedPost 按 v1 认证协议发出请求：payload 做 base64 后用
// HMAC-SHA384 签名，随 X-BFX-* 头一起提交。
func (c *Client) signedPost(ctx context.Context, endpoint string, body map[string]any, out any) error {
	payload := map[string]any{
		"request": endpoint,
		"nonce":   fmt.Sprintf("%d", c.nonce.Add(1)),
	}
	for k, v := range body {
		payload[k] = v
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	mac := hmac.New(sha512.New384, []byte(c.apiSecret))
	mac.Write([]byte(encoded))
	signature := hex.EncodeToString(mac.Sum(nil))

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("X-BFX-APIKEY", c.apiKey).
		SetHeader("X-BFX-PAYLOAD", encoded).
		SetHeader("X-BFX-SIGNATURE", signature).
		SetResult(out).
		Post(endpoint)
	if err != nil {
		return errors.Wrapf(err, "POST %s", endpoint)
	}
	if resp.IsError() {
		return errors.Errorf("POST %s: http %d: %s", endpoint, resp.StatusCode(), resp.String())
	}
	return nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(out).
		Get(endpoint)
	if err != nil {
		return errors.Wrapf(err, "GET %s", endpoint)
	}
	if resp.IsError() {
		return errors.Errorf("GET %s: http %d: %s", endpoint, resp.StatusCode(), resp.String())
	}
	return nil
}
