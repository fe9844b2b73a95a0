package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	DefaultTimeout   = 30 * time.Second
	defaultUserAgent = "polyrelay/1.0"
)

type Client struct {
	client *resty.Client
}

type Option func(*resty.Client)

// WithTimeout 设置单次请求超时
func WithTimeout(d time.Duration) Option {
	return func(c *resty.Client) {
		if d > 0 {
			c.SetTimeout(d)
		}
	}
}

// WithRetry 开启 resty 自动重试（默认关闭：重试策略交给调用方）
func WithRetry(count int, wait, maxWait time.Duration) Option {
	return func(c *resty.Client) {
		c.SetRetryCount(count).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(maxWait)
	}
}

func NewClient(host string, opts ...Option) *Client {
	host = strings.TrimRight(host, "/")

	// resty 会自动从环境变量读取代理配置（HTTP_PROXY, HTTPS_PROXY）
	client := resty.New().
		SetBaseURL(host).
		SetTimeout(DefaultTimeout).
		SetRetryCount(0)
	for _, opt := range opts {
		opt(client)
	}
	return &Client{client: client}
}

// BaseURL 返回去掉末尾 '/' 的 host
func (c *Client) BaseURL() string {
	return c.client.BaseURL
}

type RequestOptions struct {
	Headers map[string]string
	Data    any
	Params  map[string]any
}

// 仅设置本次请求的默认 Header（不要再改 client 级 Header）
func (c *Client) newRequest(ctx context.Context) *resty.Request {
	r := c.client.R()
	if ctx != nil {
		r.SetContext(ctx)
	}
	r.SetHeader("Accept", "application/json")
	r.SetHeader("User-Agent", defaultUserAgent)
	return r
}

// DoRequest 发送请求；out 非空时把 2xx 响应按 JSON 解码进 out。
// 非 2xx 返回 *StatusError，网络错误原样包装返回。
func (c *Client) DoRequest(ctx context.Context, method, endpoint string, opt *RequestOptions, out any) (*resty.Response, error) {
	rc := c.newRequest(ctx)
	if opt != nil {
		for k, v := range opt.Headers {
			rc.SetHeader(k, v)
		}
		if opt.Params != nil {
			rc.SetQueryParamsFromValues(toValues(opt.Params))
		}
		if opt.Data != nil {
			// string / []byte 原样发送，保证与 HMAC 签名的 body 完全一致
			rc.SetHeader("Content-Type", "application/json")
			rc.SetBody(opt.Data)
		}
	}
	var (
		resp *resty.Response
		err  error
	)
	switch strings.ToUpper(method) {
	case http.MethodGet:
		resp, err = rc.Get(endpoint)
	case http.MethodPost:
		resp, err = rc.Post(endpoint)
	case http.MethodDelete:
		resp, err = rc.Delete(endpoint)
	case http.MethodPut:
		resp, err = rc.Put(endpoint)
	default:
		return nil, fmt.Errorf("unsupported method: %s", method)
	}
	if err := ParseHTTPError(method, endpoint, resp, err); err != nil {
		return resp, err
	}
	// 不依赖响应的 Content-Type，直接按 JSON 解码
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return resp, errors.Wrapf(err, "decode %s %s response", method, endpoint)
		}
	}
	return resp, nil
}

func toValues(m map[string]any) map[string][]string {
	v := make(map[string][]string, len(m))
	for k, val := range m {
		switch t := val.(type) {
		case []string:
			v[k] = t
		default:
			v[k] = []string{fmt.Sprint(val)}
		}
	}
	return v
}

// StatusError 非 2xx 响应，Body 为原始响应文本
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// ParseHTTPError 把 resty 的结果归一成 error
func ParseHTTPError(method, endpoint string, resp *resty.Response, err error) error {
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, endpoint)
	}
	if resp == nil || resp.IsSuccess() {
		return nil
	}
	path := endpoint
	if resp.Request != nil && resp.Request.RawRequest != nil && resp.Request.RawRequest.URL != nil {
		path = resp.Request.RawRequest.URL.Path
	}
	return &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: resp.StatusCode(),
		Body:       string(resp.Body()),
	}
}
