// Package sentiment is a client for the remote sentiment-analysis API.
package sentiment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sentiview/sentiview/pkg/whttp"
)

var ErrNoItems = errors.New("batch has no items")

// Client issues one request per call; there are no retries and no client
// side timeout unless configured through options.
type Client struct {
	base string
	http *retryablehttp.Client
}

type Option func(*Client)

// WithTimeout bounds each attempt. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http.HTTPClient.Timeout = d
		}
	}
}

// WithRetries sets the retry budget. The default is zero.
func WithRetries(n int) Option {
	return func(cl *Client) {
		if n < 0 {
			n = 0
		}
		cl.http.RetryMax = n
	}
}

// New returns a client for base. Trailing slashes on base are dropped.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base: NormalizeBase(base),
		http: whttp.NewClient(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeBase strips trailing slashes so paths can be appended directly.
func NormalizeBase(base string) string {
	return strings.TrimRight(strings.TrimSpace(base), "/")
}

// Analyze scores a single text.
func (c *Client) Analyze(ctx context.Context, text string) (*Result, error) {
	body, err := c.post(ctx, "/analyze", analyzeRequest{Text: text})
	if err != nil {
		return nil, err
	}
	return decodeResult(body)
}

// AnalyzeBatch scores items in one request. Results are returned in the
// order the API sent them and must line up with items by position.
func (c *Client) AnalyzeBatch(ctx context.Context, items []BatchItem) (*BatchResponse, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	body, err := c.post(ctx, "/batch", batchRequest{Items: items})
	if err != nil {
		return nil, err
	}
	resp, err := decodeBatch(body)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) != len(items) {
		return nil, &DecodeError{
			Field:  "results",
			Reason: fmt.Sprintf("expected %d results, got %d", len(items), len(resp.Results)),
		}
	}
	return resp, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	res, err := whttp.SendHTTPRequest(ctx, &whttp.WHTTPReq{
		Method: http.MethodPost,
		URL:    c.base + path,
		Body:   payload,
	}, c.http)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", path, err)
	}
	if !res.OK() {
		return nil, &HTTPError{Status: res.StatusCode, StatusText: res.Status}
	}
	return res.Body, nil
}
