package whttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sentiview/sentiview/internal/utils"
)

const userAgent = "sentiview/1.0"

type WHTTPReq struct {
	URL    string
	Method string
	// Body is encoded as JSON when non-nil.
	Body interface{}
}

type WHTTPRes struct {
	StatusCode int
	// Status is the reason phrase without the numeric code, e.g. "Not Found".
	Status string
	Body   []byte
}

// OK reports whether the status is in the 2xx range.
func (r *WHTTPRes) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// NewClient returns a retryablehttp client that, with retries = 0, issues
// exactly one attempt per request. Non-2xx responses are handed back to the
// caller unchanged instead of being turned into a "giving up" error.
func NewClient(retries int) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	if retries < 0 {
		retries = 0
	}
	c.RetryMax = retries
	c.CheckRetry = checkRetry
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.Logger = leveledLogger{}
	return c
}

// checkRetry keeps the default retry decision but drops the synthetic
// "unexpected HTTP status" error, so an exhausted 5xx still reaches the
// caller as a response with its status.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	retry, _ := retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	return retry, nil
}

// SendHTTPRequest performs wReq and reads the full response body.
func SendHTTPRequest(ctx context.Context, wReq *WHTTPReq, client *retryablehttp.Client) (*WHTTPRes, error) {
	var body interface{}
	if wReq.Body != nil {
		b, err := json.Marshal(wReq.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = b
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, wReq.Method, wReq.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, resp.Body); err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &WHTTPRes{
		StatusCode: resp.StatusCode,
		Status:     reasonPhrase(resp),
		Body:       buf.Bytes(),
	}, nil
}

func reasonPhrase(resp *http.Response) string {
	s := strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
	if s == "" {
		s = http.StatusText(resp.StatusCode)
	}
	return s
}

// leveledLogger routes retryablehttp output to the shared logrus logger.
type leveledLogger struct{}

func (leveledLogger) Error(msg string, kv ...interface{}) {
	utils.Log.WithFields(fields(kv)).Error("[http] " + msg)
}

func (leveledLogger) Info(msg string, kv ...interface{}) {
	utils.Log.WithFields(fields(kv)).Debug("[http] " + msg)
}

func (leveledLogger) Debug(msg string, kv ...interface{}) {
	utils.Log.WithFields(fields(kv)).Debug("[http] " + msg)
}

func (leveledLogger) Warn(msg string, kv ...interface{}) {
	utils.Log.WithFields(fields(kv)).Warn("[http] " + msg)
}

func fields(kv []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return out
}
