package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Options configures an outbound client.
type Options struct {
	Timeout  time.Duration
	RetryMax int // 0 disables retries
	Logger   *zap.Logger
}

// New returns a retrying client. Retries apply to connection errors and 5xx
// responses of GET requests only; anything else is attempted once.
func New(opts Options) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.RetryMax = opts.RetryMax
	c.RetryWaitMin = 100 * time.Millisecond
	c.RetryWaitMax = 1 * time.Second
	if opts.Timeout > 0 {
		c.HTTPClient.Timeout = opts.Timeout
	}
	if opts.Logger != nil {
		c.Logger = zapLeveled{s: opts.Logger.Sugar()}
	} else {
		c.Logger = nil
	}
	c.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if resp != nil && resp.Request != nil && resp.Request.Method != http.MethodGet {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	// Hand the last response back to the caller instead of a generic
	// "giving up" error so status codes stay visible.
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return c
}

// ReadBody drains and closes the response body, failing on non-2xx status.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, fmt.Errorf("http request failed with status %d: %s", resp.StatusCode, truncate(body, 256))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// zapLeveled adapts zap to retryablehttp.LeveledLogger.
type zapLeveled struct {
	s *zap.SugaredLogger
}

func (l zapLeveled) Error(msg string, keysAndValues ...interface{}) { l.s.Errorw(msg, keysAndValues...) }
func (l zapLeveled) Warn(msg string, keysAndValues ...interface{})  { l.s.Warnw(msg, keysAndValues...) }
func (l zapLeveled) Info(msg string, keysAndValues ...interface{})  { l.s.Debugw(msg, keysAndValues...) }
func (l zapLeveled) Debug(msg string, keysAndValues ...interface{}) { l.s.Debugw(msg, keysAndValues...) }
