package runner

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyDrain bounds how much of a response body is read before closing
const maxBodyDrain = 64 << 10

// Result is the outcome of checking one target
type Result struct {
	StatusCode int
	OK         bool
	Err        error
	Latency    time.Duration
}

// Checker checks a single target
type Checker interface {
	Check(ctx context.Context, target string) Result
}

// HTTPChecker issues a GET and treats 2xx and 3xx responses as healthy
type HTTPChecker struct {
	client *http.Client
}

// NewHTTPChecker creates a checker whose requests time out after timeout
func NewHTTPChecker(timeout time.Duration) *HTTPChecker {
	return &HTTPChecker{
		client: &http.Client{
			Timeout: timeout,
			// Redirects count as healthy; don't follow them off-host
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *HTTPChecker) Check(ctx context.Context, target string) Result {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Result{Err: fmt.Errorf("build request: %w", err), Latency: time.Since(start)}
	}
	req.Header.Set("User-Agent", "taskrunner-uptime/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{Err: err, Latency: time.Since(start)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyDrain))

	return Result{
		StatusCode: resp.StatusCode,
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 400,
		Latency:    time.Since(start),
	}
}
