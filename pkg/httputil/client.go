package httputil

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/popmap/pkg/buildinfo"
	"github.com/matzehuels/popmap/pkg/errors"
	"github.com/matzehuels/popmap/pkg/observability"
)

// Defaults for [NewClient].
const (
	DefaultAttempts    = 3
	DefaultDelay       = time.Second
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = 64 << 20
)

// Client fetches source payloads over HTTP with retry and status mapping.
type Client struct {
	http    *http.Client
	headers map[string]string
	backoff Backoff
	maxBody int64
}

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the timeout of a single request attempt.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetry sets the attempt count and the initial backoff delay. The wait
// is capped at eight times delay.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		c.backoff = Backoff{Attempts: attempts, Delay: delay, MaxDelay: 8 * delay}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithMaxBodySize limits the accepted response size in bytes.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) { c.maxBody = n }
}

// NewClient returns a Client with a 30s per-attempt timeout, 3 attempts and
// a popmap User-Agent.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		headers: map[string]string{"User-Agent": buildinfo.UserAgent()},
		backoff: DefaultBackoff,
		maxBody: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches url and returns the response body. Transport failures, 429
// and 5xx responses are retried. 404 yields NOT_FOUND, other non-200
// statuses NETWORK_ERROR, an expired context TIMEOUT.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.backoff.Do(ctx, func(attempt int) error {
		if attempt > 0 {
			observability.HTTP().OnRetry(ctx, url, attempt)
		}
		b, err := c.doRequest(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err == nil {
		return body, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		if ctxErr == context.DeadlineExceeded {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctxErr, "fetch %s", url)
		}
		return nil, ctxErr
	}
	return nil, err
}

func (c *Client) doRequest(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidSource, err, "bad url %q", url)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, Transient(errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", url))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(url, resp); err != nil {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, Transient(errors.Wrap(errors.ErrCodeNetwork, err, "read %s", url))
	}
	if int64(len(data)) > c.maxBody {
		return nil, errors.New(errors.ErrCodeInvalidSource, "%s exceeds %d bytes", url, c.maxBody)
	}
	return data, nil
}

func checkStatus(url string, resp *http.Response) error {
	switch code := resp.StatusCode; {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s not found", url)
	case code == http.StatusTooManyRequests || code >= 500:
		return &TransientError{
			Err:   errors.New(errors.ErrCodeNetwork, "fetch %s: status %d", url, code),
			After: retryAfter(resp.Header),
		}
	default:
		return errors.New(errors.ErrCodeNetwork, "fetch %s: status %d", url, code)
	}
}
