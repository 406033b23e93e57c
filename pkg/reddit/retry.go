package reddit

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Outbound call policy. The original client relied on platform defaults;
// here timeouts and a single bounded retry are explicit.
const (
	defaultRequestTimeout = 10 * time.Second
	defaultMaxRetries     = 1
	defaultRetryDelay     = 500 * time.Millisecond
)

// RetryableChecker determines if an error or response should trigger a retry.
type RetryableChecker func(err error, resp *http.Response) bool

// retryClient is an HTTP client with a bounded retry for transient failures.
type retryClient struct {
	maxRetries int
	retryDelay time.Duration
	httpClient *http.Client
	checker    RetryableChecker
}

func newRetryClient(httpClient *http.Client, maxRetries int, checker RetryableChecker) *retryClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	if checker == nil {
		checker = DefaultRetryableChecker
	}
	return &retryClient{
		maxRetries: maxRetries,
		retryDelay: defaultRetryDelay,
		httpClient: httpClient,
		checker:    checker,
	}
}

// DefaultRetryableChecker retries on transport errors, 5xx responses and
// 429 Too Many Requests.
func DefaultRetryableChecker(err error, resp *http.Response) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
}

// TransportOnlyChecker retries on transport errors only. Used for the token
// exchange, where a definitive upstream answer must never be replayed.
func TransportOnlyChecker(err error, resp *http.Response) bool {
	return err != nil
}

// Do executes the request, retrying at most maxRetries times. The request
// must have a rewindable body (GetBody set) when retries are possible.
func (c *retryClient) Do(req *http.Request) (*http.Response, error) {
	var lastErr error
	var resp *http.Response

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(c.retryDelay):
			}

			if req.Body != nil {
				if req.GetBody == nil {
					break
				}
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("failed to rewind request body: %w", err)
				}
				req.Body = body
			}
		}

		resp, lastErr = c.httpClient.Do(req)
		if !c.checker(lastErr, resp) {
			return resp, lastErr
		}

		// Drain and close so the connection can be reused before retrying.
		if resp != nil && attempt < c.maxRetries {
			resp.Body.Close()
		}
	}

	if lastErr != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", c.maxRetries+1, lastErr)
	}
	return resp, nil
}

// requestWithContext builds a request honoring the per-call timeout when the
// caller's context has no deadline of its own.
func contextWithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
