package spotify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cratebot/cratebot/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.spotify.com/v1"

	// defaultRetryAfter applies when a 429 omits the Retry-After header.
	defaultRetryAfter = time.Second

	// defaultAcquireWait bounds how long a caller waits for the client
	// before failing with shared.ErrBusy.
	defaultAcquireWait = 5 * time.Second

	// defaultRequestsPerSecond paces outbound requests client-side.
	defaultRequestsPerSecond = 5
)

// Client performs authenticated Spotify Web API calls with retry, backoff,
// and rate-limit handling. All external API traffic flows through it, and
// one logical operation holds it at a time so token refreshes and rate-limit
// delays observed by one caller are visible to the next.
type Client struct {
	httpClient  *http.Client
	tokens      *TokenManager
	policy      Policy
	limiter     *rate.Limiter
	logger      *log.Logger
	baseURL     string
	acquireWait time.Duration

	// sem serializes logical operations; acquisition is bounded.
	sem chan struct{}

	// sleep suspends the calling goroutine between attempts; injectable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRateLimit overrides the client-side pacing, in requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), 1) }
}

// NewClient creates a Client using the given token manager and retry policy.
func NewClient(tokens *TokenManager, policy Policy, logger *log.Logger, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		tokens:      tokens,
		policy:      policy,
		limiter:     rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), 1),
		logger:      shared.WithLogger(logger, "component", "spotify_client"),
		baseURL:     defaultBaseURL,
		acquireWait: defaultAcquireWait,
		sem:         make(chan struct{}, 1),
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request against the API and decodes the response into result.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// do runs one logical API operation: acquire the client, then loop
// attempts of token validation, request, classification, and backoff until
// success, a non-retryable error, or attempt exhaustion.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	if err := c.acquire(ctx); err != nil {
		return err
	}
	defer c.release()

	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		payload = data
	}

	for attempt := 1; ; attempt++ {
		err := c.attempt(ctx, method, path, payload, result)
		if err == nil {
			return nil
		}

		classified, ok := err.(*APIError)
		if !ok {
			// Auth failures, context cancellation, request construction
			return err
		}
		if !classified.Retryable() {
			return classified
		}
		if attempt >= c.policy.MaxAttempts {
			c.logger.Error("max retry attempts reached", "method", method, "path", path, "attempts", attempt)
			return classified
		}

		if classified.Kind == KindTokenExpired {
			// Re-validation on the next attempt performs the forced refresh
			c.tokens.Invalidate()
		}

		delay := c.policy.Delay(attempt)
		if classified.Kind == KindRateLimited {
			delay = classified.RetryAfter
		}

		c.logger.Debug("retrying request",
			"method", method, "path", path,
			"attempt", attempt, "max_attempts", c.policy.MaxAttempts,
			"kind", classified.Kind.String(), "delay", delay)

		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// attempt performs a single token-validated request and classifies the outcome.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, result any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	return c.classify(resp, result)
}

// classify maps a response onto a typed outcome. The error category is
// decided here, at the point of origin, so no caller ever has to infer it
// from message text.
func (c *Client) classify(resp *http.Response, result any) error {
	status := resp.StatusCode

	switch {
	case status == http.StatusOK || status == http.StatusCreated:
		if result == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return &APIError{Kind: KindBadPayload, Status: status, Message: "failed to decode response", Err: err}
		}
		return nil

	case status == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		return &APIError{Kind: KindTokenExpired, Status: status}

	case status == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return &APIError{Kind: KindRateLimited, Status: status, RetryAfter: retryAfter(resp)}

	case status >= 500 || status == http.StatusRequestTimeout:
		return &APIError{Kind: KindServerError, Status: status, Message: readBody(resp)}

	case status == http.StatusForbidden:
		return &APIError{Kind: KindAccessDenied, Status: status, Message: readBody(resp)}

	case status == http.StatusNotFound:
		return &APIError{Kind: KindNotFound, Status: status, Message: readBody(resp)}

	default:
		return &APIError{Kind: KindRejected, Status: status, Message: readBody(resp)}
	}
}

// acquire takes the client semaphore, waiting at most acquireWait.
func (c *Client) acquire(ctx context.Context) error {
	timer := time.NewTimer(c.acquireWait)
	defer timer.Stop()

	select {
	case c.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("%w: operation in progress did not finish within %s", shared.ErrBusy, c.acquireWait)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	<-c.sem
}

// retryAfter parses the Retry-After header in seconds, defaulting to one second.
func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultRetryAfter
}

func readBody(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return string(body)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
