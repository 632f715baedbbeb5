package offline

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// ClientConfig controls the outbound sync transport.
type ClientConfig struct {
	BaseURL   string
	AuthToken string
	Timeout   time.Duration // per-request, default 15s
	Retry     RetryConfig   // transport retries within one replay (zero uses defaults)
	RateLimit rate.Limit    // requests/sec across the drain, default 10
	Burst     int           // limiter burst, default 5
}

// GetRetryConfig returns Retry config or defaults if not set.
func (c ClientConfig) GetRetryConfig() RetryConfig {
	if c.Retry.MaxAttempts == 0 {
		return DefaultRetryConfig()
	}
	return c.Retry
}

// APIClient replays queue items against the Hub Chantier REST backend.
// It is the production SyncFunc: the reconciler hands it items and it
// answers accepted or not, never panicking past its boundary.
type APIClient struct {
	cfg     ClientConfig
	hc      *http.Client
	limiter *rate.Limiter
}

// NewAPIClient builds a client with optional timeout override. The rate
// limiter keeps a large queue drain from hammering a backend that just
// became reachable.
func NewAPIClient(cfg ClientConfig) *APIClient {
	to := cfg.Timeout
	if to == 0 {
		to = 15 * time.Second
	}
	limit := cfg.RateLimit
	if limit == 0 {
		limit = rate.Limit(10)
	}
	burst := cfg.Burst
	if burst == 0 {
		burst = 5
	}
	return &APIClient{
		cfg:     cfg,
		hc:      &http.Client{Timeout: to},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Configured reports whether the client can reach a backend at all.
func (c *APIClient) Configured() bool {
	return c.cfg.BaseURL != ""
}

// Replay sends one queue item to the backend. Transient failures (wire
// errors, 5xx, 429) are retried with capped backoff inside this call;
// any other 4xx is a permanent rejection of this attempt. The item id
// doubles as the idempotency key so a re-sent item after a partial
// failure is harmless server-side.
func (c *APIClient) Replay(ctx context.Context, item QueueItem) (bool, error) {
	if !c.Configured() {
		return false, ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	_, err := WithRetry(ctx, c.cfg.GetRetryConfig(), "replay", func() (struct{}, error) {
		return struct{}{}, c.attempt(ctx, item)
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// attempt performs a single HTTP exchange and classifies the outcome.
func (c *APIClient) attempt(ctx context.Context, item QueueItem) error {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(item.Endpoint, "/")

	var body *bytes.Reader
	if len(item.Payload) > 0 {
		body = bytes.NewReader(item.Payload)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, item.Method, url, body)
	if err != nil {
		return &ReplayError{ItemID: item.ID, Endpoint: item.Endpoint, Err: ErrRejected}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	req.Header.Set("X-Idempotency-Key", item.ID)

	resp, err := c.hc.Do(req)
	if err != nil {
		return &ReplayError{ItemID: item.ID, Endpoint: item.Endpoint, Err: fmt.Errorf("%w: %v", ErrNetworkFailure, err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &ReplayError{ItemID: item.ID, Endpoint: item.Endpoint, Status: resp.StatusCode, Err: ErrRateLimited}
	case resp.StatusCode >= 500:
		return &ReplayError{ItemID: item.ID, Endpoint: item.Endpoint, Status: resp.StatusCode, Err: ErrServerError}
	default:
		return &ReplayError{ItemID: item.ID, Endpoint: item.Endpoint, Status: resp.StatusCode, Err: ErrRejected}
	}
}

// SyncFunc adapts the client to the reconciler's contract.
func (c *APIClient) SyncFunc() SyncFunc {
	return func(ctx context.Context, item QueueItem) (bool, error) {
		return c.Replay(ctx, item)
	}
}
