package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultCacheTTL is the documented zero-config default (spec §6).
const DefaultCacheTTL = 300 * time.Second

// Client wraps a Provider with response caching and bounded retry. It is
// the sole entry point for generative calls named C1 in the component
// table (spec §2, §4.1).
type Client struct {
	provider Provider
	cache    *cache
	logger   *slog.Logger
	now      func() time.Time
	maxRetry uint64
}

// NewClient constructs a Client. now defaults to time.Now; tests may
// override it through NewClientWithClock.
func NewClient(provider Provider, ttl time.Duration, logger *slog.Logger) *Client {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Client{
		provider: provider,
		cache:    newCache(ttl),
		logger:   logger,
		now:      time.Now,
		maxRetry: 3,
	}
}

// NewClientWithClock is NewClient with an injectable clock, for
// deterministic TTL-expiry tests.
func NewClientWithClock(provider Provider, ttl time.Duration, logger *slog.Logger, now func() time.Time) *Client {
	c := NewClient(provider, ttl, logger)
	c.now = now
	return c
}

// Generate returns the cached response for prompt if present and fresh;
// otherwise it delegates to the provider (with bounded retry) and caches
// the result (spec §4.1 "Lookup contract").
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	now := c.now()
	if resp, ok := c.cache.get(prompt, now); ok {
		c.logger.Debug("llm cache hit", "provider", c.provider.Name())
		return resp, nil
	}

	resp, err := c.GenerateUncached(ctx, prompt)
	if err != nil {
		return "", err
	}

	c.cache.put(prompt, resp, now)
	return resp, nil
}

// GenerateUncached bypasses the cache entirely, for sensitive prompts such
// as clarification synthesis that may carry user PII (spec §4.1).
func (c *Client) GenerateUncached(ctx context.Context, prompt string) (string, error) {
	var resp string

	op := func() error {
		var err error
		resp, err = c.provider.Complete(ctx, prompt)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetry), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return "", fmt.Errorf("%s: %w", c.provider.Name(), err)
	}
	return resp, nil
}

// HealthCheck verifies the provider is reachable with a minimal prompt.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.provider.Complete(ctx, "ping")
	return err
}

// CacheSize reports the current cache entry count (diagnostics, tests).
func (c *Client) CacheSize() int {
	return c.cache.size()
}
