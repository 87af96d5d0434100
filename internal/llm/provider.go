// Package llm provides the single point through which all generative calls
// pass: a narrow Provider contract, a response cache keyed by prompt hash,
// and two concrete provider backends (OpenAI, Gemini).
package llm

import "context"

// Provider is the narrow interface every text-generation backend
// implements. The Client wraps a Provider with caching, retry, and the
// health-check contract — components never talk to a Provider directly.
type Provider interface {
	// Complete generates text for prompt.
	Complete(ctx context.Context, prompt string) (string, error)
	// Name identifies the provider for logging. The response cache key
	// does not include it.
	Name() string
}

// Config selects and configures a provider backend.
type Config struct {
	Backend string // "openai" or "gemini"
	APIKey  string
	BaseURL string
	Model   string
	// CacheTTLSeconds is not read by NewProvider; the response cache's
	// TTL is the one passed to NewClient.
	CacheTTLSeconds int
}

// NewProvider constructs the configured Provider backend. This is the one
// place a new backend is wired in, per the closed-tagged-variant pattern
// (spec §9 DESIGN NOTES).
func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Backend {
	case "openai", "":
		return newOpenAIProvider(cfg)
	case "gemini":
		return newGenAIProvider(cfg)
	default:
		return nil, ErrUnknownBackend
	}
}
