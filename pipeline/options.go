package pipeline

import (
	"context"

	"github.com/hrops-ai/copilot/evidence"
	"github.com/hrops-ai/copilot/llm"
)

// DocumentStore is the retrieval collaborator: ranked fragments with
// provenance for a query.
type DocumentStore interface {
	Search(ctx context.Context, query string, k int) ([]evidence.Fragment, error)
}

// Cache stores completed results keyed by normalized question, letting
// repeated questions skip the whole workflow.
type Cache interface {
	Get(ctx context.Context, question string) (*Result, bool, error)
	Set(ctx context.Context, question string, result *Result) error
}

// RunRecorder persists finished runs for observability. Recording failures
// are logged, never surfaced to the caller.
type RunRecorder interface {
	RecordRun(ctx context.Context, result *Result) error
}

// TokenCounter backfills token counts when a provider reports none.
type TokenCounter interface {
	CountTokens(text string) int
}

// Config groups the pipeline knobs. Construct via options; there is no
// ambient global configuration.
type Config struct {
	K           int     // fragments requested from the document store
	CompanyName string  // substituted into deliverables and placeholders
	Temperature float64 // writer sampling temperature

	Filter evidence.FilterConfig

	opinion  llm.Client
	cache    Cache
	recorder RunRecorder
	counter  TokenCounter
}

func defaultConfig() *Config {
	return &Config{
		K:           6,
		CompanyName: "Your Company",
		Temperature: 0.1,
		Filter:      evidence.DefaultFilterConfig(),
	}
}

// Option customizes the pipeline configuration.
type Option func(*Config)

// WithK sets how many fragments each question retrieves.
func WithK(k int) Option {
	return func(cfg *Config) {
		if k > 0 {
			cfg.K = k
		}
	}
}

// WithCompanyName sets the client name used in deliverables.
func WithCompanyName(name string) Option {
	return func(cfg *Config) {
		if name != "" {
			cfg.CompanyName = name
		}
	}
}

// WithTemperature sets the writer sampling temperature.
func WithTemperature(t float64) Option {
	return func(cfg *Config) {
		if t >= 0 {
			cfg.Temperature = t
		}
	}
}

// WithFilterConfig overrides the evidence admissibility configuration.
func WithFilterConfig(fc evidence.FilterConfig) Option {
	return func(cfg *Config) {
		cfg.Filter = fc
	}
}

// WithVerifierOpinion enables the LLM second opinion during verification.
// Heuristic failures remain final regardless of the opinion.
func WithVerifierOpinion(client llm.Client) Option {
	return func(cfg *Config) {
		cfg.opinion = client
	}
}

// WithCache installs an answer cache consulted before each run.
func WithCache(c Cache) Option {
	return func(cfg *Config) {
		cfg.cache = c
	}
}

// WithRunRecorder installs an audit store that receives every finished run.
func WithRunRecorder(r RunRecorder) Option {
	return func(cfg *Config) {
		cfg.recorder = r
	}
}

// WithTokenCounter installs a local tokenizer used to backfill token usage
// when the provider does not report it.
func WithTokenCounter(tc TokenCounter) Option {
	return func(cfg *Config) {
		cfg.counter = tc
	}
}

func applyOptions(opts []Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}
