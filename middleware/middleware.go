// Package middleware decorates llm.Client with cross-cutting behaviour:
// request logging and retry with backoff. Decorators compose outermost-first.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/hrops-ai/copilot/llm"
	"github.com/hrops-ai/copilot/pkg/logging"
)

// Middleware wraps an llm.Client with additional behaviour.
type Middleware func(llm.Client) llm.Client

// Chain applies middlewares so the first listed is the outermost.
func Chain(client llm.Client, middlewares ...Middleware) llm.Client {
	for i := len(middlewares) - 1; i >= 0; i-- {
		client = middlewares[i](client)
	}
	return client
}

type clientFunc func(ctx context.Context, req *llm.Request) (*llm.Response, error)

func (f clientFunc) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	return f(ctx, req)
}

// WithLogging logs each completion call with timing and token usage.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = logging.WithComponent("llm")
	}
	return func(next llm.Client) llm.Client {
		return clientFunc(func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
			start := time.Now()
			resp, err := next.Generate(ctx, req)
			elapsed := time.Since(start)
			if err != nil {
				logger.Error("completion failed", "elapsed", elapsed, "error", err)
				return nil, err
			}
			logger.Debug("completion",
				"elapsed", elapsed,
				"model", resp.Usage.Model,
				"prompt_tokens", resp.Usage.PromptTokens,
				"completion_tokens", resp.Usage.CompletionTokens,
			)
			return resp, nil
		})
	}
}

// RetryConfig controls the retry decorator.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultRetryConfig retries twice after the initial attempt with doubling
// delay.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 3, Delay: 500 * time.Millisecond}
}

// WithRetry retries failed completion calls. Context cancellation stops the
// retry loop immediately.
func WithRetry(cfg RetryConfig) Middleware {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 500 * time.Millisecond
	}
	return func(next llm.Client) llm.Client {
		return clientFunc(func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
			var (
				resp *llm.Response
				err  error
			)
			delay := cfg.Delay
			for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
				resp, err = next.Generate(ctx, req)
				if err == nil {
					return resp, nil
				}
				if attempt == cfg.MaxAttempts {
					break
				}
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(delay):
				}
				delay *= 2
			}
			return nil, err
		})
	}
}
