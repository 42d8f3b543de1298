// Package llm defines the text-completion collaborator contract the pipeline
// consumes. Providers live under contrib/provider.
package llm

import "context"

// Request bundles the prompts for one completion call.
type Request struct {
	System      string
	User        string
	Temperature float64 // 0 leaves the provider default in place
}

// Usage carries generation metadata for observability. Providers that do not
// report token counts leave them at zero; callers may backfill with a local
// tokenizer.
type Usage struct {
	Model            string `json:"model,omitempty"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
}

// Response is the generated text plus usage metadata.
type Response struct {
	Text  string
	Usage Usage
}

// Client is implemented by every text-completion provider.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}
