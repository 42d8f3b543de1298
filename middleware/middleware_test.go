package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hrops-ai/copilot/llm"
)

type flakyClient struct {
	failures int
	calls    int
}

func (c *flakyClient) Generate(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, errors.New("transient error")
	}
	return &llm.Response{Text: "ok"}, nil
}

func TestWithRetryRecovers(t *testing.T) {
	client := &flakyClient{failures: 2}
	wrapped := WithRetry(RetryConfig{MaxAttempts: 3, Delay: time.Millisecond})(client)

	resp, err := wrapped.Generate(context.Background(), &llm.Request{User: "hi"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if resp.Text != "ok" {
		t.Errorf("Text = %q, want ok", resp.Text)
	}
	if client.calls != 3 {
		t.Errorf("calls = %d, want 3", client.calls)
	}
}

func TestWithRetryGivesUp(t *testing.T) {
	client := &flakyClient{failures: 10}
	wrapped := WithRetry(RetryConfig{MaxAttempts: 2, Delay: time.Millisecond})(client)

	if _, err := wrapped.Generate(context.Background(), &llm.Request{User: "hi"}); err == nil {
		t.Fatal("expected error after exhausted attempts")
	}
	if client.calls != 2 {
		t.Errorf("calls = %d, want 2", client.calls)
	}
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	client := &flakyClient{failures: 10}
	wrapped := WithRetry(RetryConfig{MaxAttempts: 5, Delay: 50 * time.Millisecond})(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := wrapped.Generate(ctx, &llm.Request{User: "hi"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1", client.calls)
	}
}

func TestChainOrdersOutermostFirst(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next llm.Client) llm.Client {
			return clientFunc(func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
				order = append(order, name)
				return next.Generate(ctx, req)
			})
		}
	}

	client := Chain(&flakyClient{}, tag("outer"), tag("inner"))
	if _, err := client.Generate(context.Background(), &llm.Request{User: "hi"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("order = %v, want [outer inner]", order)
	}
}
