package pipeline

import (
	"fmt"
	"strings"

	"context"

	"github.com/hrops-ai/copilot/evidence"
	"github.com/hrops-ai/copilot/llm"
)

// writer is the draft generator: it produces an answer strictly grounded in
// the supplied evidence pack, or the not-found sentinel.
type writer struct {
	llm         llm.Client
	temperature float64
}

func newWriter(client llm.Client, temperature float64) *writer {
	return &writer{llm: client, temperature: temperature}
}

const writerSystemPrompt = `You are an HR Ops copilot.
STRICT RULES (must follow):
1) Use ONLY the provided evidence excerpts.
2) If the evidence does NOT explicitly answer the question, reply EXACTLY:
%s
   2a) If evidence says the topic is 'not defined', 'not specified', 'depends on another policy', or points to a missing document (e.g., finance policy not provided), treat that as not found.
3) Do NOT use outside knowledge.
4) Every paragraph must include at least one citation copied EXACTLY from the evidence (keep the brackets), e.g. [Remote_and_Hybrid_Work_Policy.md | chunk_0001].
5) Never invent citations (no made-up things like [Company Finance Policy]).
6) Never put multiple citations inside ONE bracket. Use separate brackets.`

// Draft writes an answer for the question against the pack. An empty pack
// short-circuits to the sentinel with no external call.
func (w *writer) Draft(ctx context.Context, question string, pack evidence.Pack) (string, llm.Usage, error) {
	if pack.IsEmpty() {
		return NotFound, llm.Usage{}, nil
	}
	if w.llm == nil {
		return "", llm.Usage{}, fmt.Errorf("writer LLM is not configured")
	}

	resp, err := w.llm.Generate(ctx, &llm.Request{
		System: fmt.Sprintf(writerSystemPrompt, NotFound),
		User: fmt.Sprintf(
			"QUESTION:\n%s\n\nEVIDENCE (use only this):\n%s\n\nWrite a clear, practical HR answer.\nIf the answer is not in the evidence, output only this exact line:\n%s",
			question, pack.String(), NotFound,
		),
		Temperature: w.temperature,
	})
	if err != nil {
		return "", llm.Usage{}, fmt.Errorf("writer generation failed: %w", err)
	}
	return strings.TrimSpace(resp.Text), resp.Usage, nil
}

// Revise re-drafts with the verifier feedback appended to the original pack.
// The rules are identical; only the context grows.
func (w *writer) Revise(ctx context.Context, question string, pack evidence.Pack, feedback string) (string, llm.Usage, error) {
	return w.Draft(ctx, question, pack.WithFeedback(feedback))
}
