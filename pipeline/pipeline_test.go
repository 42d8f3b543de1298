package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hrops-ai/copilot/evidence"
	"github.com/hrops-ai/copilot/llm"
)

// stubLLM plays the completion service. Responses are served in order; the
// last one repeats.
type stubLLM struct {
	response  string
	responses []string
	calls     int
	err       error
}

func (s *stubLLM) Generate(_ context.Context, _ *llm.Request) (*llm.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	text := s.response
	if len(s.responses) > 0 {
		idx := s.calls - 1
		if idx >= len(s.responses) {
			idx = len(s.responses) - 1
		}
		text = s.responses[idx]
	}
	return &llm.Response{Text: text, Usage: llm.Usage{Model: "stub", PromptTokens: 10, CompletionTokens: 20}}, nil
}

// stubStore plays the document store.
type stubStore struct {
	fragments []evidence.Fragment
	calls     int
	err       error
}

func (s *stubStore) Search(_ context.Context, _ string, _ int) ([]evidence.Fragment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.fragments, nil
}

func remoteFragments() []evidence.Fragment {
	return []evidence.Fragment{
		evidence.NewFragment(
			"Remote work is allowed up to two days per week with manager approval.",
			"Remote_Policy.md", "chunk_0001",
		),
	}
}

func TestAnswerGroundedQuestion(t *testing.T) {
	store := &stubStore{fragments: remoteFragments()}
	writer := &stubLLM{response: "Employees may work remotely up to two days per week [Remote_Policy.md | chunk_0001]."}

	p, err := New(store, writer, WithCompanyName("KosovoTech LLC"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Answer(context.Background(), "What is the remote work policy?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if !result.Verdict.Passed() {
		t.Fatalf("verdict = %#v", result.Verdict)
	}
	if IsNotFound(result.Answer) {
		t.Fatalf("unexpected sentinel answer")
	}
	want := []string{"[Remote_Policy.md | chunk_0001]"}
	if len(result.Deliverable.Sources) != 1 || result.Deliverable.Sources[0] != want[0] {
		t.Fatalf("sources = %v", result.Deliverable.Sources)
	}
	if writer.calls != 1 {
		t.Fatalf("writer calls = %d, want 1", writer.calls)
	}
	if result.Plan == nil || len(result.Plan.Steps) != 4 {
		t.Fatalf("plan = %#v", result.Plan)
	}
	if len(result.Trace) == 0 {
		t.Fatal("expected a non-empty trace")
	}
}

func TestAnswerNoEvidenceShortCircuit(t *testing.T) {
	// Retrieval returns fragments, but none overlap the question keywords.
	store := &stubStore{fragments: remoteFragments()}
	writer := &stubLLM{response: "should never be called"}

	p, err := New(store, writer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Answer(context.Background(), "What is the signing bonus amount?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if result.Answer != NotFound {
		t.Fatalf("answer = %q, want sentinel", result.Answer)
	}
	if !result.Verdict.Passed() {
		t.Fatalf("verdict = %#v", result.Verdict)
	}
	if writer.calls != 0 {
		t.Fatalf("writer was invoked %d times on the short-circuit path", writer.calls)
	}
	if len(result.Deliverable.Sources) != 0 {
		t.Fatalf("sources must be empty on not-found, got %v", result.Deliverable.Sources)
	}
	var agents []string
	for _, rec := range result.Trace {
		agents = append(agents, rec.Agent)
	}
	joined := strings.Join(agents, ",")
	if strings.Contains(joined, "write") || strings.Contains(joined, "verify") {
		t.Fatalf("short-circuit trace should skip writer/verifier: %s", joined)
	}
}

func TestAnswerSingleRevision(t *testing.T) {
	store := &stubStore{fragments: remoteFragments()}
	// First draft has an uncited paragraph; the revision still fails.
	writer := &stubLLM{responses: []string{
		"Remote work is allowed [Remote_Policy.md | chunk_0001].\n\nNo citation here.",
		"Still no citation in this paragraph.\n\nRemote work is allowed [Remote_Policy.md | chunk_0001].",
	}}

	p, err := New(store, writer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Answer(context.Background(), "What is the remote work policy?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}

	if writer.calls != 2 {
		t.Fatalf("writer calls = %d, want exactly 2 (one draft + one revision)", writer.calls)
	}
	// The post-budget verdict is delivered as-is.
	if result.Verdict.Passed() {
		t.Fatalf("expected delivered FAIL verdict, got %#v", result.Verdict)
	}
	if result.Deliverable == nil || result.Deliverable.WorkflowStatus != string(StatusFail) {
		t.Fatalf("deliverable = %#v", result.Deliverable)
	}
	verifyCount := 0
	for _, rec := range result.Trace {
		if rec.Agent == "verify" {
			verifyCount++
		}
	}
	if verifyCount != 2 {
		t.Fatalf("verifier ran %d times, want 2", verifyCount)
	}
}

func TestAnswerRevisionRecovers(t *testing.T) {
	store := &stubStore{fragments: remoteFragments()}
	writer := &stubLLM{responses: []string{
		"Remote work is allowed.\n\nUncited everywhere.",
		"Remote work is allowed two days per week [Remote_Policy.md | chunk_0001].",
	}}

	p, err := New(store, writer)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Answer(context.Background(), "What is the remote work policy?")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !result.Verdict.Passed() {
		t.Fatalf("revised draft should PASS, got %#v", result.Verdict)
	}
	if writer.calls != 2 {
		t.Fatalf("writer calls = %d", writer.calls)
	}
}

func TestAnswerStoreFailureProducesFallback(t *testing.T) {
	store := &stubStore{err: fmt.Errorf("connection refused")}
	writer := &stubLLM{response: "unused"}

	p, err := New(store, writer, WithCompanyName("KosovoTech LLC"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := p.Answer(context.Background(), "What is the remote work policy?")
	if err == nil {
		t.Fatal("expected the store error to surface")
	}
	if result == nil || result.Deliverable == nil {
		t.Fatal("fallback must still deliver a complete structure")
	}
	if result.Answer != NotFound {
		t.Fatalf("fallback answer = %q", result.Answer)
	}
	if result.Verdict.Passed() {
		t.Fatal("fallback verdict must FAIL")
	}
	if len(result.Verdict.Issues) == 0 || !strings.Contains(result.Verdict.Issues[0], "connection refused") {
		t.Fatalf("verdict should carry the error detail: %v", result.Verdict.Issues)
	}
	if len(result.Deliverable.Sources) != 0 {
		t.Fatalf("fallback sources = %v", result.Deliverable.Sources)
	}
}

// memoryCache is a trivial in-test Cache.
type memoryCache struct {
	entries map[string]*Result
	hits    int
}

func (c *memoryCache) Get(_ context.Context, key string) (*Result, bool, error) {
	r, ok := c.entries[key]
	if ok {
		c.hits++
	}
	return r, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, r *Result) error {
	if c.entries == nil {
		c.entries = make(map[string]*Result)
	}
	c.entries[key] = r
	return nil
}

func TestAnswerCacheHitSkipsWorkflow(t *testing.T) {
	store := &stubStore{fragments: remoteFragments()}
	writer := &stubLLM{response: "Remote work is allowed [Remote_Policy.md | chunk_0001]."}
	cache := &memoryCache{}

	p, err := New(store, writer, WithCache(cache))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	if _, err := p.Answer(ctx, "What is the remote work policy?"); err != nil {
		t.Fatalf("first answer: %v", err)
	}
	if _, err := p.Answer(ctx, "  what is the REMOTE work policy? "); err != nil {
		t.Fatalf("second answer: %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("cache hits = %d, want 1", cache.hits)
	}
	if store.calls != 1 || writer.calls != 1 {
		t.Fatalf("cache hit should bypass collaborators: store=%d writer=%d", store.calls, writer.calls)
	}
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	p, err := New(&stubStore{}, &stubLLM{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := p.Answer(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty question")
	}
}
