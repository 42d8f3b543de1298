// Package pipeline implements the grounded question-answering workflow:
// plan, retrieve, draft, verify with a single bounded revision, and build
// the client deliverable. Every answer is either backed by citations into
// the retrieved evidence or the canonical not-found sentinel.
package pipeline

import (
	"strings"

	"github.com/hrops-ai/copilot/evidence"
)

// NotFound is the canonical sentinel for "no supported answer exists". It is
// compared byte-for-byte across the pipeline; any deviation breaks
// downstream not-found detection.
const NotFound = "Not found in provided sources."

// notFoundPrefix tolerates the legacy sentinel wording ("Not found in the
// sources.") during detection only; components always emit NotFound.
const notFoundPrefix = "Not found in"

// IsNotFound reports whether an answer is the sentinel (exact) or a legacy
// variant of it (prefix).
func IsNotFound(answer string) bool {
	trimmed := strings.TrimSpace(answer)
	return trimmed == NotFound || strings.HasPrefix(trimmed, notFoundPrefix)
}

// Plan is the deterministic, purely descriptive research plan. It is part
// of the response for transparency and is never used for branching.
type Plan struct {
	Goal     string   `json:"goal"`
	Question string   `json:"question"`
	Steps    []string `json:"steps"`
}

// VerdictStatus is the verification outcome.
type VerdictStatus string

const (
	StatusPass VerdictStatus = "PASS"
	StatusFail VerdictStatus = "FAIL"
)

// Verdict is the result of one verification call. It is produced fresh per
// call and never mutated.
type Verdict struct {
	Status          VerdictStatus `json:"status"`
	Issues          []string      `json:"issues"`
	FixInstructions string        `json:"fix_instructions"`
}

// Passed reports whether the verdict allows delivery without revision.
func (v *Verdict) Passed() bool {
	return v != nil && v.Status == StatusPass
}

// Action is one follow-up item in the deliverable.
type Action struct {
	Action     string  `json:"action"`
	Owner      string  `json:"owner"`
	DueDate    string  `json:"due_date"`
	Confidence float64 `json:"confidence"`
}

// Email is the client-ready message in the deliverable.
type Email struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Deliverable is the external artifact built exactly once per run.
type Deliverable struct {
	ExecutiveSummary string   `json:"executive_summary"`
	ClientEmail      Email    `json:"client_email"`
	ActionList       []Action `json:"action_list"`
	Sources          []string `json:"sources"`
	WorkflowStatus   string   `json:"workflow_status"`
}

// TraceRecord documents one executed pipeline stage.
type TraceRecord struct {
	Agent     string         `json:"agent"`
	Status    string         `json:"status"`
	ElapsedMS int64          `json:"elapsed_ms"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Result bundles everything a caller receives for one question.
type Result struct {
	RunID       string              `json:"run_id"`
	Question    string              `json:"question"`
	Plan        *Plan               `json:"plan"`
	Evidence    []evidence.Fragment `json:"evidence"`
	Answer      string              `json:"answer"`
	Verdict     *Verdict            `json:"verdict"`
	Deliverable *Deliverable        `json:"deliverable"`
	Trace       []TraceRecord       `json:"trace"`
}

// runState is the strongly-typed run context threaded through the state
// machine. Each stage fills its own fields; nothing is shared between runs.
type runState struct {
	question  string
	plan      *Plan
	retrieved []evidence.Fragment
	evidence  []evidence.Fragment
	pack      evidence.Pack
	draft     string
	verdict   *Verdict
	revisions int
	result    *Deliverable
	meta      map[string]map[string]any
}

func (s *runState) stageMeta(stage string) map[string]any {
	if s.meta == nil {
		s.meta = make(map[string]map[string]any)
	}
	m, ok := s.meta[stage]
	if !ok {
		m = make(map[string]any)
		s.meta[stage] = m
	}
	return m
}
