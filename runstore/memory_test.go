package runstore

import (
	"context"
	"testing"
	"time"

	"github.com/hrops-ai/copilot/pipeline"
)

func TestMemoryRecordsNewestFirst(t *testing.T) {
	s := NewMemory()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	i := 0
	s.now = func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Minute)
	}
	ctx := context.Background()

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		result := &pipeline.Result{
			RunID:    id,
			Question: "How much PTO do I get?",
			Answer:   "Fifteen days. [handbook.md | chunk_0001]",
			Verdict:  &pipeline.Verdict{Status: pipeline.StatusPass},
		}
		if err := s.RecordRun(ctx, result); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	records, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("List returned %d records, want 2", len(records))
	}
	if records[0].RunID != "run-3" || records[1].RunID != "run-2" {
		t.Errorf("order = %s, %s; want run-3, run-2", records[0].RunID, records[1].RunID)
	}
	if records[0].Verdict != "PASS" {
		t.Errorf("Verdict = %q, want PASS", records[0].Verdict)
	}
	if !records[0].Found {
		t.Error("grounded answer should be marked found")
	}
}

func TestFromResultNotFound(t *testing.T) {
	result := &pipeline.Result{
		RunID:    "run-nf",
		Question: "What is the parking policy?",
		Answer:   pipeline.NotFound,
		Verdict:  &pipeline.Verdict{Status: pipeline.StatusPass},
		Deliverable: &pipeline.Deliverable{
			Sources: []string{},
		},
	}
	rec := FromResult(result, time.Now())
	if rec.Found {
		t.Error("sentinel answer should not be marked found")
	}
	if len(rec.Sources) != 0 {
		t.Errorf("Sources = %v, want empty", rec.Sources)
	}
}
