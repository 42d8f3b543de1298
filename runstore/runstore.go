// Package runstore persists completed pipeline runs for auditability. HR
// answers can be challenged long after delivery, so each run keeps the
// question, the evidence citations, the verdict, and the full stage trace.
package runstore

import (
	"context"
	"time"

	"github.com/hrops-ai/copilot/pipeline"
)

// Record is one archived run.
type Record struct {
	RunID     string                 `bson:"run_id" json:"run_id"`
	Question  string                 `bson:"question" json:"question"`
	Answer    string                 `bson:"answer" json:"answer"`
	Verdict   string                 `bson:"verdict" json:"verdict"`
	Found     bool                   `bson:"found" json:"found"`
	Sources   []string               `bson:"sources" json:"sources"`
	Trace     []pipeline.TraceRecord `bson:"trace" json:"trace"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}

// Store archives runs and lists them most recent first. Implementations
// satisfy the pipeline's run recorder contract through RecordRun.
type Store interface {
	RecordRun(ctx context.Context, result *pipeline.Result) error
	List(ctx context.Context, limit int) ([]Record, error)
}

// FromResult converts a pipeline result into an archive record.
func FromResult(result *pipeline.Result, now time.Time) Record {
	rec := Record{
		RunID:     result.RunID,
		Question:  result.Question,
		Answer:    result.Answer,
		Found:     !pipeline.IsNotFound(result.Answer),
		CreatedAt: now,
		Trace:     result.Trace,
	}
	if result.Verdict != nil {
		rec.Verdict = string(result.Verdict.Status)
	}
	if result.Deliverable != nil {
		rec.Sources = result.Deliverable.Sources
	}
	return rec
}
