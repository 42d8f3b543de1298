package runstore

import (
	"context"
	"sync"
	"time"

	"github.com/hrops-ai/copilot/pipeline"
)

// Memory keeps archived runs in process memory, newest first.
type Memory struct {
	mu      sync.RWMutex
	records []Record
	now     func() time.Time
}

// NewMemory creates an empty in-memory run store.
func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

// RecordRun implements Store and the pipeline run recorder contract.
func (m *Memory) RecordRun(ctx context.Context, result *pipeline.Result) error {
	rec := FromResult(result, m.now())
	m.mu.Lock()
	m.records = append([]Record{rec}, m.records...)
	m.mu.Unlock()
	return nil
}

// List returns up to limit records, most recent first. A non-positive limit
// returns everything.
func (m *Memory) List(ctx context.Context, limit int) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, n)
	copy(out, m.records[:n])
	return out, nil
}
