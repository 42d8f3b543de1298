// Package cache provides answer caches for the pipeline: a process-local
// store and a Redis-backed store for shared deployments.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hrops-ai/copilot/pipeline"
)

type memoryEntry struct {
	result    *pipeline.Result
	expiresAt time.Time
}

// Memory is a process-local answer cache with optional TTL.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an in-memory cache. A zero ttl means entries never
// expire.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get implements pipeline.Cache.
func (m *Memory) Get(ctx context.Context, question string) (*pipeline.Result, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[question]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && m.now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, question)
		m.mu.Unlock()
		return nil, false, nil
	}
	return entry.result, true, nil
}

// Set implements pipeline.Cache.
func (m *Memory) Set(ctx context.Context, question string, result *pipeline.Result) error {
	entry := memoryEntry{result: result}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.mu.Lock()
	m.entries[question] = entry
	m.mu.Unlock()
	return nil
}

// Len returns the number of cached answers.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
