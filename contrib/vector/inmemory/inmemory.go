// Package inmemory provides a process-local vector.Store used for tests and
// small single-machine deployments.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hrops-ai/copilot/vector"
)

// Store keeps embedded chunks in memory and ranks them by cosine distance.
type Store struct {
	mu      sync.RWMutex
	records map[string]vector.Record
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[string]vector.Record)}
}

// Add upserts records keyed by their ID.
func (s *Store) Add(ctx context.Context, records ...vector.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("record ID cannot be empty")
		}
		if len(r.Vector) == 0 {
			return fmt.Errorf("record %s has no vector", r.ID)
		}
		s.records[r.ID] = r
	}
	return nil
}

// Search returns the topK records nearest to the query vector by cosine
// distance, ascending.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]vector.Match, error) {
	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if topK <= 0 {
		topK = 10
	}

	s.mu.RLock()
	matches := make([]vector.Match, 0, len(s.records))
	for _, r := range s.records {
		matches = append(matches, vector.Match{
			Record:   r,
			Distance: vector.CosineDistance(queryVector, r.Vector),
		})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Record.ID < matches[j].Record.ID
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Clear removes all records.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]vector.Record)
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}
