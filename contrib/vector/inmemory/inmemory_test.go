package inmemory

import (
	"context"
	"testing"

	"github.com/hrops-ai/copilot/vector"
)

func record(id, chunkID string, vec []float32) vector.Record {
	return vector.Record{
		ID:      id,
		ChunkID: chunkID,
		DocName: "handbook.md",
		Text:    "chunk " + chunkID,
		Vector:  vec,
	}
}

func TestSearchOrdersByDistance(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Add(ctx,
		record("1", "chunk_0001", []float32{1, 0}),
		record("2", "chunk_0002", []float32{0, 1}),
		record("3", "chunk_0003", []float32{0.9, 0.1}),
	)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	matches, err := s.Search(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Record.ChunkID != "chunk_0001" {
		t.Errorf("closest match = %s, want chunk_0001", matches[0].Record.ChunkID)
	}
	if matches[1].Record.ChunkID != "chunk_0003" {
		t.Errorf("second match = %s, want chunk_0003", matches[1].Record.ChunkID)
	}
	if matches[0].Distance > matches[1].Distance {
		t.Errorf("distances not ascending: %f > %f", matches[0].Distance, matches[1].Distance)
	}
}

func TestAddUpsertsByID(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Add(ctx, record("1", "chunk_0001", []float32{1, 0})); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add(ctx, record("1", "chunk_0001", []float32{0, 1})); err != nil {
		t.Fatalf("Add: %v", err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 1 {
		t.Errorf("Count = %d, want 1", n)
	}
}

func TestClear(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Add(ctx, record("1", "chunk_0001", []float32{1, 0})); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	n, _ := s.Count(ctx)
	if n != 0 {
		t.Errorf("Count after Clear = %d, want 0", n)
	}
}

func TestAddRejectsEmptyID(t *testing.T) {
	s := New()
	if err := s.Add(context.Background(), record("", "chunk_0001", []float32{1})); err == nil {
		t.Fatal("expected error for empty ID")
	}
}
