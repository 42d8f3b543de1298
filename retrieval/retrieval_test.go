package retrieval

import (
	"context"
	"testing"

	"github.com/hrops-ai/copilot/vector"
)

type stubEmbedder struct {
	vec []float32
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return s.vec, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int { return len(s.vec) }

type stubStore struct {
	matches   []vector.Match
	lastTopK  int
	lastQuery []float32
}

func (s *stubStore) Add(ctx context.Context, records ...vector.Record) error { return nil }

func (s *stubStore) Search(ctx context.Context, q []float32, topK int) ([]vector.Match, error) {
	s.lastQuery = q
	s.lastTopK = topK
	if len(s.matches) > topK {
		return s.matches[:topK], nil
	}
	return s.matches, nil
}

func (s *stubStore) Clear(ctx context.Context) error { return nil }

func (s *stubStore) Count(ctx context.Context) (int, error) { return len(s.matches), nil }

func match(chunkID, text string, distance float64) vector.Match {
	return vector.Match{
		Record: vector.Record{
			ID:      chunkID,
			ChunkID: chunkID,
			DocName: "handbook.md",
			Text:    text,
		},
		Distance: distance,
	}
}

func TestSearchOverfetchesBeforeReranking(t *testing.T) {
	store := &stubStore{}
	r, err := New(store, &stubEmbedder{vec: []float32{1, 0}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := r.Search(context.Background(), "vacation accrual", 6); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if store.lastTopK != 24 {
		t.Errorf("vector topK = %d, want 24", store.lastTopK)
	}

	// Small k still fetches at least the floor.
	if _, err := r.Search(context.Background(), "vacation accrual", 2); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if store.lastTopK != 20 {
		t.Errorf("vector topK = %d, want floor 20", store.lastTopK)
	}
}

func TestSearchReranksByKeywordOverlap(t *testing.T) {
	store := &stubStore{matches: []vector.Match{
		match("chunk_0001", "Parking passes are issued by the facilities desk.", 0.10),
		match("chunk_0002", "Vacation accrual starts on the first day of employment.", 0.30),
	}}
	r, err := New(store, &stubEmbedder{vec: []float32{1, 0}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frags, err := r.Search(context.Background(), "How does vacation accrual work?", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(frags) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(frags))
	}
	// chunk_0002 matches both keywords and outranks the closer chunk_0001.
	if frags[0].ChunkID != "chunk_0002" {
		t.Errorf("top fragment = %s, want chunk_0002", frags[0].ChunkID)
	}
	if frags[0].Distance == nil || *frags[0].Distance != 0.30 {
		t.Errorf("top fragment should carry its vector distance")
	}
}

func TestSearchTruncatesToK(t *testing.T) {
	store := &stubStore{matches: []vector.Match{
		match("chunk_0001", "Remote work policy text.", 0.1),
		match("chunk_0002", "Remote work approval text.", 0.2),
		match("chunk_0003", "Remote work equipment text.", 0.3),
	}}
	r, err := New(store, &stubEmbedder{vec: []float32{1, 0}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	frags, err := r.Search(context.Background(), "remote work", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(frags) != 2 {
		t.Errorf("expected 2 fragments, got %d", len(frags))
	}
}

func TestRerankKeepsVectorOrderWithoutKeywords(t *testing.T) {
	store := &stubStore{matches: []vector.Match{
		match("chunk_0001", "First chunk.", 0.1),
		match("chunk_0002", "Second chunk.", 0.2),
	}}
	r, err := New(store, &stubEmbedder{vec: []float32{1, 0}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// "it" is below the keyword length floor, so no rerank terms exist.
	frags, err := r.Search(context.Background(), "it", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if frags[0].ChunkID != "chunk_0001" {
		t.Errorf("top fragment = %s, want chunk_0001", frags[0].ChunkID)
	}
}
