// Package vector defines the storage contract for embedded policy chunks and
// the embedder contract used to vectorize queries and documents.
package vector

import (
	"context"
	"math"
)

// Record is one embedded chunk with the provenance the pipeline needs to
// build citations: document name, optional page, and the stable chunk id.
type Record struct {
	ID      string
	ChunkID string
	DocName string
	Page    int
	HasPage bool
	Ordinal int
	Text    string
	Vector  []float32
}

// Match pairs a stored record with its similarity distance to the query
// (lower is more relevant).
type Match struct {
	Record   Record
	Distance float64
}

// Store persists embedded chunks and answers nearest-neighbour queries.
type Store interface {
	// Add upserts records into the store.
	Add(ctx context.Context, records ...Record) error

	// Search returns the topK records nearest to the query vector, ordered
	// by ascending distance.
	Search(ctx context.Context, queryVector []float32, topK int) ([]Match, error)

	// Clear removes all records.
	Clear(ctx context.Context) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)
}

// Embedder converts text into vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// CosineSimilarityOperator returns the pgvector operator used for cosine
// distance ordering.
func CosineSimilarityOperator() string {
	return "<=>"
}

// CosineSimilarity calculates the cosine similarity between two vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := 0; i < len(a); i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(normA)))*float32(math.Sqrt(float64(normB))) + 1e-8)
}

// CosineDistance converts similarity into the distance form the pipeline
// consumes (lower = more relevant).
func CosineDistance(a, b []float32) float64 {
	return 1 - float64(CosineSimilarity(a, b))
}

// Normalize scales the vector to unit length (L2 norm).
func Normalize(vec []float32) []float32 {
	if len(vec) == 0 {
		return vec
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	inv := float32(1 / math.Sqrt(sum))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}
