// Package retrieval turns a question into ranked evidence fragments. It
// embeds the query, over-fetches neighbours from the vector store, and
// reranks them by lexical overlap with the question before handing the top
// candidates to the answering workflow.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hrops-ai/copilot/evidence"
	"github.com/hrops-ai/copilot/keywords"
	"github.com/hrops-ai/copilot/pkg/logging"
	"github.com/hrops-ai/copilot/vector"
)

// Config controls retrieval behaviour.
type Config struct {
	// OverfetchFactor multiplies the requested k for the vector search so the
	// reranker has candidates to discard. Minimum fetch is OverfetchFloor.
	OverfetchFactor int
	OverfetchFloor  int
	// OverlapWeight scales the keyword-overlap term against the vector
	// distance in the rerank score.
	OverlapWeight float64
	MinKeywordLen int
}

// Option customizes retriever config.
type Option func(*Config)

// WithOverfetch sets the over-fetch factor and floor.
func WithOverfetch(factor, floor int) Option {
	return func(cfg *Config) {
		if factor > 0 {
			cfg.OverfetchFactor = factor
		}
		if floor > 0 {
			cfg.OverfetchFloor = floor
		}
	}
}

// WithOverlapWeight sets the lexical overlap weight in the rerank score.
func WithOverlapWeight(w float64) Option {
	return func(cfg *Config) {
		if w > 0 {
			cfg.OverlapWeight = w
		}
	}
}

func defaultConfig() Config {
	return Config{
		OverfetchFactor: 4,
		OverfetchFloor:  20,
		OverlapWeight:   2,
		MinKeywordLen:   3,
	}
}

// Retriever coordinates query embedding, similarity search, and reranking.
// It satisfies the document store contract of the answering pipeline.
type Retriever struct {
	store    vector.Store
	embedder vector.Embedder
	cfg      Config
	logger   *slog.Logger
}

// New creates a retriever over a vector store and an embedder.
func New(store vector.Store, emb vector.Embedder, opts ...Option) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if emb == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Retriever{
		store:    store,
		embedder: emb,
		cfg:      cfg,
		logger:   logging.WithComponent("retrieval"),
	}, nil
}

// Search embeds the query, fetches nearest chunks, and returns the top k
// after reranking. Fragments keep the vector distance so downstream
// admissibility filters can gate on it.
func (r *Retriever) Search(ctx context.Context, query string, k int) ([]evidence.Fragment, error) {
	if k <= 0 {
		k = 6
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	fetch := k * r.cfg.OverfetchFactor
	if fetch < r.cfg.OverfetchFloor {
		fetch = r.cfg.OverfetchFloor
	}
	matches, err := r.store.Search(ctx, queryVec, fetch)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	ranked := r.rerank(query, matches)
	if len(ranked) > k {
		ranked = ranked[:k]
	}

	fragments := make([]evidence.Fragment, 0, len(ranked))
	for _, m := range ranked {
		var frag evidence.Fragment
		if m.Record.HasPage {
			frag = evidence.NewPagedFragment(m.Record.Text, m.Record.DocName, m.Record.ChunkID, m.Record.Page)
		} else {
			frag = evidence.NewFragment(m.Record.Text, m.Record.DocName, m.Record.ChunkID)
		}
		fragments = append(fragments, frag.WithDistance(m.Distance))
	}

	r.logger.Debug("retrieval complete",
		"query_len", len(query),
		"fetched", len(matches),
		"returned", len(fragments),
	)
	return fragments, nil
}

// rerank orders matches by keyword overlap with the query (weighted) minus
// vector distance, descending. Ties keep the vector order.
func (r *Retriever) rerank(query string, matches []vector.Match) []vector.Match {
	terms := keywords.Extract(query, r.cfg.MinKeywordLen)
	if len(terms) == 0 {
		return matches
	}

	type scored struct {
		match vector.Match
		score float64
		pos   int
	}
	items := make([]scored, len(matches))
	for i, m := range matches {
		overlap := keywords.Overlap(m.Record.Text, terms)
		items[i] = scored{
			match: m,
			score: float64(overlap)*r.cfg.OverlapWeight - m.Distance,
			pos:   i,
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].pos < items[j].pos
	})

	out := make([]vector.Match, len(items))
	for i, it := range items {
		out[i] = it.match
	}
	return out
}
