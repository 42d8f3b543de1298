// Package ingest walks a policy document directory, chunks each file, embeds
// the chunks, and loads them into the vector store with citation provenance.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hrops-ai/copilot/pkg/logging"
	"github.com/hrops-ai/copilot/vector"
)

// TokenCounter reports token counts for ingested text. Optional; when nil,
// Stats.Tokens stays zero.
type TokenCounter interface {
	CountTokens(text string) int
}

// Stats summarizes one ingestion run.
type Stats struct {
	Documents int
	Chunks    int
	Skipped   int
	Tokens    int
}

// Config controls ingestion behaviour.
type Config struct {
	Chunker   Chunker
	BatchSize int
	// Rebuild clears the store before indexing so chunk ids stay stable
	// across full re-ingests.
	Rebuild bool
	// MaxRetries bounds embedding retry attempts per batch.
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns ingestion defaults.
func DefaultConfig() Config {
	return Config{
		Chunker:    DefaultChunker(),
		BatchSize:  64,
		Rebuild:    true,
		MaxRetries: 3,
		RetryDelay: 500 * time.Millisecond,
	}
}

// Ingestor builds the vector index from source documents.
type Ingestor struct {
	store    vector.Store
	embedder vector.Embedder
	counter  TokenCounter
	cfg      Config
	logger   *slog.Logger
}

// New creates an ingestor. counter may be nil.
func New(store vector.Store, emb vector.Embedder, counter TokenCounter, cfg Config) (*Ingestor, error) {
	if store == nil {
		return nil, fmt.Errorf("vector store is required")
	}
	if emb == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	return &Ingestor{
		store:    store,
		embedder: emb,
		counter:  counter,
		cfg:      cfg,
		logger:   logging.WithComponent("ingest"),
	}, nil
}

// IngestDir indexes every supported file directly under dir, in name order
// so chunk ids are deterministic for a given corpus.
func (ing *Ingestor) IngestDir(ctx context.Context, dir string) (*Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if Supported(path) {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no supported documents in %s", dir)
	}

	if ing.cfg.Rebuild {
		if err := ing.store.Clear(ctx); err != nil {
			return nil, fmt.Errorf("clear store: %w", err)
		}
	}

	stats := &Stats{}
	ordinal := 0
	for _, path := range paths {
		n, err := ing.ingestFile(ctx, path, &ordinal, stats)
		if err != nil {
			return nil, err
		}
		stats.Documents++
		ing.logger.Info("document indexed", "file", filepath.Base(path), "chunks", n)
	}

	ing.logger.Info("ingestion complete",
		"documents", stats.Documents,
		"chunks", stats.Chunks,
		"skipped", stats.Skipped,
		"tokens", stats.Tokens,
	)
	return stats, nil
}

func (ing *Ingestor) ingestFile(ctx context.Context, path string, ordinal *int, stats *Stats) (int, error) {
	sections, err := ReadSections(path)
	if err != nil {
		return 0, err
	}
	docName := filepath.Base(path)

	var records []vector.Record
	for _, sec := range sections {
		for _, piece := range ing.cfg.Chunker.Chunk(sec.Text) {
			chunkID := fmt.Sprintf("chunk_%04d", *ordinal)
			records = append(records, vector.Record{
				ID:      chunkID,
				ChunkID: chunkID,
				DocName: docName,
				Page:    sec.Page,
				HasPage: sec.HasPage,
				Ordinal: *ordinal,
				Text:    piece,
			})
			*ordinal++
			if ing.counter != nil {
				stats.Tokens += ing.counter.CountTokens(piece)
			}
		}
	}
	if len(records) == 0 {
		stats.Skipped++
		ing.logger.Warn("document yielded no chunks", "file", docName)
		return 0, nil
	}

	for start := 0; start < len(records); start += ing.cfg.BatchSize {
		end := start + ing.cfg.BatchSize
		if end > len(records) {
			end = len(records)
		}
		if err := ing.embedBatch(ctx, records[start:end]); err != nil {
			return 0, fmt.Errorf("embed %s: %w", docName, err)
		}
		if err := ing.store.Add(ctx, records[start:end]...); err != nil {
			return 0, fmt.Errorf("store %s: %w", docName, err)
		}
	}

	stats.Chunks += len(records)
	return len(records), nil
}

// embedBatch fills in the Vector field for each record, retrying transient
// embedding failures with doubling delay.
func (ing *Ingestor) embedBatch(ctx context.Context, records []vector.Record) error {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Text
	}

	var (
		vectors [][]float32
		err     error
	)
	delay := ing.cfg.RetryDelay
	for attempt := 1; attempt <= ing.cfg.MaxRetries; attempt++ {
		vectors, err = ing.embedder.EmbedBatch(ctx, texts)
		if err == nil {
			break
		}
		if attempt == ing.cfg.MaxRetries {
			return fmt.Errorf("embed batch after %d attempts: %w", attempt, err)
		}
		ing.logger.Warn("embedding batch failed, retrying",
			"attempt", attempt, "delay", delay, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	if len(vectors) != len(records) {
		return fmt.Errorf("expected %d vectors, got %d", len(records), len(vectors))
	}

	for i := range records {
		records[i].Vector = vectors[i]
	}
	return nil
}

// Describe returns a short human-readable summary of the stats.
func (s *Stats) Describe() string {
	return fmt.Sprintf("%d documents, %d chunks, %d tokens (%d files skipped)",
		s.Documents, s.Chunks, s.Tokens, s.Skipped)
}
