// Package pg implements vector.Store on PostgreSQL with the pgvector
// extension. Each row carries the citation provenance (document name, page,
// chunk id) alongside the embedding.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	copiloterr "github.com/hrops-ai/copilot/errors"
	"github.com/hrops-ai/copilot/vector"
)

// Config holds pgvector connection and schema configuration.
type Config struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	SSLMode   string
	Dimension int    // embedding dimension, must match the embedder
	TableName string // default: policy_chunks
}

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() *Config {
	return &Config{
		Host:      "127.0.0.1",
		Port:      5432,
		User:      "postgres",
		Password:  "postgres",
		DBName:    "hr_copilot",
		SSLMode:   "disable",
		Dimension: 1536,
		TableName: "policy_chunks",
	}
}

// Store is a pgvector-backed vector.Store.
type Store struct {
	db        *sql.DB
	dimension int
	tableName string
}

// New opens a connection, enables the vector extension, and ensures the
// chunk table exists.
func New(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	store := &Store{
		db:        db,
		dimension: config.Dimension,
		tableName: config.TableName,
	}
	if err := store.setup(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to setup pgvector: %w", err)
	}
	return store, nil
}

func (s *Store) setup(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTableSQL := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id VARCHAR(255) PRIMARY KEY,
		chunk_id VARCHAR(255) NOT NULL,
		doc_name TEXT NOT NULL,
		page INT,
		ordinal INT NOT NULL DEFAULT 0,
		text TEXT NOT NULL,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`, s.tableName, s.dimension)

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// Add upserts records keyed by ID.
func (s *Store) Add(ctx context.Context, records ...vector.Record) error {
	query := fmt.Sprintf(`
	INSERT INTO %s (id, chunk_id, doc_name, page, ordinal, text, embedding)
	VALUES ($1, $2, $3, $4, $5, $6, $7::vector)
	ON CONFLICT (id) DO UPDATE SET
		chunk_id = EXCLUDED.chunk_id,
		doc_name = EXCLUDED.doc_name,
		page = EXCLUDED.page,
		ordinal = EXCLUDED.ordinal,
		text = EXCLUDED.text,
		embedding = EXCLUDED.embedding,
		created_at = CURRENT_TIMESTAMP
	`, s.tableName)

	for _, r := range records {
		if r.ID == "" {
			return fmt.Errorf("record ID cannot be empty: %w", copiloterr.ErrInvalidInput)
		}
		if len(r.Vector) != s.dimension {
			return fmt.Errorf("record %s dimension mismatch: expected %d, got %d",
				r.ID, s.dimension, len(r.Vector))
		}

		var page sql.NullInt64
		if r.HasPage {
			page = sql.NullInt64{Int64: int64(r.Page), Valid: true}
		}
		_, err := s.db.ExecContext(ctx, query,
			r.ID, r.ChunkID, r.DocName, page, r.Ordinal, r.Text, vectorToString(r.Vector))
		if err != nil {
			return fmt.Errorf("failed to add record %s: %w", r.ID, err)
		}
	}
	return nil
}

// Search returns the topK records nearest to the query vector using the
// pgvector cosine distance operator.
func (s *Store) Search(ctx context.Context, queryVector []float32, topK int) ([]vector.Match, error) {
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("query vector dimension mismatch: expected %d, got %d",
			s.dimension, len(queryVector))
	}
	if topK <= 0 {
		topK = 10
	}

	op := vector.CosineSimilarityOperator()
	query := fmt.Sprintf(`
	SELECT id, chunk_id, doc_name, page, ordinal, text, embedding %s $1::vector AS distance
	FROM %s
	ORDER BY distance
	LIMIT $2
	`, op, s.tableName)

	rows, err := s.db.QueryContext(ctx, query, vectorToString(queryVector), topK)
	if err != nil {
		return nil, fmt.Errorf("failed to search records: %w", err)
	}
	defer rows.Close()

	matches := make([]vector.Match, 0, topK)
	for rows.Next() {
		var (
			r        vector.Record
			page     sql.NullInt64
			distance float64
		)
		if err := rows.Scan(&r.ID, &r.ChunkID, &r.DocName, &page, &r.Ordinal, &r.Text, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if page.Valid {
			r.Page = int(page.Int64)
			r.HasPage = true
		}
		matches = append(matches, vector.Match{Record: r, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating records: %w", err)
	}
	return matches, nil
}

// Clear removes all records.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", s.tableName)); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", s.tableName)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func vectorToString(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = fmt.Sprintf("%f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
