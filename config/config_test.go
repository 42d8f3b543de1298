package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.Type != "openai" {
		t.Errorf("Provider.Type = %q, want openai", cfg.Provider.Type)
	}
	if cfg.Pipeline.K != 6 {
		t.Errorf("Pipeline.K = %d, want 6", cfg.Pipeline.K)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hrcopilot.yaml")
	content := `
provider:
  type: claude
  model: claude-3-5-sonnet-20241022
store:
  type: pgvector
  pgvector:
    host: db.internal
    port: 5432
    db_name: hr_copilot
    ssl_mode: require
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider.APIKeyEnv != "ANTHROPIC_API_KEY" {
		t.Errorf("APIKeyEnv = %q, want ANTHROPIC_API_KEY", cfg.Provider.APIKeyEnv)
	}
	if cfg.Embedder.Model == "" {
		t.Error("embedder defaults not applied")
	}
	if cfg.Ingest.ChunkSize != 800 {
		t.Errorf("Ingest.ChunkSize = %d, want 800", cfg.Ingest.ChunkSize)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("merged config should validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.Store.Type = "pgvector" // no pgvector section
	cfg.Pipeline.Temperature = 5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Default()
	want.Pipeline.CompanyName = "Acme Corp"

	if err := Save(path, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Pipeline.CompanyName != "Acme Corp" {
		t.Errorf("CompanyName = %q, want Acme Corp", got.Pipeline.CompanyName)
	}
}
