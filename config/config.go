// Package config loads the copilot configuration from YAML with sensible
// defaults for local development. Secrets stay out of the file: each
// credential field names the environment variable that carries it.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProviderConfig selects and configures the completion model.
type ProviderConfig struct {
	Type      string `yaml:"type"` // openai, claude, gemini
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url,omitempty"`
	MaxTokens int    `yaml:"max_tokens"`
}

// EmbedderConfig configures the embedding model.
type EmbedderConfig struct {
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url,omitempty"`
	Dimension int    `yaml:"dimension"`
}

// PGConfig contains connection details for a pgvector store.
type PGConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	User        string `yaml:"user"`
	PasswordEnv string `yaml:"password_env"`
	DBName      string `yaml:"db_name"`
	SSLMode     string `yaml:"ssl_mode"`
	TableName   string `yaml:"table_name"`
}

// StoreConfig selects and configures the vector store implementation.
type StoreConfig struct {
	Type string    `yaml:"type"` // memory, pgvector
	PG   *PGConfig `yaml:"pgvector,omitempty"`
}

// RedisCacheConfig contains connection details for the Redis answer cache.
type RedisCacheConfig struct {
	Addr        string `yaml:"addr"`
	PasswordEnv string `yaml:"password_env,omitempty"`
	DB          int    `yaml:"db"`
	TTLHours    int    `yaml:"ttl_hours"`
}

// CacheConfig selects the answer cache implementation.
type CacheConfig struct {
	Type  string            `yaml:"type"` // none, memory, redis
	Redis *RedisCacheConfig `yaml:"redis,omitempty"`
}

// MongoRunStoreConfig contains connection details for the Mongo run archive.
type MongoRunStoreConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// RunStoreConfig selects the run archive implementation.
type RunStoreConfig struct {
	Type  string               `yaml:"type"` // none, memory, mongo
	Mongo *MongoRunStoreConfig `yaml:"mongo,omitempty"`
}

// PipelineConfig carries answering-workflow knobs.
type PipelineConfig struct {
	K               int     `yaml:"k"`
	CompanyName     string  `yaml:"company_name"`
	Temperature     float64 `yaml:"temperature"`
	MaxDistance     float64 `yaml:"max_distance"`
	EnforceDistance bool    `yaml:"enforce_distance"`
	SecondOpinion   bool    `yaml:"second_opinion"`
}

// IngestConfig carries chunking knobs for document ingestion.
type IngestConfig struct {
	ChunkSize   int `yaml:"chunk_size"`
	Overlap     int `yaml:"overlap"`
	MinChunkLen int `yaml:"min_chunk_len"`
	BatchSize   int `yaml:"batch_size"`
}

// TelemetryConfig controls tracing.
type TelemetryConfig struct {
	Disable     bool   `yaml:"disable"`
	Environment string `yaml:"environment,omitempty"`
}

// AppConfig is the root configuration structure.
type AppConfig struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Store     StoreConfig     `yaml:"store"`
	Cache     CacheConfig     `yaml:"cache"`
	RunStore  RunStoreConfig  `yaml:"run_store"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// Load reads a config from path. If the file does not exist, defaults are
// returned.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./hrcopilot.yaml first, then the user config directory.
// If neither exists, it writes defaults to the user path and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "hrcopilot.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Default returns the development defaults: in-memory backends and OpenAI
// models.
func Default() *AppConfig {
	cfg := &AppConfig{
		Provider: ProviderConfig{
			Type:      "openai",
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			MaxTokens: 2000,
		},
		Embedder: EmbedderConfig{
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 1536,
		},
		Store:    StoreConfig{Type: "memory"},
		Cache:    CacheConfig{Type: "memory"},
		RunStore: RunStoreConfig{Type: "memory"},
		Pipeline: PipelineConfig{
			K:           6,
			CompanyName: "Your Company",
			Temperature: 0.1,
		},
		Ingest: IngestConfig{
			ChunkSize:   800,
			Overlap:     120,
			MinChunkLen: 50,
			BatchSize:   64,
		},
	}
	return cfg
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "hrcopilot", "config.yaml"), nil
}

func applyDefaults(cfg *AppConfig) {
	def := Default()
	if cfg.Provider.Type == "" {
		cfg.Provider = def.Provider
	}
	if cfg.Provider.APIKeyEnv == "" {
		cfg.Provider.APIKeyEnv = keyEnvForProvider(cfg.Provider.Type)
	}
	if cfg.Embedder.Model == "" {
		cfg.Embedder = def.Embedder
	}
	if cfg.Embedder.Dimension == 0 {
		cfg.Embedder.Dimension = def.Embedder.Dimension
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = def.Store.Type
	}
	if cfg.Cache.Type == "" {
		cfg.Cache.Type = def.Cache.Type
	}
	if cfg.RunStore.Type == "" {
		cfg.RunStore.Type = def.RunStore.Type
	}
	if cfg.Pipeline.K == 0 {
		cfg.Pipeline.K = def.Pipeline.K
	}
	if cfg.Pipeline.CompanyName == "" {
		cfg.Pipeline.CompanyName = def.Pipeline.CompanyName
	}
	if cfg.Pipeline.Temperature == 0 {
		cfg.Pipeline.Temperature = def.Pipeline.Temperature
	}
	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest = def.Ingest
	}
	if cfg.Ingest.BatchSize == 0 {
		cfg.Ingest.BatchSize = def.Ingest.BatchSize
	}
}

func keyEnvForProvider(providerType string) string {
	switch providerType {
	case "claude":
		return "ANTHROPIC_API_KEY"
	case "gemini":
		return "GEMINI_API_KEY"
	default:
		return "OPENAI_API_KEY"
	}
}

// Validate checks the configuration for internally consistent values.
func (cfg *AppConfig) Validate() error {
	v := NewValidator()

	v.ValidateOneOf("provider.type", cfg.Provider.Type, "openai", "claude", "gemini")
	v.RequireNonEmpty("provider.model", cfg.Provider.Model)
	v.RequireNonEmpty("embedder.model", cfg.Embedder.Model)
	v.RequirePositive("embedder.dimension", cfg.Embedder.Dimension)
	v.ValidateOneOf("store.type", cfg.Store.Type, "memory", "pgvector")
	v.ValidateOneOf("cache.type", cfg.Cache.Type, "none", "memory", "redis")
	v.ValidateOneOf("run_store.type", cfg.RunStore.Type, "none", "memory", "mongo")
	v.RequirePositive("pipeline.k", cfg.Pipeline.K)
	v.ValidateFloatRange("pipeline.temperature", cfg.Pipeline.Temperature, 0, 2)
	v.RequirePositive("ingest.chunk_size", cfg.Ingest.ChunkSize)
	v.ValidateRange("ingest.overlap", cfg.Ingest.Overlap, 0, cfg.Ingest.ChunkSize-1)

	if cfg.Store.Type == "pgvector" {
		if cfg.Store.PG == nil {
			v.RequireNonEmpty("store.pgvector", "")
		} else {
			v.RequireNonEmpty("store.pgvector.host", cfg.Store.PG.Host)
			v.ValidatePort("store.pgvector.port", cfg.Store.PG.Port)
			v.RequireNonEmpty("store.pgvector.db_name", cfg.Store.PG.DBName)
			v.ValidateOneOf("store.pgvector.ssl_mode", cfg.Store.PG.SSLMode,
				"disable", "require", "verify-ca", "verify-full")
		}
	}
	if cfg.Cache.Type == "redis" {
		if cfg.Cache.Redis == nil {
			v.RequireNonEmpty("cache.redis", "")
		} else {
			v.RequireNonEmpty("cache.redis.addr", cfg.Cache.Redis.Addr)
			v.ValidateRange("cache.redis.db", cfg.Cache.Redis.DB, 0, 15)
		}
	}
	if cfg.RunStore.Type == "mongo" {
		if cfg.RunStore.Mongo == nil {
			v.RequireNonEmpty("run_store.mongo", "")
		} else {
			v.RequireNonEmpty("run_store.mongo.uri", cfg.RunStore.Mongo.URI)
			v.RequireNonEmpty("run_store.mongo.database", cfg.RunStore.Mongo.Database)
			v.RequireNonEmpty("run_store.mongo.collection", cfg.RunStore.Mongo.Collection)
		}
	}

	return v.Error()
}
