// Package app assembles the copilot from configuration: completion
// provider, embedder, vector store, caches, run archive, and the answering
// pipeline itself.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	openaisdk "github.com/openai/openai-go/v3"

	"github.com/hrops-ai/copilot/cache"
	"github.com/hrops-ai/copilot/config"
	embedderopenai "github.com/hrops-ai/copilot/contrib/embedder/openai"
	"github.com/hrops-ai/copilot/contrib/provider/claude"
	"github.com/hrops-ai/copilot/contrib/provider/gemini"
	provideropenai "github.com/hrops-ai/copilot/contrib/provider/openai"
	"github.com/hrops-ai/copilot/contrib/tokenizer/tiktoken"
	"github.com/hrops-ai/copilot/contrib/vector/inmemory"
	"github.com/hrops-ai/copilot/contrib/vector/pg"
	"github.com/hrops-ai/copilot/evidence"
	"github.com/hrops-ai/copilot/ingest"
	"github.com/hrops-ai/copilot/llm"
	"github.com/hrops-ai/copilot/middleware"
	"github.com/hrops-ai/copilot/pipeline"
	"github.com/hrops-ai/copilot/retrieval"
	"github.com/hrops-ai/copilot/runstore"
	"github.com/hrops-ai/copilot/vector"
)

// App holds the assembled components for one process.
type App struct {
	Config    *config.AppConfig
	Client    llm.Client
	Store     vector.Store
	Embedder  vector.Embedder
	Retriever *retrieval.Retriever
	Pipeline  *pipeline.Pipeline
	Ingestor  *ingest.Ingestor
	RunStore  runstore.Store

	closers []func(context.Context) error
}

// New wires every component the configuration selects.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg}

	if err := a.buildClient(ctx, cfg); err != nil {
		return nil, err
	}
	if err := a.buildStore(cfg); err != nil {
		return nil, err
	}
	a.Embedder = embedderopenai.New(
		os.Getenv(cfg.Embedder.APIKeyEnv),
		cfg.Embedder.BaseURL,
		openaisdk.EmbeddingModel(cfg.Embedder.Model),
		cfg.Embedder.Dimension,
	)

	retriever, err := retrieval.New(a.Store, a.Embedder)
	if err != nil {
		return nil, err
	}
	a.Retriever = retriever

	counter, err := tiktoken.New(cfg.Provider.Model)
	if err != nil {
		// Older or unknown model names fall back to the common encoding.
		counter, err = tiktoken.New("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("init tokenizer: %w", err)
		}
	}

	ingestor, err := ingest.New(a.Store, a.Embedder, counter, ingest.Config{
		Chunker: ingest.Chunker{
			Size:    cfg.Ingest.ChunkSize,
			Overlap: cfg.Ingest.Overlap,
			MinLen:  cfg.Ingest.MinChunkLen,
		},
		BatchSize: cfg.Ingest.BatchSize,
		Rebuild:   true,
	})
	if err != nil {
		return nil, err
	}
	a.Ingestor = ingestor

	opts, err := a.pipelineOptions(ctx, cfg, counter)
	if err != nil {
		return nil, err
	}
	p, err := pipeline.New(retriever, a.Client, opts...)
	if err != nil {
		return nil, err
	}
	a.Pipeline = p
	return a, nil
}

func (a *App) buildClient(ctx context.Context, cfg *config.AppConfig) error {
	apiKey := os.Getenv(cfg.Provider.APIKeyEnv)
	if apiKey == "" {
		return fmt.Errorf("provider API key not set: environment variable %s is empty", cfg.Provider.APIKeyEnv)
	}

	switch cfg.Provider.Type {
	case "openai":
		a.Client = provideropenai.New(&provideropenai.Config{
			APIKey:    apiKey,
			BaseURL:   cfg.Provider.BaseURL,
			Model:     cfg.Provider.Model,
			MaxTokens: int64(cfg.Provider.MaxTokens),
		})
	case "claude":
		a.Client = claude.New(&claude.Config{
			APIKey:    apiKey,
			BaseURL:   cfg.Provider.BaseURL,
			Model:     cfg.Provider.Model,
			MaxTokens: int64(cfg.Provider.MaxTokens),
		})
	case "gemini":
		client, err := gemini.New(ctx, &gemini.Config{
			APIKey:    apiKey,
			Model:     cfg.Provider.Model,
			MaxTokens: int32(cfg.Provider.MaxTokens),
		})
		if err != nil {
			return err
		}
		a.Client = client
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	default:
		return fmt.Errorf("unknown provider type %q", cfg.Provider.Type)
	}

	a.Client = middleware.Chain(a.Client,
		middleware.WithLogging(nil),
		middleware.WithRetry(middleware.DefaultRetryConfig()),
	)
	return nil
}

func (a *App) buildStore(cfg *config.AppConfig) error {
	switch cfg.Store.Type {
	case "memory":
		a.Store = inmemory.New()
	case "pgvector":
		store, err := pg.New(&pg.Config{
			Host:      cfg.Store.PG.Host,
			Port:      cfg.Store.PG.Port,
			User:      cfg.Store.PG.User,
			Password:  os.Getenv(cfg.Store.PG.PasswordEnv),
			DBName:    cfg.Store.PG.DBName,
			SSLMode:   cfg.Store.PG.SSLMode,
			Dimension: cfg.Embedder.Dimension,
			TableName: cfg.Store.PG.TableName,
		})
		if err != nil {
			return err
		}
		a.Store = store
		a.closers = append(a.closers, func(context.Context) error { return store.Close() })
	default:
		return fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
	return nil
}

func (a *App) pipelineOptions(ctx context.Context, cfg *config.AppConfig, counter *tiktoken.Tokenizer) ([]pipeline.Option, error) {
	filter := evidence.DefaultFilterConfig()
	if cfg.Pipeline.MaxDistance > 0 {
		filter.MaxDistance = cfg.Pipeline.MaxDistance
		filter.EnforceDistance = cfg.Pipeline.EnforceDistance
	}

	opts := []pipeline.Option{
		pipeline.WithK(cfg.Pipeline.K),
		pipeline.WithCompanyName(cfg.Pipeline.CompanyName),
		pipeline.WithTemperature(cfg.Pipeline.Temperature),
		pipeline.WithFilterConfig(filter),
		pipeline.WithTokenCounter(counter),
	}
	if cfg.Pipeline.SecondOpinion {
		opts = append(opts, pipeline.WithVerifierOpinion(a.Client))
	}

	switch cfg.Cache.Type {
	case "none":
	case "memory":
		opts = append(opts, pipeline.WithCache(cache.NewMemory(24*time.Hour)))
	case "redis":
		rcfg := cache.DefaultRedisConfig()
		if cfg.Cache.Redis != nil {
			rcfg.Addr = cfg.Cache.Redis.Addr
			rcfg.Password = os.Getenv(cfg.Cache.Redis.PasswordEnv)
			rcfg.DB = cfg.Cache.Redis.DB
			if cfg.Cache.Redis.TTLHours > 0 {
				rcfg.TTL = time.Duration(cfg.Cache.Redis.TTLHours) * time.Hour
			}
		}
		rc, err := cache.NewRedis(ctx, rcfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func(context.Context) error { return rc.Close() })
		opts = append(opts, pipeline.WithCache(rc))
	}

	switch cfg.RunStore.Type {
	case "none":
	case "memory":
		a.RunStore = runstore.NewMemory()
	case "mongo":
		mcfg := runstore.DefaultMongoConfig()
		if cfg.RunStore.Mongo != nil {
			mcfg.URI = cfg.RunStore.Mongo.URI
			mcfg.Database = cfg.RunStore.Mongo.Database
			mcfg.Collection = cfg.RunStore.Mongo.Collection
		}
		ms, err := runstore.NewMongo(ctx, mcfg)
		if err != nil {
			return nil, err
		}
		a.RunStore = ms
		a.closers = append(a.closers, ms.Close)
	}
	if a.RunStore != nil {
		opts = append(opts, pipeline.WithRunRecorder(a.RunStore))
	}

	return opts, nil
}

// Close releases every connection-holding component in reverse order.
func (a *App) Close(ctx context.Context) error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
