// Command hrcopilot answers HR policy questions grounded in an ingested
// document corpus. Subcommands cover ingestion, one-shot questions, an
// interactive chat, evaluation suites, and an MCP server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hrops-ai/copilot/app"
	"github.com/hrops-ai/copilot/config"
	"github.com/hrops-ai/copilot/pkg/logging"
	"github.com/hrops-ai/copilot/pkg/telemetry"
)

var Version = "dev"

var (
	flagConfig string
	flagDocs   string
)

func main() {
	// Missing .env is fine: configuration names the variables it needs.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:     "hrcopilot",
		Short:   "HR policy copilot with citation-verified answers",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config file (default: ./hrcopilot.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagDocs, "docs", "", "policy document directory to ingest before answering")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(evalCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration, initializes telemetry, and wires the app. The
// returned teardown flushes telemetry and closes connections.
func setup(ctx context.Context) (*app.App, func(), error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, _, err = config.LoadDefault()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "hr-copilot",
		ServiceVersion: Version,
		Environment:    cfg.Telemetry.Environment,
		Disable:        cfg.Telemetry.Disable,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init telemetry: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, nil, err
	}

	logger := logging.WithComponent("cli")
	teardown := func() {
		if err := a.Close(ctx); err != nil {
			logger.Warn("close failed", "error", err)
		}
		if err := shutdown(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}
	return a, teardown, nil
}

// ingestDocs loads the --docs directory when set. Commands that answer
// questions need this for stores that start empty.
func ingestDocs(ctx context.Context, a *app.App) error {
	if flagDocs == "" {
		return nil
	}
	stats, err := a.Ingestor.IngestDir(ctx, flagDocs)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", flagDocs, err)
	}
	fmt.Fprintf(os.Stderr, "Ingested %s\n", stats.Describe())
	return nil
}
