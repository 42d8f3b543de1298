package main

import (
	"github.com/spf13/cobra"

	"github.com/hrops-ai/copilot/mcp"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the answer tool over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, teardown, err := setup(ctx)
			if err != nil {
				return err
			}
			defer teardown()

			if err := ingestDocs(ctx, a); err != nil {
				return err
			}

			server, err := mcp.NewServer(a.Pipeline, Version)
			if err != nil {
				return err
			}
			return server.Run(ctx)
		},
	}
}
