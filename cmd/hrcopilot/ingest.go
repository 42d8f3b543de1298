package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Chunk, embed, and index a directory of policy documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, teardown, err := setup(ctx)
			if err != nil {
				return err
			}
			defer teardown()

			stats, err := a.Ingestor.IngestDir(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Ingested %s\n", stats.Describe())
			return nil
		},
	}
}
