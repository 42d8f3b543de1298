package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hrops-ai/copilot/tui"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat over the policy corpus",
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

			program := tea.NewProgram(tui.New(a.Pipeline), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}
