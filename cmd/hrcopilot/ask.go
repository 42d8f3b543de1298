package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one policy question and print the deliverable",
		Args:  cobra.MinimumNArgs(1),
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

			question := strings.Join(args, " ")
			result, err := a.Pipeline.Answer(ctx, question)
			if err != nil && result == nil {
				return err
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: degraded answer: %v\n", err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Println(result.Answer)
			if d := result.Deliverable; d != nil {
				fmt.Println()
				fmt.Println("Summary:", d.ExecutiveSummary)
				if len(d.ActionList) > 0 {
					fmt.Println("Actions:")
					for _, action := range d.ActionList {
						fmt.Printf("  - %s (%s, due %s, confidence %.2f)\n",
							action.Action, action.Owner, action.DueDate, action.Confidence)
					}
				}
				if len(d.Sources) > 0 {
					fmt.Println("Sources:")
					for _, s := range d.Sources {
						fmt.Println("  -", s)
					}
				}
			}
			if result.Verdict != nil {
				fmt.Println("Verdict:", result.Verdict.Status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "print the full result as JSON")
	return cmd
}
