package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hrops-ai/copilot/eval"
)

func evalCmd() *cobra.Command {
	var (
		outPath  string
		parallel int
	)

	cmd := &cobra.Command{
		Use:   "eval [questions.json]",
		Short: "Run an evaluation suite and write a grading report",
		Args:  cobra.ExactArgs(1),
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

			questions, err := eval.LoadQuestions(args[0])
			if err != nil {
				return err
			}
			runner, err := eval.NewRunner(a.Pipeline, eval.WithConcurrency(parallel))
			if err != nil {
				return err
			}

			report := runner.Run(ctx, questions)
			if err := eval.WriteReport(outPath, report); err != nil {
				return err
			}
			fmt.Printf("Eval %s: %d/%d passed, report written to %s\n",
				report.EvalID, report.Passed, report.Total, outPath)
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d cases failed", report.Failed, report.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "eval/report.json", "report output path")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "questions answered concurrently")
	return cmd
}
