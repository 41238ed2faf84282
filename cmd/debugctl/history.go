package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyBatch string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Replay a batch of errors and print the resulting DebugAttempt log",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historyBatch == "" {
			return fmt.Errorf("--batch is required")
		}
		inputs, err := readBatchFile(historyBatch)
		if err != nil {
			return err
		}

		orch := newOrchestrator(patternStorePath)
		ctx := context.Background()
		for _, in := range inputs {
			orch.HandleError(ctx, in)
		}

		out := cmd.OutOrStdout()
		for i, attempt := range orch.GetErrorHistory() {
			status := color.RedString("fail")
			if attempt.Success {
				status = color.GreenString("ok")
			}
			fmt.Fprintf(out, "%3d  %-8s  %-10s  %-20s  %s\n",
				i+1, status, attempt.Phase.String(), attempt.ErrorContext.Category.String(), attempt.FixDescription)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyBatch, "batch", "", "Path to a JSONL file of errors to replay")
	historyCmd.MarkFlagRequired("batch")
}
