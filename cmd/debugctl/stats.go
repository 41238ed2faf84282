package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsBatch string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Replay a batch of errors and print aggregated debug statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsBatch == "" {
			return fmt.Errorf("--batch is required")
		}
		inputs, err := readBatchFile(statsBatch)
		if err != nil {
			return err
		}

		orch := newOrchestrator(patternStorePath)
		ctx := context.Background()
		for _, in := range inputs {
			orch.HandleError(ctx, in)
		}

		stats := orch.GetDebugStats()
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "total attempts:      %d\n", stats.TotalAttempts)
		fmt.Fprintf(out, "successful attempts: %s\n", color.GreenString("%d", stats.SuccessfulAttempts))

		fmt.Fprintln(out, "\nby phase:")
		for _, phase := range sortedKeys(stats.ByPhase) {
			fmt.Fprintf(out, "  %-16s %d\n", phase.String(), stats.ByPhase[phase])
		}

		fmt.Fprintln(out, "\nby category:")
		for _, category := range sortedKeys(stats.ByCategory) {
			fmt.Fprintf(out, "  %-16s %d\n", category.String(), stats.ByCategory[category])
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsBatch, "batch", "", "Path to a JSONL file of errors to replay")
	statsCmd.MarkFlagRequired("batch")
}

func sortedKeys[K fmt.Stringer](m map[K]int) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}
