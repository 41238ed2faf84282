package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wrenchbot/internal/debugger"
)

var (
	debugFile      string
	debugTraceback string
	debugLine      int
)

var debugCmd = &cobra.Command{
	Use:   "debug <message>",
	Short: "Run the full tiered orchestrator against one error",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch := newOrchestrator(patternStorePath)

		in := debugger.HandleErrorInput{
			Message:   args[0],
			Traceback: debugTraceback,
			FilePath:  debugFile,
		}
		if debugLine > 0 {
			in.LineNumber = &debugLine
		}

		result := orch.HandleError(context.Background(), in)

		out := cmd.OutOrStdout()
		if result.Success {
			fmt.Fprintln(out, color.GreenString("fixed: %s", result.Description))
		} else {
			fmt.Fprintln(out, color.RedString("not fixed: %s", result.Description))
		}
		if result.Reasoning != "" {
			fmt.Fprintf(out, "reasoning:\n%s\n", result.Reasoning)
		}
		for path := range result.Changes {
			fmt.Fprintf(out, "changed: %s\n", path)
		}
		return nil
	},
}

func init() {
	debugCmd.Flags().StringVar(&debugFile, "file", "", "Path to the file the error occurred in")
	debugCmd.Flags().StringVar(&debugTraceback, "traceback", "", "Traceback text")
	debugCmd.Flags().IntVar(&debugLine, "line", 0, "Line number the error occurred at")
}
