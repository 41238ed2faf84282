package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wrenchbot/internal/debugger"
)

var analyzeTraceback string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <message>",
	Short: "Classify an error and derive severity, fix approach, and recommended tier",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch := newOrchestrator(patternStorePath)
		report := orch.AnalyzeError(args[0], analyzeTraceback)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "category:         %s\n", color.CyanString(report.Category.String()))
		fmt.Fprintf(out, "severity:         %s\n", severityColor(report.Severity))
		fmt.Fprintf(out, "fix approach:     %s\n", report.FixApproach)
		fmt.Fprintf(out, "recommended tier: %s\n", report.RecommendedTier.String())
		fmt.Fprintf(out, "similar history:  %d prior attempt(s)\n", len(report.SimilarHistory))
		return nil
	},
}

func severityColor(s debugger.Severity) string {
	switch s {
	case debugger.SeverityHigh:
		return color.RedString(string(s))
	case debugger.SeverityMedium:
		return color.YellowString(string(s))
	default:
		return color.GreenString(string(s))
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeTraceback, "traceback", "", "Optional traceback text to aid classification")
}
