package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"wrenchbot/internal/taxonomy"
)

var classifyTraceback string

var classifyCmd = &cobra.Command{
	Use:   "classify <message>",
	Short: "Classify an error message into its taxonomy category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := taxonomy.NewPatternStore(patternStorePath)
		category := taxonomy.Classify(args[0], classifyTraceback, store)

		out := cmd.OutOrStdout()
		label := color.New(color.FgCyan, color.Bold).Sprint(category.String())
		fmt.Fprintf(out, "category: %s\n", label)
		if category.IsEnvironmental() {
			fmt.Fprintln(out, color.YellowString("note: environmental category (escalates restart strategy per Tier 3 rules)"))
		}
		if category.IsImplementationIssue() {
			fmt.Fprintln(out, color.YellowString("note: implementation-issue category (downgrades ModifyRequest to RedesignPlan)"))
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyTraceback, "traceback", "", "Optional traceback text to aid classification")
}
