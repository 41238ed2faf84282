// Package main implements debugctl, the command-line surface over the
// Three-Tier Debugging Engine.
//
// Commands:
//   - classify  - run the error classifier (C1/C2) against a message
//   - analyze   - classify plus derived severity/fix-approach/recommended tier (C9)
//   - debug     - run the full orchestrator against one error (C6-C9)
//   - history   - replay a batch of errors and print the resulting DebugAttempt log
//   - stats     - replay a batch of errors and print aggregated DebugStats
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"wrenchbot/internal/logging"
)

var (
	workspace        string
	patternStorePath string
	verbose          bool
)

var rootCmd = &cobra.Command{
	Use:   "debugctl",
	Short: "debugctl drives the Three-Tier Debugging Engine from the command line",
	Long: `debugctl is the CLI surface of the debugging engine: a classifier-backed
tiered recovery orchestrator (quick fix, full debug, strategic restart) with a
code-generation validation loop behind it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		ws := workspace
		if ws == "" {
			var err error
			ws, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve workspace: %w", err)
			}
		}
		if err := logging.Initialize(ws, verbose); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize logging: %v\n", err)
		}
		if patternStorePath == "" {
			patternStorePath = defaultPatternStorePath(ws)
		} else if !filepath.IsAbs(patternStorePath) {
			patternStorePath = filepath.Join(ws, patternStorePath)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVar(&patternStorePath, "pattern-store", "", "Path to the persisted pattern store (default: <workspace>/.wrenchbot/pattern_store.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable file-based debug logging under .wrenchbot/logs")

	rootCmd.AddCommand(
		classifyCmd,
		analyzeCmd,
		debugCmd,
		historyCmd,
		statsCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
