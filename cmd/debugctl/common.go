package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"wrenchbot/internal/config"
	"wrenchbot/internal/debugger"
	"wrenchbot/internal/taxonomy"
	"wrenchbot/internal/types"
)

// newOrchestrator wires a fresh Orchestrator against the real filesystem and
// shell, with a pattern store persisted under patternStorePath and no LLM
// client configured (spec.md §1 places the provider wire protocol out of
// scope for this CLI).
func newOrchestrator(patternStorePath string) *debugger.Orchestrator {
	cfg := config.DefaultConfig()
	store := taxonomy.NewPatternStore(patternStorePath)
	return debugger.NewOrchestrator(cfg, nil, store, osFileSystem{}, noopLLMClient{}, nil, nil)
}

func defaultPatternStorePath(workspace string) string {
	return filepath.Join(workspace, ".wrenchbot", "pattern_store.json")
}

// batchInput is one line of a --batch JSONL file: the same fields
// HandleErrorInput accepts, expressed as a serializable record.
type batchInput struct {
	Message      string `json:"message"`
	Traceback    string `json:"traceback"`
	FilePath     string `json:"file_path"`
	LineNumber   *int   `json:"line_number"`
	FunctionName string `json:"function_name"`
}

func (b batchInput) toHandleErrorInput() debugger.HandleErrorInput {
	return debugger.HandleErrorInput{
		Message:      b.Message,
		Traceback:    b.Traceback,
		FilePath:     b.FilePath,
		LineNumber:   b.LineNumber,
		FunctionName: b.FunctionName,
	}
}

func readBatchFile(path string) ([]debugger.HandleErrorInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()

	var inputs []debugger.HandleErrorInput
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if line == "" {
			continue
		}
		var b batchInput
		if err := json.Unmarshal([]byte(line), &b); err != nil {
			return nil, fmt.Errorf("batch file line %d: %w", lineNum, err)
		}
		inputs = append(inputs, b.toHandleErrorInput())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	return inputs, nil
}

var _ types.FileInterface = osFileSystem{}
var _ types.ShellInterface = osShell{}
