package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	workspace = ""
	patternStorePath = ""
	verbose = false

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(append(args, "--workspace", t.TempDir()))
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestClassifyCommand_PrintsCategory(t *testing.T) {
	out, err := runCLI(t, "classify", "TypeError: unsupported operand type(s)")
	require.NoError(t, err)
	assert.Contains(t, out, "category:")
}

func TestAnalyzeCommand_PrintsHighSeverityForPermissionError(t *testing.T) {
	out, err := runCLI(t, "analyze", "PermissionError: access is denied")
	require.NoError(t, err)
	assert.Contains(t, out, "severity:")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "environment_fix")
}

func TestHistoryCommand_RequiresBatchFlag(t *testing.T) {
	_, err := runCLI(t, "history")
	assert.Error(t, err)
}

func TestHistoryCommand_ReplaysBatchAndReportsFailure(t *testing.T) {
	dir := t.TempDir()
	batchPath := filepath.Join(dir, "errors.jsonl")
	require.NoError(t, os.WriteFile(batchPath, []byte(`{"message":"TypeError: bad argument","file_path":"missing.go"}`+"\n"), 0o644))

	out, err := runCLI(t, "history", "--batch", batchPath)
	require.NoError(t, err)
	assert.Contains(t, out, "fail")
}

func TestStatsCommand_ReplaysBatchAndReportsTotals(t *testing.T) {
	dir := t.TempDir()
	batchPath := filepath.Join(dir, "errors.jsonl")
	require.NoError(t, os.WriteFile(batchPath, []byte(`{"message":"TypeError: bad argument","file_path":"missing.go"}`+"\n"), 0o644))

	out, err := runCLI(t, "stats", "--batch", batchPath)
	require.NoError(t, err)
	assert.Contains(t, out, "total attempts:")
}
