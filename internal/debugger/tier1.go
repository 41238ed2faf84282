package debugger

import (
	"context"
	"fmt"
	"time"

	"wrenchbot/internal/config"
	"wrenchbot/internal/debugctx"
	"wrenchbot/internal/llmfabric"
	"wrenchbot/internal/respparse"
	"wrenchbot/internal/scratchpad"
	"wrenchbot/internal/types"
)

// TierResult is the common shape returned by every tier (spec.md §4.6-§4.8).
type TierResult struct {
	Success         bool
	Description     string
	Reasoning       string
	Changes         map[string]string
	DurationSeconds float64
	Metadata        map[string]any
}

// QuickFix is Tier 1 (C6): single-file LLM-driven repair using minimal
// context. Grounded on the teacher's coder shard's single-edit path.
type QuickFix struct {
	FS     types.FileInterface
	Client types.LLMClient
	Cfg    config.LLMConfig
	SP     *scratchpad.Scratchpad
}

// Run executes the Tier 1 contract of spec.md §4.6.
func (t *QuickFix) Run(ctx context.Context, ec *debugctx.ErrorContext) TierResult {
	start := time.Now()

	if ec.FilePath == "" || !t.FS.Exists(ec.FilePath) {
		return TierResult{Success: false, Description: "missing or invalid file path"}
	}

	content, err := t.FS.ReadFile(ec.FilePath)
	if err != nil {
		return TierResult{Success: false, Description: "missing or invalid file path"}
	}

	prompt := buildQuickFixPrompt(ec, content)
	result := llmfabric.CallLLMWithRetry(ctx, t.Client, "generate", map[string]any{
		"prompt":      prompt,
		"temperature": 0.2,
	}, t.Cfg, t.SP, ec.Message)

	if !result.Success {
		return TierResult{Success: false, Description: result.Error, DurationSeconds: time.Since(start).Seconds()}
	}

	responseText, _ := result.Response["response"].(string)
	code, ok := respparse.ExtractCodeFromResponse(responseText)
	if !ok {
		return TierResult{
			Success:         false,
			Reasoning:       responseText,
			DurationSeconds: time.Since(start).Seconds(),
		}
	}

	intendedChanges := map[string]string{ec.FilePath: code}
	if err := t.FS.WriteFile(ec.FilePath, code); err != nil {
		return TierResult{
			Success:         false,
			Description:     fmt.Sprintf("write failed: %v", err),
			Changes:         intendedChanges,
			DurationSeconds: time.Since(start).Seconds(),
		}
	}

	return TierResult{
		Success:         true,
		Description:     fmt.Sprintf("quick fix applied to %s", ec.FilePath),
		Reasoning:       respparse.ExtractReasoningFromResponse(responseText),
		Changes:         intendedChanges,
		DurationSeconds: time.Since(start).Seconds(),
		Metadata:        map[string]any{"tier": "QuickFix", "used_fallback": result.UsedFallback},
	}
}

// buildQuickFixPrompt satisfies spec.md §4.6's required prompt fields: file
// path, line number (or "unknown"), full file content, category name, and
// any test-failure sub-block.
func buildQuickFixPrompt(ec *debugctx.ErrorContext, fileContent string) string {
	line := "unknown"
	if ec.LineNumber != nil {
		line = fmt.Sprintf("%d", *ec.LineNumber)
	}

	prompt := fmt.Sprintf(
		"You are fixing a %s error.\nFile: %s\nLine: %s\nError: %s\n\nFile contents:\n%s\n",
		ec.Category.String(), ec.FilePath, line, ec.Message, fileContent,
	)

	if ec.TestFailure != nil {
		prompt += fmt.Sprintf(
			"\nTest failure details:\nTest: %s\nExpected: %s\nActual: %s\n",
			ec.TestFailure.TestName, ec.TestFailure.Expected, ec.TestFailure.Actual,
		)
	}

	prompt += "\nReturn the full corrected file content in a single fenced code block."
	return prompt
}
