package debugger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wrenchbot/internal/config"
	"wrenchbot/internal/debugctx"
	"wrenchbot/internal/llmfabric"
	"wrenchbot/internal/respparse"
	"wrenchbot/internal/scratchpad"
	"wrenchbot/internal/types"
)

// FullDebug is Tier 2 (C7): multi-file LLM repair enriched by related files
// and Chain-of-Thought snippets.
type FullDebug struct {
	FS     types.FileInterface
	Client types.LLMClient
	Cfg    config.LLMConfig
	SP     *scratchpad.Scratchpad
}

// Run executes the Tier 2 contract of spec.md §4.7.
func (t *FullDebug) Run(ctx context.Context, ec *debugctx.ErrorContext) TierResult {
	start := time.Now()

	if ec.FilePath == "" || !t.FS.Exists(ec.FilePath) {
		return TierResult{Success: false, Description: "missing or invalid file path"}
	}

	content, err := t.FS.ReadFile(ec.FilePath)
	if err != nil {
		return TierResult{Success: false, Description: "missing or invalid file path"}
	}

	projectRoot := DetectProjectRoot(fileDir(ec.FilePath))
	related := DiscoverRelatedFiles(t.FS, ec.FilePath, content, projectRoot)

	var cotEntries []scratchpad.ExtractedEntry
	if t.SP != nil {
		cotEntries = t.SP.ExtractCoTForDebugging(ec.Message, 5, 0.5)
	}

	prompt := buildFullDebugPrompt(ec, content, related, cotEntries)
	result := llmfabric.CallLLMWithRetry(ctx, t.Client, "generate", map[string]any{
		"prompt": prompt,
	}, t.Cfg, t.SP, ec.Message)

	if !result.Success {
		return TierResult{Success: false, Description: result.Error, DurationSeconds: time.Since(start).Seconds()}
	}

	responseText, _ := result.Response["response"].(string)
	fixes := respparse.ExtractMultiFileFixes(responseText, ec.FilePath)
	if len(fixes) == 0 {
		return TierResult{Success: false, Reasoning: responseText, DurationSeconds: time.Since(start).Seconds()}
	}

	applied := make(map[string]string)
	for path, newContent := range fixes {
		if !t.FS.Exists(path) && !IsSafeNewFile(path, projectRoot) {
			continue
		}
		if err := t.FS.WriteFile(path, newContent); err != nil {
			continue
		}
		applied[path] = newContent
	}

	return TierResult{
		Success:         len(applied) > 0,
		Description:     fmt.Sprintf("full debug applied to %d file(s)", len(applied)),
		Reasoning:       respparse.ExtractReasoningFromResponse(responseText),
		Changes:         applied,
		DurationSeconds: time.Since(start).Seconds(),
		Metadata:        map[string]any{"tier": "FullDebug", "related_files": len(related)},
	}
}

func buildFullDebugPrompt(ec *debugctx.ErrorContext, content string, related map[string]string, cot []scratchpad.ExtractedEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are fixing a %s error across potentially multiple files.\n", ec.Category.String())
	fmt.Fprintf(&b, "Primary file: %s\nError: %s\n\nPrimary file contents:\n%s\n", ec.FilePath, ec.Message, content)

	if len(related) > 0 {
		b.WriteString("\nRelated files:\n")
		for path, body := range related {
			fmt.Fprintf(&b, "```filepath:%s\n%s\n```\n", path, body)
		}
	}

	if len(cot) > 0 {
		b.WriteString("\nPrevious debugging insights:\n")
		for _, entry := range cot {
			fmt.Fprintf(&b, "- (relevance %.2f) %s\n", entry.Score, entry.Entry.Message)
		}
	}

	if ec.TestFailure != nil {
		fmt.Fprintf(&b, "\nTest Failure Details:\nTest: %s\nExpected: %s\nActual: %s\n",
			ec.TestFailure.TestName, ec.TestFailure.Expected, ec.TestFailure.Actual)
	}

	b.WriteString("\nReturn each changed file as a fenced block: ```filepath:<path>\\n<content>\\n```\n")
	return b.String()
}

func fileDir(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx == -1 {
		return "."
	}
	return path[:idx]
}
