package codegen

import (
	"context"
	"fmt"
	"strings"

	"wrenchbot/internal/debugger"
	"wrenchbot/internal/logging"
	"wrenchbot/internal/types"
)

// DefaultMaxRefineAttempts bounds in-loop refinement before C10 delegates to
// the debugger (spec.md §4.10 names no fixed number; chosen to match the
// orchestrator's own MAX_DEBUGGER_ATTEMPTS default of 3).
const DefaultMaxRefineAttempts = 3

// ValidationLoop is C10: drives a generator through validate, refine, and
// delegate-to-debug (spec.md §4.10).
type ValidationLoop struct {
	CodeGen   types.CodeGeneratorInterface
	Shell     types.ShellInterface
	Debugger  *debugger.Orchestrator
	Tooling   Tooling
	TechStack string

	// MaxRefineAttempts bounds in-loop refinement attempts per file before
	// falling back to debug_generation_issue. Zero uses the default.
	MaxRefineAttempts int
}

func (vl *ValidationLoop) maxRefineAttempts() int {
	if vl.MaxRefineAttempts > 0 {
		return vl.MaxRefineAttempts
	}
	return DefaultMaxRefineAttempts
}

// GenerateCode is the public contract of spec.md §4.10: an implementation
// plan keyed by file path to a mapping of final generated source text.
func (vl *ValidationLoop) GenerateCode(ctx context.Context, plan Plan) (map[string]string, error) {
	log := logging.Get(logging.CategoryCodegen)
	out := make(map[string]string, len(plan))

	for _, path := range orderedPaths(plan) {
		content, err := vl.processFile(ctx, path, plan[path])
		if err != nil {
			log.Warn("file generation did not converge", "path", path, "error", err)
			continue
		}
		out[path] = content
	}

	return out, nil
}

// processFile runs steps 1-6 of spec.md §4.10 for a single target file.
func (vl *ValidationLoop) processFile(ctx context.Context, path string, details []ImplementationDetail) (string, error) {
	task := describeDetails(path, details)

	content, ok := vl.requestGeneration(ctx, task, nil)
	if !ok {
		return "", fmt.Errorf("codegen: generator produced no content for %s", path)
	}

	content = vl.validateAndRefine(ctx, path, task, content)

	content = vl.runTestPhase(ctx, path, task, content)

	return content, nil
}

// requestGeneration asks the code generator for file content for task as
// given (callers fold prior validation issues in with buildRefineTask); when
// generation fails it returns priorContent, if any, with false (spec.md §4.10
// step 1 and step 4).
func (vl *ValidationLoop) requestGeneration(ctx context.Context, task string, priorContent *string) (string, bool) {
	if vl.CodeGen == nil {
		return "", false
	}
	success, files, err := vl.CodeGen.GenerateCode(ctx, task, nil, vl.TechStack, 0)
	if err != nil || !success || len(files) == 0 {
		if priorContent != nil {
			return *priorContent, false
		}
		return "", false
	}
	for _, content := range files {
		return content, true
	}
	if priorContent != nil {
		return *priorContent, false
	}
	return "", false
}

// validateAndRefine implements spec.md §4.10 steps 2-5: validate, refine
// while attempts remain, else delegate to the debugger on exhaustion.
func (vl *ValidationLoop) validateAndRefine(ctx context.Context, path, task, content string) string {
	log := logging.Get(logging.CategoryCodegen)
	maxAttempts := vl.maxRefineAttempts()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		issues := validateFile(ctx, vl.Shell, vl.Tooling, path)
		if len(issues) == 0 {
			return content
		}

		if attempt == maxAttempts-1 {
			break
		}

		refineTask := buildRefineTask(task, content, issues)
		if refined, ok := vl.requestGeneration(ctx, refineTask, &content); ok {
			content = refined
		}
	}

	finalIssues := validateFile(ctx, vl.Shell, vl.Tooling, path)
	if len(finalIssues) == 0 {
		return content
	}

	if vl.Debugger == nil {
		log.Warn("validation exhausted with no debugger wired", "path", path, "issues", len(finalIssues))
		return content
	}

	info := debugger.GenerationIssueInfo{Content: content}
	for _, issue := range finalIssues {
		info.Issues = append(info.Issues, fmt.Sprintf("[%s] %s", issue.source, issue.message))
		info.Categories = append(info.Categories, debugger.CategorizeGenerationIssue(issue.message))
	}

	fixed, ok := vl.Debugger.DebugGenerationIssue(ctx, path, info, "validation_exhausted")
	if ok {
		return fixed
	}
	return content
}

// runTestPhase implements spec.md §4.10 step 6: run the project test suite
// and, on failure, request a test-oriented refinement, applying it only if
// the result still passes syntax validation.
func (vl *ValidationLoop) runTestPhase(ctx context.Context, path, task, content string) string {
	passed, output := runTestSuite(ctx, vl.Shell, vl.Tooling)
	if passed {
		return content
	}

	refineTask := fmt.Sprintf("%s\n\nThe project test suite failed:\n%s\n", task, output)
	refined, ok := vl.requestGeneration(ctx, refineTask, &content)
	if !ok {
		return content
	}

	if syntaxIssues := validateFile(ctx, vl.Shell, Tooling{SyntaxCheck: vl.Tooling.SyntaxCheck, Timeout: vl.Tooling.Timeout}, path); len(syntaxIssues) > 0 {
		return content
	}
	return refined
}

func buildRefineTask(task, content string, issues []validationIssue) string {
	var b strings.Builder
	b.WriteString(task)
	b.WriteString("\n\nThe previous attempt produced:\n")
	b.WriteString(content)
	b.WriteString("\n\nFix the following validation issues:\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "- [%s] %s\n", issue.source, issue.message)
	}
	return b.String()
}
