// Package types defines the external interfaces the debugging engine
// consumes (spec.md §6) — the boundary against the workspace initialiser,
// planning pipeline, code generator, and file/shell tooling, all of which are
// out of scope per spec.md §1 and described here only as interfaces.
package types

import "context"

// FileInterface abstracts reading and writing workspace files. Writes are
// expected to be atomic from the caller's perspective (spec.md §6).
type FileInterface interface {
	ReadFile(path string) (string, error)
	WriteFile(path string, content string) error
	Exists(path string) bool
}

// ShellInterface abstracts running external commands (used by C10 to invoke
// lint/type-check tools and the test suite).
type ShellInterface interface {
	RunCommand(ctx context.Context, cmd string, timeout float64) (exitCode int, output string, err error)
}

// LLMClient abstracts a single named method call against an LLM provider.
// PromptData carries at least "prompt" or "messages"; Config carries a
// "timeout" key injected by the LLM Fabric (spec.md §4.4). The concrete wire
// protocol is explicitly out of scope (spec.md §1 Non-goals).
type LLMClient interface {
	// Call invokes the method named methodName with the given prompt data
	// and returns a result map containing at least a textual response field.
	Call(ctx context.Context, methodName string, promptData map[string]any) (map[string]any, error)
}

// PlannerInterface abstracts the planning pipeline (out of scope; spec.md §1).
type PlannerInterface interface {
	GeneratePlan(ctx context.Context, task string, planContext map[string]any) (success bool, plan map[string]any, err error)
}

// CodeGeneratorInterface abstracts the code generator (out of scope; spec.md §1).
type CodeGeneratorInterface interface {
	GenerateCode(ctx context.Context, task string, plan map[string]any, techStack string, maxTokenCount int) (success bool, files map[string]string, err error)
}
