package main

import (
	"context"
	"fmt"

	"wrenchbot/internal/llmfabric"
)

// noopLLMClient is the default LLMClient wired by the CLI when no real
// provider is configured. Its wire protocol is explicitly out of scope
// (spec.md §1 Non-goals), so this always refuses with a NonTransientError
// rather than pretending to call a model; commands that only classify or
// analyze never reach it.
type noopLLMClient struct{}

func (noopLLMClient) Call(_ context.Context, methodName string, _ map[string]any) (map[string]any, error) {
	return nil, &llmfabric.NonTransientError{Cause: fmt.Errorf("no LLM client configured for method %q", methodName)}
}
