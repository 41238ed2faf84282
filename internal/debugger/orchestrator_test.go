package debugger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrenchbot/internal/config"
	"wrenchbot/internal/taxonomy"
	"wrenchbot/internal/types/testkit"
)

func newTestOrchestrator(t *testing.T) (*Orchestrator, *testkit.FakeFileSystem, *testkit.FakeLLMClient, *testkit.FakePlanner, *testkit.FakeCodeGenerator) {
	t.Helper()

	fs := testkit.NewFakeFileSystem()
	fs.Seed("bad.go", "package main\n")

	llm := &testkit.FakeLLMClient{}
	planner := &testkit.FakePlanner{}
	codeGen := &testkit.FakeCodeGenerator{}

	cfg := config.DefaultConfig()
	cfg.LLM.MaxRetries = 0
	cfg.LLM.FallbackStrategy = "none"

	store := taxonomy.NewPatternStore(filepath.Join(t.TempDir(), "pattern_store.json"))

	orch := NewOrchestrator(cfg, nil, store, fs, llm, planner, codeGen)
	return orch, fs, llm, planner, codeGen
}

// S4 — tier escalation: 6 similar failing errors, defaults 2/3/2, expected
// tier sequence QuickFix, QuickFix, FullDebug, FullDebug, FullDebug,
// StrategicRestart. Also exercises invariant 2 (monotone non-decreasing
// tier selection until first success).
func TestHandleError_S4TierEscalation(t *testing.T) {
	orch, _, llm, _, codeGen := newTestOrchestrator(t)

	for i := 0; i < 10; i++ {
		llm.Responses = append(llm.Responses, testkit.FakeLLMResponse{Err: errors.New("invalid syntax")})
	}
	codeGen.Success = false

	expectedPhases := []string{"QuickFix", "QuickFix", "FullDebug", "FullDebug", "FullDebug", "StrategicRestart"}

	for i := range expectedPhases {
		result := orch.HandleError(context.Background(), HandleErrorInput{
			Message:  "TypeError: bad argument",
			FilePath: "bad.go",
		})
		assert.False(t, result.Success, "call %d should fail (LLM always errors)", i)
	}

	history := orch.GetErrorHistory()
	require.Len(t, history, len(expectedPhases))
	for i, expected := range expectedPhases {
		assert.Equal(t, expected, history[i].Phase.String(), "call %d phase", i)
	}
}

// Invariant 4: a successful tier result clears current_error and zeroes
// every tier counter before the next call.
func TestHandleError_SuccessResetsCounters(t *testing.T) {
	orch, _, llm, _, _ := newTestOrchestrator(t)

	llm.Responses = append(llm.Responses, testkit.FakeLLMResponse{
		Result: map[string]any{"response": "```go\npackage main\n```"},
	})

	result := orch.HandleError(context.Background(), HandleErrorInput{
		Message:  "TypeError: bad argument",
		FilePath: "bad.go",
	})

	require.True(t, result.Success)
	assert.Equal(t, 0, orch.generatorAttempts)
	assert.Equal(t, 0, orch.debuggerAttempts)
	assert.Equal(t, 0, orch.restartAttempts)
	assert.Nil(t, orch.currentError)
}

// Invariant 3: every recorded DebugAttempt has a non-negative duration and
// a timestamp no earlier than the previous attempt's.
func TestHandleError_RecordedAttemptsAreOrderedAndNonNegative(t *testing.T) {
	orch, _, llm, _, _ := newTestOrchestrator(t)

	llm.Responses = append(llm.Responses,
		testkit.FakeLLMResponse{Err: errors.New("invalid syntax")},
		testkit.FakeLLMResponse{Result: map[string]any{"response": "```go\npackage main\n```"}},
	)

	orch.HandleError(context.Background(), HandleErrorInput{Message: "TypeError: bad argument", FilePath: "bad.go"})
	orch.HandleError(context.Background(), HandleErrorInput{Message: "TypeError: bad argument", FilePath: "bad.go"})

	history := orch.GetErrorHistory()
	require.Len(t, history, 2)
	for i, attempt := range history {
		assert.GreaterOrEqual(t, attempt.DurationSeconds, 0.0, "attempt %d duration", i)
		if i > 0 {
			assert.False(t, attempt.Timestamp.Before(history[i-1].Timestamp), "attempt %d should not precede attempt %d", i, i-1)
		}
	}
}

func TestHandleError_PossibleBadTestSkipsTier1(t *testing.T) {
	orch, _, llm, _, _ := newTestOrchestrator(t)

	llm.Responses = append(llm.Responses, testkit.FakeLLMResponse{Err: errors.New("invalid syntax")})

	result := orch.HandleError(context.Background(), HandleErrorInput{
		Message:  "TypeError: bad argument",
		FilePath: "bad.go",
		Metadata: map[string]any{
			"test_failure": map[string]any{"possible_bad_test": true},
		},
	})

	assert.False(t, result.Success)
	history := orch.GetErrorHistory()
	require.Len(t, history, 1)
	assert.Equal(t, "FullDebug", history[0].Phase.String())
}

func TestAnalyzeError_DerivesSeverityAndApproach(t *testing.T) {
	orch, _, _, _, _ := newTestOrchestrator(t)

	report := orch.AnalyzeError("PermissionError: access is denied", "")
	assert.Equal(t, taxonomy.CategoryPermission, report.Category)
	assert.Equal(t, SeverityHigh, report.Severity)
	assert.Equal(t, FixApproachEnvironment, report.FixApproach)
}

func TestCanDebugError_FalseWhenFileMissing(t *testing.T) {
	orch, fs, _, _, _ := newTestOrchestrator(t)
	assert.False(t, orch.CanDebugError(fs, "TypeError: bad argument", "missing.go"))
}

func TestCanDebugError_TrueForDebuggableCategory(t *testing.T) {
	orch, fs, _, _, _ := newTestOrchestrator(t)
	assert.True(t, orch.CanDebugError(fs, "TypeError: bad argument", "bad.go"))
}

func TestGetCurrentError_TracksInFlightEpisodeAndReset(t *testing.T) {
	orch, _, llm, _, _ := newTestOrchestrator(t)
	llm.Responses = append(llm.Responses, testkit.FakeLLMResponse{Err: errors.New("invalid syntax")})

	assert.Nil(t, orch.GetCurrentError())

	orch.HandleError(context.Background(), HandleErrorInput{Message: "TypeError: bad argument", FilePath: "bad.go"})
	require.NotNil(t, orch.GetCurrentError())
	assert.Equal(t, "TypeError: bad argument", orch.GetCurrentError().Message)

	orch.Reset()
	assert.Nil(t, orch.GetCurrentError())
	assert.Equal(t, 0, orch.generatorAttempts)
}

func TestGetDebugStats_CountsByPhaseAndCategory(t *testing.T) {
	orch, _, llm, _, _ := newTestOrchestrator(t)
	llm.Responses = append(llm.Responses, testkit.FakeLLMResponse{
		Result: map[string]any{"response": "```go\npackage main\n```"},
	})

	orch.HandleError(context.Background(), HandleErrorInput{Message: "TypeError: bad argument", FilePath: "bad.go"})

	stats := orch.GetDebugStats()
	assert.Equal(t, 1, stats.TotalAttempts)
	assert.Equal(t, 1, stats.SuccessfulAttempts)
	assert.Equal(t, 1, stats.ByPhase[taxonomy.PhaseQuickFix])
	assert.Equal(t, 1, stats.ByCategory[taxonomy.CategoryType])
}
