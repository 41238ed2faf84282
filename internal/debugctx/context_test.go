package debugctx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrenchbot/internal/taxonomy"
)

func lineNum(n int) *int { return &n }

// S3 — similarity.
func TestSimilar_S3(t *testing.T) {
	e1 := &ErrorContext{Category: taxonomy.CategorySyntax, FilePath: "file.py", LineNumber: lineNum(10), Message: "SyntaxError: invalid syntax"}
	e2 := &ErrorContext{Category: taxonomy.CategorySyntax, FilePath: "file.py", LineNumber: lineNum(12), Message: "SyntaxError: invalid syntax at line 10"}
	e3 := &ErrorContext{Category: taxonomy.CategorySyntax, FilePath: "file.py", LineNumber: lineNum(20), Message: "SyntaxError: invalid syntax at line 10"}

	assert.True(t, Similar(e1, e2))
	assert.False(t, Similar(e1, e3))
}

// Invariant 1 — reflexive, symmetric, never similar across categories.
func TestSimilar_Invariants(t *testing.T) {
	e1 := &ErrorContext{Category: taxonomy.CategorySyntax, FilePath: "a.go", Message: "boom"}
	e2 := &ErrorContext{Category: taxonomy.CategoryType, FilePath: "a.go", Message: "boom"}

	assert.True(t, Similar(e1, e1), "reflexive")
	assert.Equal(t, Similar(e1, e2), Similar(e2, e1), "symmetric")
	assert.False(t, Similar(e1, e2), "different categories never similar")
}

// Invariant 5 — round-trip ErrorContext.ToMap/FromMap.
func TestErrorContext_RoundTrip(t *testing.T) {
	line := 42
	original := &ErrorContext{
		Message:       "TypeError: bad",
		Traceback:     "trace...",
		Category:      taxonomy.CategoryType,
		FilePath:      "pkg/file.go",
		LineNumber:    &line,
		FunctionName:  "DoThing",
		CodeSnippet:   "x := 1",
		Variables:     map[string]string{"x": "1"},
		AttemptNumber: 3,
		Metadata:      map[string]any{"note": "hi"},
		OccurredAt:    time.Now().Truncate(time.Millisecond),
	}

	roundTripped := FromMap(original.ToMap())

	assert.Equal(t, original.Message, roundTripped.Message)
	assert.Equal(t, original.Category, roundTripped.Category)
	assert.Equal(t, original.FilePath, roundTripped.FilePath)
	require.NotNil(t, roundTripped.LineNumber)
	assert.Equal(t, *original.LineNumber, *roundTripped.LineNumber)
	assert.Equal(t, original.FunctionName, roundTripped.FunctionName)
	assert.Equal(t, original.Variables, roundTripped.Variables)
	assert.Equal(t, original.AttemptNumber, roundTripped.AttemptNumber)
	assert.True(t, original.OccurredAt.Equal(roundTripped.OccurredAt))
}
