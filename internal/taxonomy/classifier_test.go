package taxonomy

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S1 — classify a syntax error.
func TestClassify_SyntaxError(t *testing.T) {
	message := "SyntaxError: invalid syntax"
	traceback := "  File 'x.py', line 10\n    if x = 5:\n         ^\nSyntaxError: invalid syntax"

	got := Classify(message, traceback, nil)

	assert.Equal(t, CategorySyntax, got)
}

func TestClassify_EveryNonUnknownCategoryHasAPattern(t *testing.T) {
	seen := make(map[ErrorCategory]bool)
	for _, entry := range PatternTable {
		require.NotEmpty(t, entry.Patterns, "category %s has no patterns", entry.Category)
		seen[entry.Category] = true
	}
	for _, cat := range AllCategories() {
		assert.True(t, seen[cat], "category %s missing from PatternTable", cat)
	}
}

func TestClassify_FallsBackToPatternStore(t *testing.T) {
	dir := t.TempDir()
	store := NewPatternStore(filepath.Join(dir, "patterns.json"))
	require.NoError(t, store.Update("unsupported operand weirdness here", "Type"))
	require.NoError(t, store.Update("unsupported operand weirdness here", "Type"))

	// A message with no regex match but classifier-learned tokens should
	// fall back to the naive-Bayes prediction.
	got := Classify("weirdness occurred", "", store)
	assert.Equal(t, CategoryType, got)
}

func TestClassify_UnknownWhenNothingMatches(t *testing.T) {
	got := Classify("the quick brown fox", "jumped over", nil)
	assert.Equal(t, CategoryUnknown, got)
}

func TestCategoryRoundTrip(t *testing.T) {
	for _, cat := range AllCategories() {
		assert.Equal(t, cat, CategoryFromString(cat.String()))
	}
	assert.Equal(t, CategoryUnknown, CategoryFromString("not-a-real-category"))
}
