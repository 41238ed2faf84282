package taxonomy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S2 — ML fallback.
func TestPatternStore_Predict(t *testing.T) {
	store := NewPatternStore(filepath.Join(t.TempDir(), "patterns.json"))

	require.NoError(t, store.Update("TypeError: unsupported operand", "Type"))
	require.NoError(t, store.Update("TypeError: unsupported operand", "Type"))

	got, ok := store.Predict("unsupported operand type")
	require.True(t, ok)
	assert.Equal(t, "Type", got)
}

func TestPatternStore_EmptyStoreReturnsNothing(t *testing.T) {
	store := NewPatternStore(filepath.Join(t.TempDir(), "patterns.json"))
	_, ok := store.Predict("anything at all")
	assert.False(t, ok)
}

func TestPatternStore_ZeroTokenMessageIsNoOp(t *testing.T) {
	store := NewPatternStore(filepath.Join(t.TempDir(), "patterns.json"))
	require.NoError(t, store.Update("12345 !@#$%", "Type"))
	_, ok := store.Predict("12345 !@#$%")
	assert.False(t, ok)
}

func TestPatternStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	store := NewPatternStore(path)
	require.NoError(t, store.Update("connection refused by peer", "Network"))

	reopened := NewPatternStore(path)
	got, ok := reopened.Predict("refused by some peer")
	require.True(t, ok)
	assert.Equal(t, "Network", got)
}

func TestPatternStore_CorruptFileResetsToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	require.NoError(t, os.WriteFile(path, []byte("{not valid json"), 0o644))

	store := NewPatternStore(path)
	_, ok := store.Predict("anything")
	assert.False(t, ok)
}

// Tokenize keeps only whole whitespace-delimited words that are purely
// alphabetic — a punctuation-adjacent token like "TypeError:" or "'int'" is
// dropped in its entirety, matching error_pattern_learner.py's
// `[w.lower() for w in text.split() if w.isalpha()]`.
func TestTokenize(t *testing.T) {
	got := Tokenize("TypeError: unsupported operand 'int' + 'str' (line 42)")
	assert.Equal(t, []string{"unsupported", "operand"}, got)
}
