package scratchpad

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScratchpad(t *testing.T, opts Options) *Scratchpad {
	t.Helper()
	sp, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { sp.Close() })
	return sp
}

func TestScratchpad_LogAndRecentEntries(t *testing.T) {
	dir := t.TempDir()
	sp := newTestScratchpad(t, DefaultOptions(dir))

	sp.Log("planner", "first message", LevelInfo, nil, nil, nil)
	sp.Log("planner", "second message", LevelWarning, nil, nil, []string{"retry"})

	recent := sp.RecentEntries()
	require.Len(t, recent, 2)
	assert.Equal(t, "first message", recent[0].Message)
	assert.Equal(t, "second message", recent[1].Message)
	assert.Equal(t, []string{"retry"}, recent[1].Tags)
}

func TestScratchpad_RecentEntriesRingIsBounded(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	opts.RecentEntriesSize = 3
	sp := newTestScratchpad(t, opts)

	for i := 0; i < 5; i++ {
		sp.Log("planner", "msg", LevelInfo, nil, nil, nil)
	}

	assert.Len(t, sp.RecentEntries(), 3)
}

// Invariant 6: start_section/end_section balance across the file's lifetime.
func TestScratchpad_SectionStackBalances(t *testing.T) {
	dir := t.TempDir()
	sp := newTestScratchpad(t, DefaultOptions(dir))

	sec := SectionDebugging
	sp.StartSection(sec)
	sp.Log("debugger", "inside section", LevelInfo, &sec, nil, nil)
	sp.EndSection(&sec)

	assert.Empty(t, sp.sectionStack)
}

func TestScratchpad_EndSectionMismatchIsNoOp(t *testing.T) {
	dir := t.TempDir()
	sp := newTestScratchpad(t, DefaultOptions(dir))

	debugging := SectionDebugging
	testing_ := SectionTesting
	sp.StartSection(debugging)
	sp.EndSection(&testing_)

	require.Len(t, sp.sectionStack, 1)
	assert.Equal(t, SectionDebugging, sp.sectionStack[0])
}

func TestScratchpad_CloseOpenSectionsOnShutdown(t *testing.T) {
	dir := t.TempDir()
	sp := newTestScratchpad(t, DefaultOptions(dir))

	sp.StartSection(SectionPlanning)
	sp.StartSection(SectionDebugging)
	sp.CloseOpenSections()

	assert.Empty(t, sp.sectionStack)
}

func TestScratchpad_LogLastLLMInteraction_TruncatesAndRecordsStatus(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	opts.PromptMaxLen = 5
	opts.ResponseMaxLen = 5
	sp := newTestScratchpad(t, opts)

	sp.LogLastLLMInteraction("gpt", "a very long prompt", "a very long response", "summary", true, nil)

	got := sp.GetLastLLMInteraction()
	require.NotNil(t, got)
	assert.Equal(t, "a ver", got.Prompt)
	assert.Equal(t, "a ver", got.Response)
	assert.Equal(t, LLMStatusFallbackSuccess, got.Status)
}

func TestScratchpad_LogLastLLMInteraction_NoneReturnsNil(t *testing.T) {
	dir := t.TempDir()
	sp := newTestScratchpad(t, DefaultOptions(dir))

	assert.Nil(t, sp.GetLastLLMInteraction())
}

// Invariant 8: rotation never lets a file exceed the configured size by
// more than one record's worth.
func TestScratchpad_RotatesWhenFileExceedsMaxSize(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions(dir)
	opts.MaxFileSizeMB = 0 // rounds up to 5MB floor in New, so force via direct field
	sp := newTestScratchpad(t, opts)
	sp.opts.MaxFileSizeMB = 1 // simulate a tiny limit post-construction for the test

	longMessage := make([]byte, 2*1024*1024)
	for i := range longMessage {
		longMessage[i] = 'x'
	}

	sp.Log("planner", string(longMessage), LevelInfo, nil, nil, nil)
	firstPart := sp.partNum
	sp.Log("planner", string(longMessage), LevelInfo, nil, nil, nil)

	assert.Greater(t, sp.partNum, firstPart)
}

// Invariant 9: cleanup keeps at most MaxSessions distinct session ids and
// never deletes outside the log directory.
func TestCleanupOldSessions_KeepsAtMostMaxSessions(t *testing.T) {
	dir := t.TempDir()

	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "scratchpad_"+string(rune('a'+i))+"_part1.log")
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))
	}

	require.NoError(t, CleanupOldSessions(dir, 2))

	bySession, err := sessionFiles(dir)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(bySession), 2)
}

func TestCleanupOldSessions_EmptyDirIsNoOp(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, CleanupOldSessions(dir, 10))
}

func TestExtractCoTForDebugging_ScoresAndOrders(t *testing.T) {
	dir := t.TempDir()
	sp := newTestScratchpad(t, DefaultOptions(dir))

	reasoning := SectionReasoning
	debugging := SectionDebugging
	planning := SectionPlanning

	sp.Log("agent", "the connection timeout came from the socket layer", LevelInfo, &reasoning, nil, nil)
	sp.Log("agent", "unrelated musings about naming conventions", LevelInfo, &debugging, nil, nil)
	sp.Log("agent", "irrelevant planning note", LevelInfo, &planning, nil, nil)

	results := sp.ExtractCoTForDebugging("connection timeout on socket layer", 5, 0.3)

	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Entry.Message, "socket layer")
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestExtractCoTForDebugging_RespectsMaxEntries(t *testing.T) {
	dir := t.TempDir()
	sp := newTestScratchpad(t, DefaultOptions(dir))

	reasoning := SectionReasoning
	for i := 0; i < 5; i++ {
		sp.Log("agent", "timeout error on socket read", LevelInfo, &reasoning, nil, nil)
	}

	results := sp.ExtractCoTForDebugging("timeout error on socket read", 2, 0.3)
	assert.Len(t, results, 2)
}

func TestSafeLogPath_RejectsEscape(t *testing.T) {
	dir := t.TempDir()
	_, err := safeLogPath(dir, filepath.Join(dir, "..", "escaped.log"))
	assert.Error(t, err)
}
