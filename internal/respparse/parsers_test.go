package respparse

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCodeFromResponse_ReturnsLargestFencedBlock(t *testing.T) {
	response := "Here's a small fix:\n```go\nx := 1\n```\nAnd the real one:\n```go\nfunc main() {\n\tfmt.Println(\"hello\")\n}\n```\n"

	code, ok := ExtractCodeFromResponse(response)
	require.True(t, ok)
	assert.Contains(t, code, "func main()")
}

func TestExtractCodeFromResponse_FallsBackToFixSection(t *testing.T) {
	response := "## Analysis\nsomething broke\n\n## Fix\nreplace ``` x ``` with y\n\n## Explanation\ndone"

	code, ok := ExtractCodeFromResponse(response)
	require.True(t, ok)
	assert.Contains(t, code, "replace")
	assert.NotContains(t, code, "```")
}

func TestExtractCodeFromResponse_NoneWhenNothingMatches(t *testing.T) {
	_, ok := ExtractCodeFromResponse("just some plain prose with no sections")
	assert.False(t, ok)
}

func TestExtractReasoningFromResponse_ConcatenatesKnownSections(t *testing.T) {
	response := "## Root Cause\nthe index was off by one\n\n## Explanation\nfixed by adjusting the loop bound"

	reasoning := ExtractReasoningFromResponse(response)
	assert.Contains(t, reasoning, "off by one")
	assert.Contains(t, reasoning, "loop bound")
}

func TestExtractReasoningFromResponse_FallsBackToPrefix(t *testing.T) {
	long := make([]byte, 800)
	for i := range long {
		long[i] = 'a'
	}
	reasoning := ExtractReasoningFromResponse(string(long))
	assert.Len(t, reasoning, 500)
}

func TestExtractMultiFileFixes_MatchesTaggedFences(t *testing.T) {
	response := "```filepath:main.go\npackage main\n```\n```filepath:util.go\npackage main\nfunc helper() {}\n```"

	want := map[string]string{
		"main.go": "package main",
		"util.go": "package main\nfunc helper() {}",
	}
	got := ExtractMultiFileFixes(response, "")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("extracted fixes mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractMultiFileFixes_FallsBackToSingleFile(t *testing.T) {
	response := "```go\npackage main\n```"
	fixes := ExtractMultiFileFixes(response, "main.go")
	require.Len(t, fixes, 1)
	assert.Equal(t, "package main", fixes["main.go"])
}

func TestExtractMultiFileFixes_NoFallbackPathYieldsNil(t *testing.T) {
	response := "```go\npackage main\n```"
	fixes := ExtractMultiFileFixes(response, "")
	assert.Nil(t, fixes)
}

func TestExtractJSONFromResponse_PrefersJSONFence(t *testing.T) {
	response := "some text\n```json\n{\"success\": true, \"value\": 3}\n```\nmore text"

	parsed, ok := ExtractJSONFromResponse(response)
	require.True(t, ok)
	assert.Equal(t, true, parsed["success"])
}

func TestExtractJSONFromResponse_FallsBackToBraceBalancedSubstring(t *testing.T) {
	response := "prefix noise {\"a\": 1, \"nested\": {\"b\": 2}} trailing noise"

	parsed, ok := ExtractJSONFromResponse(response)
	require.True(t, ok)
	assert.Equal(t, float64(1), parsed["a"])
}

func TestExtractJSONFromResponse_NoneWhenNothingParses(t *testing.T) {
	_, ok := ExtractJSONFromResponse("no json here at all")
	assert.False(t, ok)
}
