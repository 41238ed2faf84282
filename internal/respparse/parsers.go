// Package respparse implements the pure-function response parsers used to
// pull structured content out of raw LLM text (spec.md §4.5). Grounded on
// the teacher's internal/shards/coder/response.go fenced-code-block
// extraction, generalized into four independent extractors.
package respparse

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fencedBlockPattern = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\\n(.*?)```")

var multiFileFencePattern = regexp.MustCompile("(?s)```filepath:([^\\n]+)\\n(.*?)```")

var jsonFencePattern = regexp.MustCompile("(?s)```json\\n(.*?)```")

var sectionHeaderPattern = regexp.MustCompile(`(?im)^#{1,3}\s*(.+)$`)

// ExtractCodeFromResponse returns the largest fenced code block; failing
// that, the content of a "## Fix" section with any residual fences
// stripped; otherwise ("", false) (spec.md §4.5).
func ExtractCodeFromResponse(response string) (string, bool) {
	matches := fencedBlockPattern.FindAllStringSubmatch(response, -1)
	if len(matches) > 0 {
		largest := matches[0][1]
		for _, m := range matches[1:] {
			if len(m[1]) > len(largest) {
				largest = m[1]
			}
		}
		return strings.TrimSpace(largest), true
	}

	if section, ok := extractSection(response, "Fix"); ok {
		stripped := fencedBlockPattern.ReplaceAllString(section, "$1")
		stripped = strings.ReplaceAll(stripped, "```", "")
		return strings.TrimSpace(stripped), true
	}

	return "", false
}

// ExtractReasoningFromResponse concatenates Analysis/Step-by-Step Analysis,
// Root Cause, and Explanation sections; if none are present, returns a
// 500-character prefix of the response (spec.md §4.5).
func ExtractReasoningFromResponse(response string) string {
	var parts []string
	for _, heading := range []string{"Step-by-Step Analysis", "Analysis", "Root Cause", "Explanation"} {
		if section, ok := extractSection(response, heading); ok {
			parts = append(parts, strings.TrimSpace(section))
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n\n")
	}

	if len(response) > 500 {
		return response[:500]
	}
	return response
}

// ExtractMultiFileFixes matches fenced blocks of the form
// ```filepath:<path>\n…``` and returns a path → content mapping. If none
// match, it falls back to ExtractCodeFromResponse and, when fallbackPath is
// non-empty, emits a single-entry mapping (spec.md §4.5).
func ExtractMultiFileFixes(response string, fallbackPath string) map[string]string {
	matches := multiFileFencePattern.FindAllStringSubmatch(response, -1)
	if len(matches) > 0 {
		out := make(map[string]string, len(matches))
		for _, m := range matches {
			path := strings.TrimSpace(m[1])
			out[path] = strings.TrimSpace(m[2])
		}
		return out
	}

	if code, ok := ExtractCodeFromResponse(response); ok && fallbackPath != "" {
		return map[string]string{fallbackPath: code}
	}
	return nil
}

// ExtractJSONFromResponse prefers ```json fenced blocks; failing that, it
// searches for the longest brace-balanced substring that parses as JSON.
// Returns (nil, false) if nothing parses (spec.md §4.5).
func ExtractJSONFromResponse(response string) (map[string]any, bool) {
	if m := jsonFencePattern.FindStringSubmatch(response); m != nil {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(m[1]), &parsed); err == nil {
			return parsed, true
		}
	}

	best := ""
	for _, candidate := range braceBalancedSubstrings(response) {
		var parsed map[string]any
		if err := json.Unmarshal([]byte(candidate), &parsed); err == nil {
			if len(candidate) > len(best) {
				best = candidate
			}
		}
	}
	if best == "" {
		return nil, false
	}
	var parsed map[string]any
	json.Unmarshal([]byte(best), &parsed)
	return parsed, true
}

// braceBalancedSubstrings returns every top-level substring of text that
// starts at a '{' and ends at its matching balanced '}'; objects nested inside
// one of them are not returned separately.
func braceBalancedSubstrings(text string) []string {
	var out []string
	depth := 0
	start := -1
	for i, r := range text {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					out = append(out, text[start:i+1])
					start = -1
				}
			}
		}
	}
	return out
}

// extractSection finds a markdown heading matching name (case-insensitive)
// and returns the text up to the next heading of any depth.
func extractSection(response, name string) (string, bool) {
	headings := sectionHeaderPattern.FindAllStringSubmatchIndex(response, -1)
	for i, loc := range headings {
		title := strings.TrimSpace(response[loc[2]:loc[3]])
		if !strings.EqualFold(title, name) {
			continue
		}
		bodyStart := loc[1]
		bodyEnd := len(response)
		if i+1 < len(headings) {
			bodyEnd = headings[i+1][0]
		}
		return response[bodyStart:bodyEnd], true
	}
	return "", false
}
