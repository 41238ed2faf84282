package scratchpad

import (
	"regexp"
	"sort"
	"strings"
)

// wordPattern extracts whole words the way Python's re.findall(r'\b\w+\b', ...)
// does: \w+ already only matches within word-boundary runs, so a bare greedy
// match reproduces \b\w+\b exactly.
var wordPattern = regexp.MustCompile(`\w+`)

// ExtractedEntry pairs a LogEntry with its computed relevance score.
type ExtractedEntry struct {
	Entry LogEntry
	Score float64
}

// ExtractCoTForDebugging scans the Reasoning and Debugging sections of the
// current session's recent entries and scores each against errorContextText:
// relevance is the fraction of error-text tokens (length > 3, lowercased)
// that occur in the entry's message. Entries scoring at or above threshold
// are returned sorted by score descending, capped at maxEntries
// (spec.md §4.3).
func (s *Scratchpad) ExtractCoTForDebugging(errorContextText string, maxEntries int, threshold float64) []ExtractedEntry {
	tokens := relevanceTokens(errorContextText)
	if len(tokens) == 0 {
		return nil
	}

	var scored []ExtractedEntry
	for _, entry := range s.RecentEntries() {
		if entry.Section == nil {
			continue
		}
		if *entry.Section != SectionReasoning && *entry.Section != SectionDebugging {
			continue
		}

		score := relevanceScore(tokens, entry.Message)
		if score >= threshold {
			scored = append(scored, ExtractedEntry{Entry: entry, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if maxEntries >= 0 && len(scored) > maxEntries {
		scored = scored[:maxEntries]
	}
	return scored
}

// relevanceTokens extracts whole words from text (punctuation is not part of
// a token, so "file.py:42" yields "file", "py", "42" rather than one
// unmatchable blob) and keeps those longer than 3 characters, lowercased.
// Ported from _calculate_relevance_score in
// _examples/original_source/agent_s3/enhanced_scratchpad_manager.py, which
// uses re.findall(r'\b\w+\b', context) for exactly this reason: traceback
// text is full of punctuation that would otherwise sink every match.
func relevanceTokens(text string) []string {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) > 3 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}

// relevanceScore is the fraction of contextTokens that occur anywhere within
// message (lowercased).
func relevanceScore(contextTokens []string, message string) float64 {
	if len(contextTokens) == 0 {
		return 0
	}
	lower := strings.ToLower(message)
	hits := 0
	for _, tok := range contextTokens {
		if strings.Contains(lower, tok) {
			hits++
		}
	}
	return float64(hits) / float64(len(contextTokens))
}
