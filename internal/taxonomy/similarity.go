package taxonomy

// RatcliffObershelp computes the Gestalt Pattern Matching similarity ratio
// between two strings, in [0, 1]: twice the total length of matching
// subsequences (found recursively around the longest common substring)
// divided by the combined length of both strings. The arguments are put in
// lexical order first, so the ratio does not depend on argument order. Used
// by the orchestrator's error-similarity predicate (spec.md §4.2).
func RatcliffObershelp(a, b string) float64 {
	if b < a {
		a, b = b, a
	}
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	matches := matchingCharacters([]rune(a), []rune(b))
	return 2.0 * float64(matches) / float64(len([]rune(a))+len([]rune(b)))
}

func matchingCharacters(a, b []rune) int {
	start, length := longestCommonSubstring(a, b)
	if length == 0 {
		return 0
	}
	total := length
	total += matchingCharacters(a[:start.aStart], b[:start.bStart])
	total += matchingCharacters(a[start.aStart+length:], b[start.bStart+length:])
	return total
}

type matchStart struct {
	aStart int
	bStart int
}

// longestCommonSubstring returns the position (in a and b) and length of the
// longest common contiguous run, via the classic O(len(a)*len(b)) DP table.
func longestCommonSubstring(a, b []rune) (matchStart, int) {
	if len(a) == 0 || len(b) == 0 {
		return matchStart{}, 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	bestLen := 0
	bestA, bestB := 0, 0

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > bestLen {
					bestLen = curr[j]
					bestA = i - curr[j]
					bestB = j - curr[j]
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}

	return matchStart{aStart: bestA, bStart: bestB}, bestLen
}
