package taxonomy

import (
	"regexp"
	"strings"
)

// patternEntry pairs a category with its ordered declarative regex patterns.
// Exported as data (not logic) so tests can enumerate it, per spec.md §4.2's
// requirement that "the regex table is data, not code" — generalized from
// the teacher's switch-based internal/transparency/error_classifier.go into
// a range-able table. The pattern set itself is carried over verbatim from
// _examples/original_source/agent_s3/debugging/patterns.py's
// ErrorPatternMatcher._initialize_error_patterns, the only place the
// canonical table actually exists (spec.md §4.2 points at a glossary
// appendix that was never populated in the distillation).
type patternEntry struct {
	Category ErrorCategory
	Patterns []*regexp.Regexp
}

func mustCompileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// PatternTable is the canonical regex table, in ErrorCategory declaration
// order (which mirrors the original's dict insertion order). Every category
// except Unknown has at least one pattern.
var PatternTable = []patternEntry{
	{CategorySyntax, mustCompileAll(
		`syntaxerror`, `indentationerror`, `unexpected token`, `invalid syntax`,
		`unexpected indent`, `expected an indented block`,
	)},
	{CategoryType, mustCompileAll(
		`typeerror`, `unsupported operand type`, `not subscriptable`, `has no attribute`,
		`not a function`, `expected .* to be a`, `can't convert .* to`,
	)},
	{CategoryImport, mustCompileAll(
		`importerror`, `modulenotfounderror`, `no module named`, `cannot import name`,
		`cannot find module`,
	)},
	{CategoryAttribute, mustCompileAll(
		`attributeerror`, `has no attribute`, `object has no attribute`,
	)},
	{CategoryName, mustCompileAll(
		`nameerror`, `name .* is not defined`, `undefined variable`, `referenceerror`,
	)},
	{CategoryIndex, mustCompileAll(
		`indexerror`, `out of range`, `list index out of range`, `array index out of bounds`,
	)},
	{CategoryValue, mustCompileAll(
		`valueerror`, `invalid literal`, `could not convert`, `invalid value`,
		`value .* is not a valid`,
	)},
	{CategoryRuntime, mustCompileAll(
		`runtimeerror`, `recursionerror`, `maximum recursion depth exceeded`, `stack overflow`,
	)},
	{CategoryMemory, mustCompileAll(
		`memoryerror`, `out of memory`, `memory allocation failed`, `cannot allocate`,
	)},
	{CategoryPermission, mustCompileAll(
		`permissionerror`, `permission denied`, `access is denied`, `not permitted`,
	)},
	{CategoryAssertion, mustCompileAll(
		`assertionerror`, `assertion failed`, `expected .* but got`,
	)},
	{CategoryNetwork, mustCompileAll(
		`connectionerror`, `connectionrefusederror`, `connectionreseterror`, `timeouterror`,
		`connection refused`, `network is unreachable`, `connection timed out`,
	)},
	{CategoryDatabase, mustCompileAll(
		`databaseerror`, `operationalerror`, `integrityerror`, `database is locked`,
		`constraint failed`, `syntax error in sql`, `no such table`,
	)},
}

// Classify implements the deterministic algorithm of spec.md §4.2: a
// declarative regex pass in category declaration order, falling back to the
// PatternStore's naive-Bayes prediction, and finally CategoryUnknown.
func Classify(message, traceback string, store *PatternStore) ErrorCategory {
	haystack := strings.ToLower(message + "\n" + traceback)

	for _, entry := range PatternTable {
		for _, re := range entry.Patterns {
			if re.MatchString(haystack) {
				return entry.Category
			}
		}
	}

	if store != nil {
		if name, ok := store.Predict(message + "\n" + traceback); ok {
			cat := CategoryFromString(name)
			if cat != CategoryUnknown {
				return cat
			}
		}
	}

	return CategoryUnknown
}
