// Package codegen implements C10, the code-generation validation loop:
// generate, validate against syntax/lint/type/test tooling, refine, and
// delegate persistent failures back to the debugger (spec.md §4.10).
// Grounded on the teacher's internal/verification package's
// verify-then-retry-with-corrective-action shape.
package codegen

import (
	"fmt"
	"sort"
	"strings"
)

// ImplementationDetail is one unit of work within a file's implementation
// plan (spec.md §4.10's generate_code contract).
type ImplementationDetail struct {
	FunctionName string
	Signature    string
	Description  string
	Imports      []string
}

// Plan is the implementation plan keyed by file path, the public input of
// generate_code (spec.md §4.10).
type Plan map[string][]ImplementationDetail

// describeDetails renders one file's implementation details into the task
// description handed to the code generator.
func describeDetails(filePath string, details []ImplementationDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Implement %s with the following:\n", filePath)
	for _, d := range details {
		if d.Signature != "" {
			fmt.Fprintf(&b, "- %s%s: %s\n", d.FunctionName, d.Signature, d.Description)
		} else {
			fmt.Fprintf(&b, "- %s: %s\n", d.FunctionName, d.Description)
		}
		if len(d.Imports) > 0 {
			sorted := append([]string(nil), d.Imports...)
			sort.Strings(sorted)
			fmt.Fprintf(&b, "  imports: %s\n", strings.Join(sorted, ", "))
		}
	}
	return b.String()
}

// orderedPaths returns a plan's file paths in deterministic order so runs
// are reproducible regardless of Go's randomized map iteration.
func orderedPaths(plan Plan) []string {
	paths := make([]string, 0, len(plan))
	for path := range plan {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
