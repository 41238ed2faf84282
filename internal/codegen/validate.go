package codegen

import (
	"context"
	"strings"

	"wrenchbot/internal/types"
)

// CommandTemplate is a shell command containing a "{file}" placeholder,
// rendered against the target path before being run via ShellInterface
// (spec.md §4.10, §6 ShellInterface).
type CommandTemplate string

// Render substitutes the file placeholder.
func (c CommandTemplate) Render(file string) string {
	return strings.ReplaceAll(string(c), "{file}", file)
}

// Tooling names the shell commands the validation loop invokes for a given
// target file. Any empty template is skipped. Grounded on the teacher's
// verification package's pluggable lint/test command shape.
type Tooling struct {
	SyntaxCheck CommandTemplate
	Lint        CommandTemplate
	TypeCheck   CommandTemplate
	Test        CommandTemplate // project-wide, not file-scoped
	Timeout     float64
}

func (tl Tooling) timeout() float64 {
	if tl.Timeout > 0 {
		return tl.Timeout
	}
	return 30
}

// validationIssue is one collected failure from a single validation pass.
type validationIssue struct {
	source  string // "syntax" | "lint" | "type"
	message string
}

// validateFile runs the configured syntax/lint/type tools against path and
// returns every collected issue (spec.md §4.10 step 2). An empty slice means
// the file is valid.
func validateFile(ctx context.Context, shell types.ShellInterface, tl Tooling, path string) []validationIssue {
	var issues []validationIssue

	run := func(source string, tmpl CommandTemplate) {
		if tmpl == "" || shell == nil {
			return
		}
		exitCode, output, err := shell.RunCommand(ctx, tmpl.Render(path), tl.timeout())
		if err != nil {
			issues = append(issues, validationIssue{source: source, message: err.Error()})
			return
		}
		if exitCode != 0 {
			issues = append(issues, validationIssue{source: source, message: strings.TrimSpace(output)})
		}
	}

	run("syntax", tl.SyntaxCheck)
	run("lint", tl.Lint)
	run("type", tl.TypeCheck)

	return issues
}

// runTestSuite runs the project-wide test command, if configured.
func runTestSuite(ctx context.Context, shell types.ShellInterface, tl Tooling) (passed bool, output string) {
	if tl.Test == "" || shell == nil {
		return true, ""
	}
	exitCode, out, err := shell.RunCommand(ctx, string(tl.Test), tl.timeout())
	if err != nil {
		return false, err.Error()
	}
	return exitCode == 0, out
}
