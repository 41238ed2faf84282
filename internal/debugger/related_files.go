package debugger

import (
	"path/filepath"
	"regexp"
	"strings"

	"wrenchbot/internal/types"
)

// importPatterns are scanned over a file's text to discover imported module
// names across several source languages (spec.md §4.7).
var importPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*import\s+([\w.]+)`),
	regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import`),
	regexp.MustCompile(`#include\s*[<"]([\w./]+)[>"]`),
	regexp.MustCompile(`require\(['"]([\w./\-]+)['"]\)`),
}

// standardLibraryAllowList excludes well-known standard-library/runtime
// modules from related-file resolution so discovery stays local to the
// project (spec.md §4.7).
var standardLibraryAllowList = map[string]bool{
	"os": true, "sys": true, "re": true, "json": true, "time": true,
	"math": true, "typing": true, "collections": true, "itertools": true,
	"fmt": true, "strings": true, "strconv": true, "context": true,
	"stdio.h": true, "stdlib.h": true, "string.h": true,
	"fs": true, "path": true, "util": true, "http": true,
}

const maxRelatedFiles = 3
const relatedFileTruncateChars = 2000
const maxRelatedFileDepth = 3

// DiscoverRelatedFiles walks the target file's imports and reads up to
// maxRelatedFiles sibling files, truncated to relatedFileTruncateChars each
// (spec.md §4.7). A visited set and a bounded depth (maxRelatedFileDepth
// neighbours) keep a cyclic import graph (A imports B imports A) from
// looping forever (spec.md §9 design note).
func DiscoverRelatedFiles(fs types.FileInterface, targetPath, content, projectRoot string) map[string]string {
	visited := map[string]bool{targetPath: true}
	related := make(map[string]string)

	walkImports(fs, targetPath, content, projectRoot, visited, related, 0)
	return related
}

func walkImports(fs types.FileInterface, path, content, projectRoot string, visited map[string]bool, related map[string]string, depth int) {
	if depth >= maxRelatedFileDepth || len(related) >= maxRelatedFiles {
		return
	}

	dir := filepath.Dir(path)
	for _, name := range extractImportNames(content) {
		if len(related) >= maxRelatedFiles {
			return
		}
		if standardLibraryAllowList[name] {
			continue
		}

		candidate := resolveImportPath(fs, name, dir, projectRoot)
		if candidate == "" || visited[candidate] {
			continue
		}
		visited[candidate] = true

		body, err := fs.ReadFile(candidate)
		if err != nil {
			continue
		}
		related[candidate] = truncate(body, relatedFileTruncateChars)

		walkImports(fs, candidate, body, projectRoot, visited, related, depth+1)
	}
}

func extractImportNames(content string) []string {
	var names []string
	for _, line := range strings.Split(content, "\n") {
		for _, pattern := range importPatterns {
			if m := pattern.FindStringSubmatch(line); m != nil {
				names = append(names, m[1])
			}
		}
	}
	return names
}

// resolveImportPath tries a small set of plausible filesystem locations for
// an imported module name, relative to the file's own directory and the
// project root.
func resolveImportPath(fs types.FileInterface, name, dir, projectRoot string) string {
	normalized := strings.ReplaceAll(strings.ReplaceAll(name, ".", "/"), "\\", "/")

	candidates := []string{
		filepath.Join(dir, normalized+".go"),
		filepath.Join(dir, normalized+".py"),
		filepath.Join(dir, normalized+".js"),
		filepath.Join(dir, normalized+".ts"),
		filepath.Join(projectRoot, normalized+".go"),
		filepath.Join(projectRoot, normalized+".py"),
		filepath.Join(projectRoot, normalized+".js"),
		filepath.Join(projectRoot, normalized+".ts"),
	}

	for _, candidate := range candidates {
		if fs.Exists(candidate) {
			return candidate
		}
	}
	return ""
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max]
}
