// Package debugger implements the three recovery tiers and the orchestrator
// that selects between them (spec.md §4.6-§4.9). Grounded on the teacher's
// internal/shards/coder package (prompt construction, file writes) and
// internal/verification (validation/refinement loop shape).
package debugger

import (
	"os"
	"path/filepath"
	"strings"
)

var dotfileAllowList = map[string]bool{
	".github": true,
	".vscode": true,
	".env":    true,
}

var forbiddenComponentSubstrings = []string{
	"secret", "secrets", "password", "credentials", "private",
}

var allowedNewFileExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".ini": true, ".cfg": true, ".md": true,
}

// IsSafeNewFile implements the "safe new file" predicate of spec.md §6: the
// resolved path must lie within projectRoot, no path component may begin
// with '.' except the allow-listed dotfiles, no component may contain a
// credential-like substring, and the extension must be in the allow list.
func IsSafeNewFile(path, projectRoot string) bool {
	resolved, err := resolveSymlinks(path)
	if err != nil {
		resolved = path
	}

	absRoot, err := filepath.Abs(projectRoot)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(resolved)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}

	for _, component := range strings.Split(rel, string(filepath.Separator)) {
		if component == "" || component == "." {
			continue
		}
		if strings.HasPrefix(component, ".") && !dotfileAllowList[component] {
			return false
		}
		lower := strings.ToLower(component)
		for _, forbidden := range forbiddenComponentSubstrings {
			if strings.Contains(lower, forbidden) {
				return false
			}
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	return allowedNewFileExtensions[ext]
}

// resolveSymlinks resolves path's symlinks where they already exist on disk;
// a path that does not yet exist resolves its longest existing ancestor.
func resolveSymlinks(path string) (string, error) {
	if _, err := os.Lstat(path); err == nil {
		return filepath.EvalSymlinks(path)
	}

	dir := filepath.Dir(path)
	resolvedDir, err := resolveSymlinks(dir)
	if err != nil {
		if dir == path {
			return path, nil
		}
		return path, err
	}
	return filepath.Join(resolvedDir, filepath.Base(path)), nil
}

// projectRootMarkers are scanned for while walking upward from a file, per
// spec.md §4.7.
var projectRootMarkers = []string{
	"setup.py", "pyproject.toml", "package.json", ".git",
	"requirements.txt", "Pipfile", "poetry.lock",
}

// DetectProjectRoot scans upward from dir, at most 5 levels, for one of the
// recognised project markers; it returns dir itself if none is found.
func DetectProjectRoot(dir string) string {
	current := dir
	for i := 0; i < 5; i++ {
		for _, marker := range projectRootMarkers {
			if _, err := os.Stat(filepath.Join(current, marker)); err == nil {
				return current
			}
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return dir
}
