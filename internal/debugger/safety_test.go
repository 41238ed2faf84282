package debugger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Invariant 7: for every write by Tier 2 to a path that does not pre-exist,
// the "safe new file" predicate returned true.
func TestIsSafeNewFile_AcceptsOrdinarySourceFileWithinRoot(t *testing.T) {
	root := t.TempDir()
	assert.True(t, IsSafeNewFile(filepath.Join(root, "pkg", "helper.py"), root))
}

func TestIsSafeNewFile_RejectsPathOutsideRoot(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "outside.py")
	assert.False(t, IsSafeNewFile(outside, root))
}

func TestIsSafeNewFile_RejectsDisallowedDotfile(t *testing.T) {
	root := t.TempDir()
	assert.False(t, IsSafeNewFile(filepath.Join(root, ".ssh", "config.yaml"), root))
}

func TestIsSafeNewFile_AllowsAllowlistedDotfile(t *testing.T) {
	root := t.TempDir()
	assert.True(t, IsSafeNewFile(filepath.Join(root, ".github", "workflow.yaml"), root))
}

func TestIsSafeNewFile_RejectsCredentialLikeComponent(t *testing.T) {
	root := t.TempDir()
	assert.False(t, IsSafeNewFile(filepath.Join(root, "secrets", "db.yaml"), root))
}

func TestIsSafeNewFile_RejectsDisallowedExtension(t *testing.T) {
	root := t.TempDir()
	assert.False(t, IsSafeNewFile(filepath.Join(root, "binary.exe"), root))
}

func TestDetectProjectRoot_FindsGitMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, DetectProjectRoot(nested))
}

func TestDetectProjectRoot_FallsBackToStartDirWhenNoMarker(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, DetectProjectRoot(dir))
}
