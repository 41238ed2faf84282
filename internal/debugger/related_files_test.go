package debugger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wrenchbot/internal/types/testkit"
)

func TestDiscoverRelatedFiles_ResolvesDirectImport(t *testing.T) {
	fs := testkit.NewFakeFileSystem()
	fs.Seed("main.py", "import helper\n")
	fs.Seed("helper.py", "def helper():\n    pass\n")

	related := DiscoverRelatedFiles(fs, "main.py", "import helper", ".")

	require.Len(t, related, 1)
	assert.Contains(t, related, "helper.py")
}

func TestDiscoverRelatedFiles_ExcludesStandardLibrary(t *testing.T) {
	fs := testkit.NewFakeFileSystem()
	fs.Seed("main.py", "import os\n")

	related := DiscoverRelatedFiles(fs, "main.py", "import os", ".")
	assert.Empty(t, related)
}

func TestDiscoverRelatedFiles_HandlesCyclicImportsWithoutLooping(t *testing.T) {
	fs := testkit.NewFakeFileSystem()
	fs.Seed("a.py", "import b\n")
	fs.Seed("b.py", "import a\n")

	related := DiscoverRelatedFiles(fs, "a.py", "import b", ".")
	assert.Len(t, related, 1)
}

func TestDiscoverRelatedFiles_TruncatesLongFiles(t *testing.T) {
	fs := testkit.NewFakeFileSystem()
	long := make([]byte, 5000)
	for i := range long {
		long[i] = 'x'
	}
	fs.Seed("main.py", "import helper")
	fs.Seed("helper.py", string(long))

	related := DiscoverRelatedFiles(fs, "main.py", "import helper", ".")
	require.Contains(t, related, "helper.py")
	assert.Len(t, related["helper.py"], relatedFileTruncateChars)
}
