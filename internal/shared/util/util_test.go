package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePatternPath(t *testing.T) {
	for in, want := range map[string]string{
		"":               "",
		".":              "",
		"  ./pkg/mod  ":  "pkg/mod",
		"pkg/../lib":     "lib",
		`pkg\sub\b.py`:   "pkg/sub/b.py",
		"web/./index.ts": "web/index.ts",
	} {
		assert.Equal(t, want, NormalizePatternPath(in), "input %q", in)
	}
}

func TestHasPathPrefix(t *testing.T) {
	tests := []struct {
		path, prefix string
		want         bool
	}{
		{"internal/api", "internal/api", true},
		{"internal/api/handlers.py", "internal/api", true},
		{"internal/apiv2/x.py", "internal/api", false},
		{"internal", "internal/api", false},
		{`internal\api\x.py`, "internal/api", true},
		{"", "", true},
		{"x.py", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasPathPrefix(tt.path, tt.prefix), "%q under %q", tt.path, tt.prefix)
	}
}

func TestRelSlash(t *testing.T) {
	root := filepath.Join("repo")
	assert.Equal(t, "pkg/sub/b.py", RelSlash(root, filepath.Join("repo", "pkg", "sub", "b.py")))
	assert.Equal(t, "pkg/a.py", RelSlash("", "pkg/a.py"))
	assert.Equal(t, "other/x.py", RelSlash(root, filepath.Join("other", "x.py")), "outside root")
}

func TestSortedStringKeys(t *testing.T) {
	assert.Equal(t, []string{"a.py", "b.py", "c.py"}, SortedStringKeys(map[string]bool{"c.py": true, "a.py": true, "b.py": false}))
	assert.Empty(t, SortedStringKeys(map[string]int{}))
}

func TestWriteStringWithDirs(t *testing.T) {
	name := filepath.Join(t.TempDir(), "out", "reports", "report.txt")
	require.NoError(t, WriteStringWithDirs(name, "DEPENDENCY ANALYSIS REPORT\n", 0o644))

	got, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "DEPENDENCY ANALYSIS REPORT\n", string(got))
}
