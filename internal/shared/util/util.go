package util

import (
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// NormalizePatternPath turns s into a clean slash path without a leading
// "./". The repository root normalizes to "".
func NormalizePatternPath(s string) string {
	clean := path.Clean(strings.TrimSpace(filepath.ToSlash(strings.ReplaceAll(s, "\\", "/"))))
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// HasPathPrefix reports whether p is prefix or lies below it. Matching is by
// whole path segments, so "api" does not contain "apiv2/x".
func HasPathPrefix(p, prefix string) bool {
	p, prefix = NormalizePatternPath(p), NormalizePatternPath(prefix)
	switch {
	case p == prefix:
		return true
	case p == "" || prefix == "":
		return false
	default:
		return strings.HasPrefix(p, prefix+"/")
	}
}

// RelSlash is target relative to root as a slash path. Targets outside root
// come back normalized but otherwise untouched.
func RelSlash(root, target string) string {
	if root == "" {
		return NormalizePatternPath(target)
	}
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return NormalizePatternPath(target)
	}
	return NormalizePatternPath(rel)
}

func SortedStringKeys[T any](m map[string]T) []string {
	return slices.Sorted(maps.Keys(m))
}

// WriteFileWithDirs writes data to name, creating missing parent directories
// with mode 0755 first.
func WriteFileWithDirs(name string, data []byte, perm fs.FileMode) error {
	if dir := filepath.Dir(name); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(name, data, perm)
}

func WriteStringWithDirs(name, content string, perm fs.FileMode) error {
	return WriteFileWithDirs(name, []byte(content), perm)
}
