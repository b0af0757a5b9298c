package resolver

import "strings"

// DefaultExternalPackages are module roots that are never looked up in the
// repository.
var DefaultExternalPackages = []string{
	"fastapi",
	"pydantic",
	"typing",
	"os",
	"sys",
	"pathlib",
	"json",
	"datetime",
	"asyncio",
	"react",
	"react-dom",
	"next",
}

// FirstSegment returns the module text up to the first '.' or '/'.
func FirstSegment(module string) string {
	if idx := strings.IndexAny(module, "./"); idx >= 0 {
		return module[:idx]
	}
	return module
}

// IsKnownNonModule reports whether the first segment of name is on the
// external list. Entries may carry a trailing separator.
func IsKnownNonModule(name string, excluded []string) bool {
	prefix := FirstSegment(name)
	if prefix == "" {
		return false
	}
	for _, sym := range excluded {
		if sym == prefix || sym == prefix+"." || sym == prefix+"/" {
			return true
		}
	}
	return false
}

// isSelfReference reports whether a call is made on the receiver of the
// enclosing method (self.x or this.x).
func isSelfReference(callName string) (string, bool) {
	for _, prefix := range []string{"self.", "this."} {
		if rest, ok := strings.CutPrefix(callName, prefix); ok && rest != "" && !strings.Contains(rest, ".") {
			return rest, true
		}
	}
	return "", false
}
