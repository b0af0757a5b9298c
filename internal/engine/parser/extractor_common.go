// # internal/engine/parser/extractor_common.go
package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// normalizeRefName drops all whitespace so multi-line attribute chains such
// as `self.\n    db.save` become `self.db.save`.
func normalizeRefName(value string) string {
	return strings.Join(strings.Fields(value), "")
}

func trimQuoted(value string) string {
	return strings.Trim(strings.TrimSpace(value), "\"'`")
}

// splitAndTrim splits value on sep and drops empty parts.
func splitAndTrim(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return nonNil(out)
}

func isExportedName(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return r != utf8.RuneError && unicode.IsUpper(r)
}

// TrailingName strips any qualifier from a call name: `self.db.save` -> `save`.
func TrailingName(name string) string {
	return name[strings.LastIndex(name, ".")+1:]
}

// nonNil keeps empty lists serialized as [] rather than null.
func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
