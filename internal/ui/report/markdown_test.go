package report

import (
	"os"
	"path/filepath"
	"testing"

	"depscope/internal/core/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplaceBetweenMarkers(t *testing.T) {
	content := "# Title\n<!-- depscope:deps:start -->\nold\n<!-- depscope:deps:end -->\ntail\n"
	got, err := ReplaceBetweenMarkers(content, "deps", "new\n")
	require.NoError(t, err)
	assert.Equal(t, "# Title\n<!-- depscope:deps:start -->\nnew\n<!-- depscope:deps:end -->\ntail\n", got)

	crlf := "a\r\n<!-- depscope:deps:start -->\r\nx\r\n<!-- depscope:deps:end -->\r\n"
	got, err = ReplaceBetweenMarkers(crlf, "deps", "l1\nl2")
	require.NoError(t, err)
	assert.Equal(t, "a\r\n<!-- depscope:deps:start -->\r\nl1\r\nl2\r\n<!-- depscope:deps:end -->\r\n", got)
}

func TestInject_MultipleSections(t *testing.T) {
	content := "<!-- depscope:a:start -->\n<!-- depscope:a:end -->\nmiddle\n<!-- depscope:b:start -->\nstale\n<!-- depscope:b:end -->\n"

	got, err := Inject(content,
		MermaidSection("a", "flowchart LR\n"),
		FencedSection("b", "text", "report"),
		Section{Marker: "c", Body: "skipped", Optional: true},
	)
	require.NoError(t, err)
	assert.Equal(t, "<!-- depscope:a:start -->\n```mermaid\nflowchart LR\n```\n<!-- depscope:a:end -->\nmiddle\n"+
		"<!-- depscope:b:start -->\n```text\nreport\n```\n<!-- depscope:b:end -->\n", got)

	again, err := Inject(got, MermaidSection("a", "flowchart LR\n"), FencedSection("b", "text", "report"))
	require.NoError(t, err)
	assert.Equal(t, got, again, "injection is idempotent")
}

func TestInject_Errors(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		sections []Section
	}{
		{"empty marker", "", []Section{{Marker: " "}}},
		{"missing", "no markers", []Section{{Marker: "deps"}}},
		{"duplicate", "<!-- depscope:deps:start --><!-- depscope:deps:start --><!-- depscope:deps:end -->", []Section{{Marker: "deps"}}},
		{"reversed", "<!-- depscope:deps:end -->\n<!-- depscope:deps:start -->", []Section{{Marker: "deps"}}},
		{"optional but unbalanced", "<!-- depscope:deps:start -->", []Section{{Marker: "deps", Optional: true}}},
		{"same marker twice", "<!-- depscope:deps:start --><!-- depscope:deps:end -->", []Section{{Marker: "deps"}, {Marker: "deps"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Inject(tt.content, tt.sections...)
			assert.True(t, errors.IsCode(err, errors.CodeValidationError))
		})
	}
}

func TestInjectFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README.md")
	require.NoError(t, os.WriteFile(path, []byte("<!-- depscope:imports:start -->\n<!-- depscope:imports:end -->\n"), 0o644))

	require.NoError(t, InjectFile(path, MermaidSection("imports", "flowchart LR\n  a --> b\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<!-- depscope:imports:start -->\n```mermaid\nflowchart LR\n  a --> b\n```\n<!-- depscope:imports:end -->\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm(), "mode survives the replace")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file is left behind")

	err = InjectFile(filepath.Join(t.TempDir(), "absent.md"), MermaidSection("imports", "x"))
	assert.True(t, errors.IsCode(err, errors.CodeIO))

	err = InjectFile(path, MermaidSection("other", "x"))
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}
