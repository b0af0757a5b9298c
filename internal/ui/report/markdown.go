package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"depscope/internal/core/errors"
)

// Section is the body placed between one pair of depscope markers:
//
//	<!-- depscope:NAME:start -->
//	...
//	<!-- depscope:NAME:end -->
//
// An optional section whose markers are absent is skipped.
type Section struct {
	Marker   string
	Body     string
	Optional bool
}

// MermaidSection wraps diagram in a mermaid fence.
func MermaidSection(marker, diagram string) Section {
	return FencedSection(marker, "mermaid", diagram)
}

func FencedSection(marker, lang, body string) Section {
	return Section{Marker: marker, Body: "```" + lang + "\n" + strings.TrimRight(body, "\r\n") + "\n```"}
}

type markerBlock struct {
	name      string
	bodyStart int
	bodyEnd   int
}

func markerTags(name string) (string, string) {
	return fmt.Sprintf("<!-- depscope:%s:start -->", name), fmt.Sprintf("<!-- depscope:%s:end -->", name)
}

// findMarkerBlock reports found=false when neither tag is present. Any other
// shape than exactly one start followed by exactly one end is an error.
func findMarkerBlock(content, name string) (block markerBlock, found bool, err error) {
	start, end := markerTags(name)
	starts, ends := strings.Count(content, start), strings.Count(content, end)
	if starts == 0 && ends == 0 {
		return markerBlock{}, false, nil
	}
	if starts != 1 || ends != 1 {
		return markerBlock{}, false, errors.Newf(errors.CodeValidationError, "markdown marker %q must appear exactly once for start and end", name)
	}
	startIdx, endIdx := strings.Index(content, start), strings.Index(content, end)
	if endIdx < startIdx {
		return markerBlock{}, false, errors.Newf(errors.CodeValidationError, "invalid marker order for %q", name)
	}
	return markerBlock{name: name, bodyStart: startIdx + len(start), bodyEnd: endIdx}, true, nil
}

// Inject rewrites each section's block in content, in order. CRLF documents
// keep CRLF line endings.
func Inject(content string, sections ...Section) (string, error) {
	newline := "\n"
	if strings.Contains(content, "\r\n") {
		newline = "\r\n"
	}
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		name := strings.TrimSpace(s.Marker)
		if name == "" {
			return "", errors.New(errors.CodeValidationError, "markdown marker must not be empty")
		}
		if seen[name] {
			return "", errors.Newf(errors.CodeValidationError, "markdown marker %q injected twice", name)
		}
		seen[name] = true

		block, found, err := findMarkerBlock(content, name)
		if err != nil {
			return "", err
		}
		if !found {
			if s.Optional {
				continue
			}
			return "", errors.Newf(errors.CodeValidationError, "markdown marker %q not found", name)
		}

		body := strings.TrimRight(s.Body, "\r\n")
		if newline == "\r\n" {
			body = strings.ReplaceAll(body, "\n", "\r\n")
		}
		content = content[:block.bodyStart] + newline + body + newline + content[block.bodyEnd:]
	}
	return content, nil
}

// ReplaceBetweenMarkers swaps the text between one pair of markers.
func ReplaceBetweenMarkers(content, marker, replacement string) (string, error) {
	return Inject(content, Section{Marker: marker, Body: replacement})
}

// InjectFile applies sections to an existing markdown file. The file is
// never created and is replaced through a sibling temp file.
func InjectFile(path string, sections ...Section) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "read markdown file"), errors.CtxPath, path)
	}
	next, err := Inject(string(content), sections...)
	if err != nil {
		return errors.AddContext(err, errors.CtxPath, path)
	}
	if next == string(content) {
		return nil
	}
	return replaceFile(path, next)
}

func replaceFile(path, content string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".depscope-*.md.tmp")
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "create temp file"), errors.CtxPath, path)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	_, err = tmp.WriteString(content)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "write temp markdown file"), errors.CtxPath, tmp.Name())
	}
	if info, statErr := os.Stat(path); statErr == nil {
		_ = os.Chmod(tmp.Name(), info.Mode().Perm())
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "replace markdown file"), errors.CtxPath, path)
	}
	return nil
}
