package resolver

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"depscope/internal/core/errors"
)

// GoModule is the module declared by a go.mod found in the repository.
type GoModule struct {
	// Path is the module path from the module directive.
	Path string
	// Dir is the root-relative slash directory holding go.mod; "" for the root.
	Dir string
}

// FindGoModule reads go.mod at the repository root. A missing file is not an
// error; the returned module is nil.
func FindGoModule(root string) (*GoModule, error) {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "read go.mod"), errors.CtxPath, root)
	}
	path := ParseModulePath(data)
	if path == "" {
		return nil, errors.AddContext(errors.New(errors.CodeParse, "go.mod has no module directive"), errors.CtxPath, root)
	}
	return &GoModule{Path: path}, nil
}

// ParseModulePath extracts the module directive of a go.mod file.
func ParseModulePath(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		rest, ok := strings.CutPrefix(line, "module")
		if !ok || rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
			continue
		}
		return strings.Trim(strings.TrimSpace(rest), `"`)
	}
	return ""
}

// PackageDir maps an import path under the module to a root-relative package
// directory.
func (m *GoModule) PackageDir(importPath string) (string, bool) {
	if m == nil || m.Path == "" {
		return "", false
	}
	var sub string
	switch {
	case importPath == m.Path:
		sub = ""
	case strings.HasPrefix(importPath, m.Path+"/"):
		sub = strings.TrimPrefix(importPath, m.Path+"/")
	default:
		return "", false
	}
	switch {
	case m.Dir == "":
		if sub == "" {
			return ".", true
		}
		return sub, true
	case sub == "":
		return m.Dir, true
	default:
		return m.Dir + "/" + sub, true
	}
}
