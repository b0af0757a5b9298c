// # internal/engine/resolver/resolver.go
package resolver

import (
	"path"
	"sort"
	"strings"

	"depscope/internal/engine/parser"
)

var scriptExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs", ".d.ts"}

// ImportResolver binds import statements to repository files. Files are
// root-relative slash paths.
type ImportResolver struct {
	files    []string
	known    map[string]bool
	external []string
	goMod    *GoModule
}

func NewImportResolver(files []string, external []string) *ImportResolver {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	known := make(map[string]bool, len(sorted))
	for _, f := range sorted {
		known[f] = true
	}
	if external == nil {
		external = DefaultExternalPackages
	}
	return &ImportResolver{files: sorted, known: known, external: external}
}

// WithGoModule enables resolution of Go import paths under mod.
func (r *ImportResolver) WithGoModule(mod *GoModule) *ImportResolver {
	r.goMod = mod
	return r
}

// Resolve returns the file imp refers to. from is the importing file and
// frontend the front-end that extracted it.
func (r *ImportResolver) Resolve(from, frontend string, imp parser.ImportEntity) (string, bool) {
	module := strings.TrimSpace(imp.Module)
	if module == "" {
		return "", false
	}

	if frontend == parser.FrontendGo {
		return r.resolveGo(module)
	}

	switch {
	case strings.HasPrefix(module, "./"), strings.HasPrefix(module, "../"):
		return r.resolvePathStyle(from, module)
	case strings.HasPrefix(module, "."):
		return r.resolveRelative(from, imp)
	}

	if IsKnownNonModule(module, r.external) {
		return "", false
	}
	return r.resolveSubstring(from, module)
}

// resolveRelative handles leading-dot module text: level dots ascend
// level-1 directories from the importer's directory.
func (r *ImportResolver) resolveRelative(from string, imp parser.ImportEntity) (string, bool) {
	level := imp.RelativeLevel()
	rest := imp.Module[level:]

	target := path.Dir(from)
	for i := 0; i < level-1; i++ {
		if target == "." {
			return "", false
		}
		target = path.Dir(target)
	}
	if rest != "" {
		target = path.Join(target, strings.ReplaceAll(rest, ".", "/"))
	}

	for _, candidate := range []string{path.Join(target, "__init__.py"), target + ".py"} {
		if r.known[candidate] {
			return candidate, true
		}
	}

	// from . import name: the names may be sibling modules.
	if rest == "" {
		for _, name := range imp.Names {
			if name == "*" {
				continue
			}
			base := path.Join(target, name)
			for _, candidate := range []string{base + ".py", path.Join(base, "__init__.py")} {
				if r.known[candidate] {
					return candidate, true
				}
			}
		}
	}
	return "", false
}

func (r *ImportResolver) resolvePathStyle(from, module string) (string, bool) {
	target := path.Join(path.Dir(from), module)
	if strings.HasPrefix(target, "../") || target == ".." {
		return "", false
	}
	if r.known[target] {
		return target, true
	}
	for _, ext := range scriptExtensions {
		if r.known[target+ext] {
			return target + ext, true
		}
	}
	for _, ext := range scriptExtensions {
		candidate := path.Join(target, "index"+ext)
		if r.known[candidate] {
			return candidate, true
		}
	}
	return "", false
}

func (r *ImportResolver) resolveGo(module string) (string, bool) {
	dir, ok := r.goMod.PackageDir(module)
	if !ok {
		return "", false
	}
	for _, f := range r.files {
		if path.Dir(f) == dir && strings.HasSuffix(f, ".go") && !strings.HasSuffix(f, "_test.go") {
			return f, true
		}
	}
	return "", false
}

// resolveSubstring takes the first known file, in sorted order, whose path
// contains the module text with separators substituted. The importer itself
// is skipped.
func (r *ImportResolver) resolveSubstring(from, module string) (string, bool) {
	needle := strings.ReplaceAll(module, ".", "/")
	for _, f := range r.files {
		if f != from && strings.Contains(f, needle) {
			return f, true
		}
	}
	return "", false
}
