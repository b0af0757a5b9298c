package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestParser(t *testing.T, mapping map[string]string) *Parser {
	t.Helper()
	p, err := NewParser(NewGrammarLoader(), mapping)
	require.NoError(t, err)
	return p
}

func parse(t *testing.T, p *Parser, path, code string) *FileExtractionResult {
	t.Helper()
	res := p.ParseFile(context.Background(), path, []byte(code))
	require.NotNil(t, res)
	return res
}

func findFunction(t *testing.T, res *FileExtractionResult, name string) FunctionEntity {
	t.Helper()
	for _, fn := range res.Functions {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("function %q not found", name)
	return FunctionEntity{}
}

func TestPythonParameterKinds(t *testing.T) {
	p := newTestParser(t, nil)
	res := parse(t, p, "mod.py", "def f(a, /, b: int, *args, c, d=1, e: str = \"x\", **kw):\n    pass\n\n\ndef g(*, key):\n    pass\n")
	require.Empty(t, res.ParseErrors)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, findFunction(t, res, "f").Parameters)
	assert.Equal(t, []string{"key"}, findFunction(t, res, "g").Parameters)
}

func TestPythonComplexity(t *testing.T) {
	p := newTestParser(t, nil)

	tests := []struct {
		name string
		code string
		want int
	}{
		{
			name: "straight line",
			code: "def f():\n    x = 1\n    return x\n",
			want: 1,
		},
		{
			name: "single if",
			code: "def f(x):\n    if x:\n        return 1\n    return 0\n",
			want: 2,
		},
		{
			name: "boolean chain counts values minus one",
			code: "def f(a, b, c):\n    return a and b and c\n",
			want: 3,
		},
		{
			name: "mixed decision points",
			code: `def f(x, items):
    if x > 0:
        return 1
    elif x < 0:
        return -1
    for i in items:
        if i and x and items:
            pass
    while x:
        x -= 1
    try:
        pass
    except ValueError:
        pass
    return [i for i in items if i if i > 1]
`,
			want: 11,
		},
		{
			name: "async for",
			code: "async def f(items):\n    async for i in items:\n        pass\n",
			want: 2,
		},
		{
			name: "parenthesized or inside if",
			code: "def f(a, b):\n    if (a or b):\n        return 1\n    return 0\n",
			want: 3,
		},
		{
			name: "standalone or",
			code: "def f(a, b):\n    return a or b\n",
			want: 2,
		},
		{
			name: "nested function decisions count for the outer function",
			code: "def f():\n    def g(y):\n        if y:\n            return 1\n    return g\n",
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := parse(t, p, "mod.py", tt.code)
			require.Empty(t, res.ParseErrors)
			assert.Equal(t, tt.want, findFunction(t, res, "f").Complexity)
		})
	}
}

func TestPythonNestedCallAttribution(t *testing.T) {
	p := newTestParser(t, nil)
	code := `def outer():
    a()
    def inner():
        b()
    return inner
`
	res := parse(t, p, "pkg/mod.py", code)
	require.Empty(t, res.ParseErrors)
	require.Len(t, res.Functions, 2)

	assert.Equal(t, "outer", res.Functions[0].Name)
	assert.Equal(t, "inner", res.Functions[1].Name)
	assert.Equal(t, []string{"a"}, res.Functions[0].Calls)
	assert.Equal(t, []string{"b"}, res.Functions[1].Calls)

	require.Len(t, res.Calls, 2)
	assert.Equal(t, "outer", res.Calls[0].CallerFunction)
	assert.Equal(t, "inner", res.Calls[1].CallerFunction)
	assert.Equal(t, 4, res.Calls[1].Line)
}

func TestPythonClassesAndMethods(t *testing.T) {
	p := newTestParser(t, nil)
	code := `class Base:
    pass

class Service(Base, models.Model, metaclass=Meta):
    """Handles things."""
    limit: int = 10
    name = alias = "svc"

    def __init__(self, repo, *args, retries=3, **kwargs):
        self.repo = repo
        self.cache = self.backup = {}
        self.typed: int = 0
        self.counter += 1

    @property
    def size(self) -> int:
        return len(self.repo)

    async def fetch(self, key: str, default: str = ""):
        return await self.repo.get(key)
`
	res := parse(t, p, "svc.py", code)
	require.Empty(t, res.ParseErrors)
	require.Len(t, res.Classes, 2)

	svc := res.Classes[1]
	assert.Equal(t, "Service", svc.Name)
	assert.Equal(t, []string{"Base", "models.Model"}, svc.Bases)
	assert.Equal(t, "Handles things.", svc.Docstring)
	assert.Equal(t, []string{"__init__", "size", "fetch"}, svc.Methods)
	assert.Equal(t, []string{"alias", "backup", "cache", "limit", "name", "repo"}, svc.Attributes)
	assert.Equal(t, 4, svc.LineStart)
	assert.Equal(t, 20, svc.LineEnd)

	initFn := findFunction(t, res, "__init__")
	assert.True(t, initFn.IsMethod)
	assert.Equal(t, "Service", initFn.ParentClass)
	assert.Equal(t, []string{"self", "repo", "retries"}, initFn.Parameters)

	size := findFunction(t, res, "size")
	assert.Equal(t, []string{"property"}, size.Decorators)
	assert.Equal(t, "int", size.ReturnType)
	assert.Equal(t, []string{"len"}, size.Calls)

	fetch := findFunction(t, res, "fetch")
	assert.True(t, fetch.IsAsync)
	assert.Equal(t, []string{"self", "key", "default"}, fetch.Parameters)
	assert.Equal(t, []string{"self.repo.get"}, fetch.Calls)
}

func TestPythonImports(t *testing.T) {
	p := newTestParser(t, nil)
	code := `import os, sys as system
import a.b.c
from ..pkg import helper as h, other
from . import sibling
from mod import *
`
	res := parse(t, p, "app/x/mod.py", code)
	require.Empty(t, res.ParseErrors)
	require.Len(t, res.Imports, 6)

	assert.Equal(t, ImportEntity{Module: "os", Names: []string{"os"}, FilePath: "app/x/mod.py", Line: 1}, res.Imports[0])
	assert.Equal(t, "system", res.Imports[1].Alias)
	assert.Equal(t, []string{"a.b.c"}, res.Imports[2].Names)

	rel := res.Imports[3]
	assert.Equal(t, "..pkg", rel.Module)
	assert.Equal(t, []string{"helper", "other"}, rel.Names)
	assert.True(t, rel.IsFromImport)
	assert.Equal(t, 2, rel.RelativeLevel())

	assert.Equal(t, ".", res.Imports[4].Module)
	assert.Equal(t, []string{"sibling"}, res.Imports[4].Names)
	assert.Equal(t, []string{"*"}, res.Imports[5].Names)
}

func TestPythonDecoratorsUseEnclosingScope(t *testing.T) {
	p := newTestParser(t, nil)
	code := `@app.get("/items")
@cache
@route(make_path("/"))
def handler(request):
    return render(request)
`
	res := parse(t, p, "api.py", code)
	require.Empty(t, res.ParseErrors)

	fn := findFunction(t, res, "handler")
	assert.Equal(t, []string{"app.get", "cache", "route"}, fn.Decorators)
	assert.Equal(t, []string{"render"}, fn.Calls)
	assert.Equal(t, 4, fn.LineStart)

	var moduleLevel []string
	for _, call := range res.Calls {
		if call.CallerFunction == "" {
			moduleLevel = append(moduleLevel, call.Name)
		}
	}
	assert.Equal(t, []string{"app.get", "route", "make_path"}, moduleLevel)
}

func TestPythonDocstrings(t *testing.T) {
	p := newTestParser(t, nil)
	code := `def documented():
    # leading comment
    """Line one.\n    Line two."""
    return 1

def raw():
    r"""keep \n as is"""

def not_doc():
    b"bytes"
`
	res := parse(t, p, "doc.py", code)
	require.Empty(t, res.ParseErrors)
	assert.Equal(t, "Line one.\n    Line two.", findFunction(t, res, "documented").Docstring)
	assert.Equal(t, `keep \n as is`, findFunction(t, res, "raw").Docstring)
	assert.Empty(t, findFunction(t, res, "not_doc").Docstring)
}

func TestPythonSyntaxError(t *testing.T) {
	p := newTestParser(t, nil)
	res := parse(t, p, "broken.py", "def ok():\n    pass\n\ndef broken(:\n    pass\n")

	require.Len(t, res.ParseErrors, 1)
	assert.True(t, strings.HasPrefix(res.ParseErrors[0], "SyntaxError at line "), res.ParseErrors[0])
	assert.Empty(t, res.Functions)
	assert.Empty(t, res.Classes)
	assert.Empty(t, res.Imports)
	assert.Empty(t, res.Calls)
}

func TestGoExtraction(t *testing.T) {
	p := newTestParser(t, nil)
	code := `package store

import (
	"fmt"
	db "database/sql"
)

// Store keeps rows.
type Store struct {
	conn *db.DB
	name string
	fmt.Stringer
}

// Save persists a row.
// It validates the key first.
func (s *Store) Save(key string, vals ...int) error {
	if key == "" || s == nil {
		return fmt.Errorf("empty")
	}
	s.flush()
	return nil
}

func (s *Store) flush() {}

func New() *Store { return &Store{} }
`
	res := parse(t, p, "store/store.go", code)
	require.Empty(t, res.ParseErrors)

	require.Len(t, res.Imports, 2)
	assert.Equal(t, "fmt", res.Imports[0].Module)
	assert.Equal(t, "database/sql", res.Imports[1].Module)
	assert.Equal(t, "db", res.Imports[1].Alias)

	require.Len(t, res.Classes, 1)
	store := res.Classes[0]
	assert.Equal(t, "Store", store.Name)
	assert.Equal(t, []string{"conn", "name"}, store.Attributes)
	assert.Equal(t, []string{"fmt.Stringer"}, store.Bases)
	assert.Equal(t, []string{"Save", "flush"}, store.Methods)
	assert.Equal(t, "Store keeps rows.", store.Docstring)

	save := findFunction(t, res, "Save")
	assert.True(t, save.IsMethod)
	assert.Equal(t, "Store", save.ParentClass)
	assert.Equal(t, []string{"key", "vals"}, save.Parameters)
	assert.Equal(t, "error", save.ReturnType)
	assert.Equal(t, 3, save.Complexity)
	assert.Equal(t, []string{"fmt.Errorf", "s.flush"}, save.Calls)
	assert.Equal(t, "Save persists a row.\nIt validates the key first.", save.Docstring)
	assert.True(t, save.IsExported)

	ctor := findFunction(t, res, "New")
	assert.False(t, ctor.IsMethod)
	assert.Equal(t, 1, ctor.Complexity)
}

func TestParserFrontendMapping(t *testing.T) {
	p := newTestParser(t, nil)
	assert.Equal(t, FrontendPython, p.Frontend("a/b.PY"))
	assert.Equal(t, FrontendScriptLexical, p.Frontend("web/app.tsx"))
	assert.Equal(t, "", p.Frontend("README.md"))
	assert.False(t, p.IsSupportedPath("Makefile"))

	custom := newTestParser(t, map[string]string{".ts": FrontendScriptTree})
	assert.Equal(t, FrontendScriptTree, custom.Frontend("x.ts"))
	assert.Equal(t, []string{".ts"}, custom.SupportedExtensions())

	_, err := NewParser(NewGrammarLoader(), map[string]string{".rb": "ruby"})
	require.Error(t, err)
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(context.Context, string, []byte) *FileExtractionResult {
	panic("boom")
}

func TestParseFileRecoversFromPanics(t *testing.T) {
	p := newTestParser(t, map[string]string{".py": FrontendPython})
	p.RegisterFrontend(FrontendPython, panickingExtractor{})

	res := p.ParseFile(context.Background(), "x.py", []byte("def f(): pass\n"))
	require.Equal(t, []string{"Extraction error: boom"}, res.ParseErrors)
	assert.Empty(t, res.Functions)
}
