package graph

import (
	"testing"

	"depscope/internal/core/errors"
	"depscope/internal/engine/parser"
	"depscope/internal/engine/resolver"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fn(name, class string, line int, calls ...string) parser.FunctionEntity {
	return parser.FunctionEntity{
		Name:        name,
		ParentClass: class,
		IsMethod:    class != "",
		LineStart:   line,
		LineEnd:     line + 1,
		Calls:       calls,
		Complexity:  1,
	}
}

func repoOf(files map[string]*parser.FileExtractionResult) *parser.RepositoryExtractionResult {
	repo := parser.NewRepositoryResult("/repo")
	for path, f := range files {
		f.Path = path
		repo.Files[path] = f
	}
	return repo
}

func TestBuildCallGraph_TwoPasses(t *testing.T) {
	repo := repoOf(map[string]*parser.FileExtractionResult{
		"a.py": {Frontend: parser.FrontendPython, Functions: []parser.FunctionEntity{
			fn("f", "", 1, "g", "print", "g"),
			fn("save", "Repo", 5, "self.flush"),
			fn("flush", "Repo", 8),
		}},
		"b.py": {Frontend: parser.FrontendPython, Functions: []parser.FunctionEntity{
			fn("g", "", 1, "helpers.f"),
			fn("flush", "", 4),
		}},
	})

	g, err := BuildCallGraph(repo, CallGraphOptions{})
	require.NoError(t, err)
	require.NoError(t, CheckSymmetry(g))

	assert.Equal(t, []string{"a.py::f", "a.py::Repo::save", "a.py::Repo::flush", "b.py::g", "b.py::flush"}, g.NodeIDs())

	f := g.Nodes["a.py::f"]
	assert.Equal(t, []string{"g", "print", "g"}, f.Calls)
	assert.Equal(t, []string{"b.py::g"}, f.Callees, "edges are distinct per pair")
	assert.Equal(t, []string{"b.py::g"}, f.CalledBy)

	save := g.Nodes["a.py::Repo::save"]
	assert.Equal(t, []string{"a.py::Repo::flush", "b.py::flush"}, save.Callees, "heuristic matches every flush")
	assert.Equal(t, []string{"a.py::Repo::save"}, g.Nodes["b.py::flush"].CalledBy)

	assert.Equal(t, 4, EdgeCount(g))
	assert.Equal(t, 5, g.CallNameCount())
}

func TestBuildCallGraph_ImportScoped(t *testing.T) {
	repo := repoOf(map[string]*parser.FileExtractionResult{
		"a.py": {Functions: []parser.FunctionEntity{
			fn("save", "Repo", 5, "self.flush"),
			fn("flush", "Repo", 8),
		}},
		"b.py": {Functions: []parser.FunctionEntity{fn("flush", "", 4)}},
	})

	g, err := BuildCallGraph(repo, CallGraphOptions{Resolver: resolver.CallsImportScoped})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py::Repo::flush"}, g.Nodes["a.py::Repo::save"].Callees)
	assert.Empty(t, g.Nodes["b.py::flush"].CalledBy)

	_, err = BuildCallGraph(repo, CallGraphOptions{Resolver: "exact"})
	require.Error(t, err)
}

func TestBuildCallGraph_CollisionKeepsLastDeclaration(t *testing.T) {
	repo := repoOf(map[string]*parser.FileExtractionResult{
		"a.py": {Functions: []parser.FunctionEntity{
			fn("f", "", 1, "x"),
			fn("g", "", 3),
			fn("f", "", 5, "g"),
		}},
	})
	g, err := BuildCallGraph(repo, CallGraphOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py::f", "a.py::g"}, g.NodeIDs())
	assert.Equal(t, 5, g.Nodes["a.py::f"].Line)
	assert.Equal(t, []string{"a.py::g"}, g.Nodes["a.py::f"].Callees)
}

func TestBuildImportGraph(t *testing.T) {
	repo := repoOf(map[string]*parser.FileExtractionResult{
		"pkg/a.py": {Frontend: parser.FrontendPython, Imports: []parser.ImportEntity{
			{Module: ".sub.b", Names: []string{"x"}, IsFromImport: true},
			{Module: "os"},
		}},
		"pkg/sub/b.py": {Frontend: parser.FrontendPython, Imports: []parser.ImportEntity{
			{Module: "..a", Names: []string{"y"}, IsFromImport: true},
			{Module: "..a", Names: []string{"z"}, IsFromImport: true},
		}},
		// Frontend missing: inferred from the extension.
		"web/app.ts": {Imports: []parser.ImportEntity{{Module: "./util"}}},
		"web/util.ts": {},
	})

	g := BuildImportGraph(repo, resolver.NewImportResolver(repo.Paths(), nil))
	require.NoError(t, CheckSymmetry(g))

	assert.Equal(t, []string{"pkg/a.py", "pkg/sub/b.py", "web/app.ts", "web/util.ts"}, g.NodeIDs())
	assert.Equal(t, []string{"pkg/sub/b.py"}, g.Nodes["pkg/a.py"].Imports)
	assert.Equal(t, []string{"os"}, g.Nodes["pkg/a.py"].Unresolved)
	assert.Equal(t, []string{"pkg/a.py"}, g.Nodes["pkg/sub/b.py"].Imports)
	assert.Equal(t, []string{"pkg/sub/b.py"}, g.Nodes["pkg/a.py"].ImportedBy)
	assert.Equal(t, parser.FrontendScriptLexical, g.Nodes["web/app.ts"].Frontend)
	assert.Equal(t, []string{"web/util.ts"}, g.Nodes["web/app.ts"].Imports)
	assert.Equal(t, 3, EdgeCount(g))

	assert.Equal(t, []string{"pkg/a.py"}, g.ImportMap()["pkg/sub/b.py"])

	cycles := DetectCycles(g, CycleModuleImport, DetectOptions{})
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"pkg/a.py", "pkg/sub/b.py", "pkg/a.py"}, cycles[0].Nodes)
	assert.Equal(t, SeverityHigh, cycles[0].Severity)
}

func TestCheckSymmetry_DetectsViolations(t *testing.T) {
	g := newAdjacency([2]string{"a", "b"})
	require.NoError(t, CheckSymmetry(g))

	g.reverse["b"] = nil
	err := CheckSymmetry(g)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvariantViolation))

	g = newAdjacency([2]string{"a", "b"})
	g.reverse["a"] = []string{"b"}
	err = CheckSymmetry(g)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvariantViolation))
}

func TestCoupling(t *testing.T) {
	g := newAdjacency([2]string{"a", "b"}, [2]string{"a", "c"}, [2]string{"b", "c"})
	g.order = append(g.order, "lonely")

	first := ComputeCoupling(g)
	second := ComputeCoupling(g)
	assert.Equal(t, first, second, "coupling is a pure function of the graph")

	assert.Equal(t, CouplingMetrics{Node: "a", Afferent: 0, Efferent: 2, Instability: 1}, first["a"])
	assert.Equal(t, CouplingMetrics{Node: "b", Afferent: 1, Efferent: 1, Instability: 0.5}, first["b"])
	assert.Equal(t, CouplingMetrics{Node: "c", Afferent: 2, Efferent: 0, Instability: 0}, first["c"])
	assert.Equal(t, 0.0, first["lonely"].Instability)

	top := TopCoupled(first, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].Node)
	assert.Equal(t, "b", top[1].Node)

	unstable := HighInstability(first, 0.8)
	require.Len(t, unstable, 1)
	assert.Equal(t, "a", unstable[0].Node)
}

func TestCallGraphComplexity(t *testing.T) {
	repo := repoOf(map[string]*parser.FileExtractionResult{
		"a.py": {Functions: []parser.FunctionEntity{
			{Name: "simple", Complexity: 1},
			{Name: "busy", Complexity: 20, LineStart: 7},
			{Name: "mid", Complexity: 6},
		}},
	})
	g, err := BuildCallGraph(repo, CallGraphOptions{})
	require.NoError(t, err)

	stats := g.Complexity(15)
	assert.Equal(t, 3, stats.Functions)
	assert.Equal(t, 9.0, stats.Average)
	assert.Equal(t, 20, stats.Max)
	assert.Equal(t, 1, stats.AboveThreshold)

	top := g.TopComplexity(2)
	require.Len(t, top, 2)
	assert.Equal(t, ComplexityHotspot{Node: "a.py::busy", File: "a.py", Line: 7, Complexity: 20}, top[0])
	assert.Nil(t, g.TopComplexity(0))
}
