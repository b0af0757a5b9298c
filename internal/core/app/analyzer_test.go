package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"depscope/internal/core/config"
	"depscope/internal/data/history"
	"depscope/internal/engine/architecture"
	"depscope/internal/engine/graph"
	"depscope/internal/engine/parser"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	file1 = "from file2 import g\n\n\ndef f():\n    return g()\n"
	file2 = "import file1\n\n\ndef g():\n    return file1.f()\n"
	file3 = "def h():\n    pass\n"
)

func analyzeFixture(t *testing.T, mutate func(*config.Config)) (*App, *AnalysisResult, string) {
	t.Helper()
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"file1.py": file1, "file2.py": file2, "file3.py": file3})

	a := newApp(t, mutate)
	ctx := context.Background()
	repo, err := a.Extract(ctx, root)
	require.NoError(t, err)
	res, err := a.Analyze(ctx, repo, "")
	require.NoError(t, err)
	return a, res, root
}

func TestAnalyze_MutualRecursionAcrossFiles(t *testing.T) {
	_, res, _ := analyzeFixture(t, nil)

	require.NoError(t, graph.CheckSymmetry(res.CallGraph))
	require.NoError(t, graph.CheckSymmetry(res.ImportGraph))

	assert.Equal(t, []string{"file1.py::f", "file2.py::g", "file3.py::h"}, res.CallGraph.NodeIDs())

	require.Len(t, res.CallCycles, 1)
	assert.Equal(t, []string{"file1.py::f", "file2.py::g", "file1.py::f"}, res.CallCycles[0].Nodes)
	assert.Equal(t, graph.SeverityHigh, res.CallCycles[0].Severity)
	assert.Equal(t, graph.CycleFunctionCall, res.CallCycles[0].Kind)

	require.Len(t, res.ImportCycles, 1)
	assert.Equal(t, []string{"file1.py", "file2.py", "file1.py"}, res.ImportCycles[0].Nodes)
	assert.True(t, res.HasHighSeverity())
	assert.Len(t, res.Cycles(), 2)
	assert.Equal(t, graph.CycleFunctionCall, res.Cycles()[0].Kind, "call cycles come first")

	for _, id := range []string{"file1.py::f", "file2.py::g"} {
		m := res.CallCoupling[id]
		assert.Equal(t, 1, m.Afferent, id)
		assert.Equal(t, 1, m.Efferent, id)
		assert.Equal(t, 0.5, m.Instability, id)
	}
	assert.Equal(t, graph.CouplingMetrics{Node: "file3.py::h"}, res.CallCoupling["file3.py::h"])
	assert.Equal(t, 0.5, res.MaxInstability())
	assert.Empty(t, res.ParseErrors)
}

func TestAnalyze_ArchitectureRules(t *testing.T) {
	_, res, _ := analyzeFixture(t, nil)
	assert.Nil(t, res.Architecture)
	assert.Empty(t, res.Violations())

	_, res, _ = analyzeFixture(t, func(c *config.Config) {
		c.Architecture.Rules = []architecture.RuleConfig{{Name: "leaf", Modules: []string{"file2.py"}, Deny: []string{"file1.py"}}}
	})
	require.NotNil(t, res.Architecture)
	assert.Equal(t, 1, res.Architecture.EvaluatedModules)
	require.Len(t, res.Violations(), 1)
	assert.Equal(t, "file1.py", res.Violations()[0].Target)
}

func TestAnalyze_ImportScopedAndDedupe(t *testing.T) {
	_, res, _ := analyzeFixture(t, func(c *config.Config) {
		c.Resolver.Calls = "import-scoped"
		c.Analysis.DedupeCycles = true
	})
	require.Len(t, res.CallCycles, 1)
	assert.Empty(t, res.CallGraph.Nodes["file3.py::h"].CalledBy)
}

func TestAnalyze_TopComplexLimitsHotspots(t *testing.T) {
	_, res, _ := analyzeFixture(t, nil)
	assert.Len(t, res.Hotspots, 3)

	_, res, _ = analyzeFixture(t, func(c *config.Config) {
		c.Analysis.TopComplex = 1
		c.Analysis.TopCoupled = 10
	})
	assert.Len(t, res.Hotspots, 1)
}

func TestWriteOutputs(t *testing.T) {
	out := t.TempDir()
	readme := filepath.Join(out, "README.md")
	require.NoError(t, os.WriteFile(readme, []byte("<!-- depscope:dependencies:start -->\n<!-- depscope:dependencies:end -->\n\n"+
		"<!-- depscope:dependencies-report:start -->\n<!-- depscope:dependencies-report:end -->\n"), 0o644))

	a, res, _ := analyzeFixture(t, func(c *config.Config) {
		c.Output.Report = filepath.Join(out, "report.txt")
		c.Output.AnalysisJSON = filepath.Join(out, "analysis.json")
		c.Output.DOTCalls = filepath.Join(out, "calls.dot")
		c.Output.DOTImports = filepath.Join(out, "imports.dot")
		c.Output.Mermaid = filepath.Join(out, "imports.mmd")
		c.Output.PlantUML = filepath.Join(out, "imports.puml")
		c.Output.TSVEdges = filepath.Join(out, "edges.tsv")
		c.Output.TSVCoupling = filepath.Join(out, "coupling.tsv")
		c.Output.SARIF = filepath.Join(out, "findings.sarif")
		c.Output.Markdown = readme
	})
	require.NoError(t, a.WriteOutputs(context.Background(), res))

	for _, name := range []string{"report.txt", "analysis.json", "calls.dot", "imports.dot", "imports.mmd", "imports.puml", "edges.tsv", "coupling.tsv", "findings.sarif"} {
		info, err := os.Stat(filepath.Join(out, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	data, err := os.ReadFile(filepath.Join(out, "analysis.json"))
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	for _, key := range []string{"repo_path", "summary", "call_graph", "import_graph", "circular_dependencies", "coupling_metrics", "import_coupling_metrics", "complexity"} {
		assert.Contains(t, doc, key)
	}
	var cycles []graph.Cycle
	require.NoError(t, json.Unmarshal(doc["circular_dependencies"], &cycles))
	assert.Len(t, cycles, 2)

	tsv, err := os.ReadFile(filepath.Join(out, "edges.tsv"))
	require.NoError(t, err)
	assert.Contains(t, string(tsv), "call\tfile1.py::f\tfile2.py::g\ttrue\n")
	assert.Contains(t, string(tsv), "import\tfile2.py\tfile1.py\ttrue\n")

	sarif, err := os.ReadFile(filepath.Join(out, "findings.sarif"))
	require.NoError(t, err)
	assert.Contains(t, string(sarif), `"ruleId": "DEP001"`)
	assert.Contains(t, string(sarif), `"ruleId": "DEP002"`)

	md, err := os.ReadFile(readme)
	require.NoError(t, err)
	assert.Contains(t, string(md), "```mermaid\n")
	assert.Contains(t, string(md), "<!-- depscope:dependencies-report:start -->\n```text\n"+strings.Repeat("=", 10))
	assert.Contains(t, string(md), "DEPENDENCY ANALYSIS REPORT")
}

func TestRecordHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	a, res, _ := analyzeFixture(t, nil)
	_, recorded, err := a.RecordHistory(context.Background(), res)
	require.NoError(t, err)
	assert.False(t, recorded, "history is off by default")

	a.Config.History = config.History{Enabled: true, Path: dbPath}
	saved, recorded, err := a.RecordHistory(context.Background(), res)
	require.NoError(t, err)
	require.True(t, recorded)
	assert.NotEmpty(t, saved.RunID)
	assert.Equal(t, 3, saved.FileCount)
	assert.Equal(t, 3, saved.FunctionCount)
	assert.Equal(t, 2, saved.HighSeverityCycles)

	store, err := history.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()
	rows, err := store.List(context.Background(), res.RepoPath, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, saved.RunID, rows[0].RunID)
	assert.Equal(t, 1, rows[0].CallCycles)
	assert.Equal(t, 1, rows[0].ImportCycles)
}

func TestFormatImpactAndChain(t *testing.T) {
	_, res, _ := analyzeFixture(t, nil)

	impact, err := graph.AnalyzeImpact(res.ImportGraph, "file1.py")
	require.NoError(t, err)
	out := FormatImpactReport(impact)
	assert.Contains(t, out, "Target: file1.py\n")
	assert.Contains(t, out, "Direct dependents (1)\n- file2.py\n")
	assert.Contains(t, out, "Transitive impact (0)\n")

	chain, err := graph.FindChain(res.CallGraph, "file1.py::f", "file2.py::g")
	require.NoError(t, err)
	assert.Equal(t, "Dependency chain: file1.py::f -> file2.py::g\n\nfile1.py::f\n  -> file2.py::g\n", FormatChain(chain))
	assert.Empty(t, FormatChain(nil))
}

func TestAnalyze_AbsoluteExtractionKeys(t *testing.T) {
	doc := `{
  "repo_path": "/repo",
  "files": {
    "/repo/pkg/a.py": {
      "functions": [{"name": "x", "line_start": 3, "line_end": 4, "calls": ["y"], "complexity": 1}],
      "imports": [{"module": "pkg.sub.b", "names": ["y"], "is_from_import": true, "line_number": 1}]
    },
    "/repo/pkg/sub/b.py": {
      "functions": [{"name": "y", "line_start": 1, "line_end": 2, "complexity": 1}]
    }
  }
}`
	repo, err := parser.DecodeJSON([]byte(doc))
	require.NoError(t, err)

	a := newApp(t, nil)
	res, err := a.Analyze(context.Background(), repo, "/repo")
	require.NoError(t, err)

	assert.Equal(t, []string{"pkg/a.py", "pkg/sub/b.py"}, res.ImportGraph.NodeIDs())
	assert.Equal(t, []string{"pkg/sub/b.py"}, res.ImportGraph.Forward("pkg/a.py"))
	assert.Equal(t, []string{"pkg/a.py::x", "pkg/sub/b.py::y"}, res.CallGraph.NodeIDs())
	assert.Equal(t, []string{"pkg/sub/b.py::y"}, res.CallGraph.Forward("pkg/a.py::x"))
	require.NoError(t, graph.CheckSymmetry(res.ImportGraph))

	_, err = a.Analyze(context.Background(), repo, "")
	require.NoError(t, err)
	assert.Contains(t, repo.Files, "/repo/pkg/a.py", "the extraction itself is left untouched")
}
