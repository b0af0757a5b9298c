package formats

import (
	"encoding/json"
	"testing"

	"depscope/internal/engine/architecture"
	"depscope/internal/engine/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeSARIF(t *testing.T, in SARIFInput) sarifReport {
	t.Helper()
	data, err := GenerateSARIF(in)
	require.NoError(t, err)
	var report sarifReport
	require.NoError(t, json.Unmarshal(data, &report))
	return report
}

func TestGenerateSARIF_EmptyResults(t *testing.T) {
	report := decodeSARIF(t, SARIFInput{ToolVersion: "1.0.0"})
	assert.Equal(t, sarifSchema, report.Schema)
	assert.Equal(t, sarifVersion, report.Version)
	require.Len(t, report.Runs, 1)
	assert.Empty(t, report.Runs[0].Results)
	assert.Empty(t, report.Runs[0].Tool.Driver.Rules)
	assert.Equal(t, "depscope", report.Runs[0].Tool.Driver.Name)
}

func TestGenerateSARIF_Findings(t *testing.T) {
	cg := &graph.CallGraph{Nodes: map[string]*graph.CallGraphNode{
		"a.py::f": {ID: "a.py::f", File: "a.py", Line: 4},
	}}
	report := decodeSARIF(t, SARIFInput{
		CallGraph: cg,
		Cycles: []graph.Cycle{
			{Nodes: []string{"a.py::f", "b.py::g", "a.py::f"}, Kind: graph.CycleFunctionCall, Severity: graph.SeverityHigh},
			{Nodes: []string{"a.py", "b.py", "c.py", "d.py", "a.py"}, Kind: graph.CycleModuleImport, Severity: graph.SeverityMedium},
		},
		ParseErrors: map[string][]string{"z.py": {"Syntax error at line 2"}, "ok.py": nil},
	})

	run := report.Runs[0]
	require.Len(t, run.Results, 3)
	require.Len(t, run.Tool.Driver.Rules, 3)

	call := run.Results[0]
	assert.Equal(t, ruleIDCallCycle, call.RuleID)
	assert.Equal(t, "error", call.Level)
	assert.Contains(t, call.Message.Text, "a.py::f → b.py::g → a.py::f")
	require.Len(t, call.Locations, 1)
	assert.Equal(t, "a.py", call.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	require.NotNil(t, call.Locations[0].PhysicalLocation.Region)
	assert.Equal(t, 4, call.Locations[0].PhysicalLocation.Region.StartLine)

	imp := run.Results[1]
	assert.Equal(t, ruleIDImportCycle, imp.RuleID)
	assert.Equal(t, "warning", imp.Level)
	assert.Equal(t, "a.py", imp.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Nil(t, imp.Locations[0].PhysicalLocation.Region)

	parse := run.Results[2]
	assert.Equal(t, ruleIDParseError, parse.RuleID)
	assert.Equal(t, "z.py", parse.Locations[0].PhysicalLocation.ArtifactLocation.URI)
}

func TestGenerateSARIF_Violations(t *testing.T) {
	report := decodeSARIF(t, SARIFInput{Violations: []architecture.Violation{
		{Rule: "api", Type: architecture.ViolationImport, Module: "api/a.py", Target: "infra/db.py"},
		{Rule: "size", Type: architecture.ViolationFileCount, Module: "api", Limit: 1, Actual: 3},
	}})

	run := report.Runs[0]
	require.Len(t, run.Results, 2)
	require.Len(t, run.Tool.Driver.Rules, 1)
	assert.Equal(t, ruleIDViolation, run.Tool.Driver.Rules[0].ID)

	assert.Equal(t, "error", run.Results[0].Level)
	assert.Equal(t, "Rule api: api/a.py imports infra/db.py", run.Results[0].Message.Text)
	assert.Equal(t, "api/a.py", run.Results[0].Locations[0].PhysicalLocation.ArtifactLocation.URI)
	assert.Equal(t, "Rule size: api has 3 files, limit 1", run.Results[1].Message.Text)
	assert.Empty(t, run.Results[1].Locations)
}

func TestSeverityToLevel(t *testing.T) {
	assert.Equal(t, "error", severityToLevel(graph.SeverityHigh))
	assert.Equal(t, "warning", severityToLevel(graph.SeverityMedium))
	assert.Equal(t, "note", severityToLevel(graph.SeverityLow))
}
