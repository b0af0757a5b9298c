package formats

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"depscope/internal/engine/architecture"
	"depscope/internal/engine/graph"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"

	ruleIDCallCycle   = "DEP001"
	ruleIDImportCycle = "DEP002"
	ruleIDParseError  = "DEP003"
	ruleIDViolation   = "DEP004"
)

type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine int `json:"startLine,omitempty"`
}

// SARIFInput holds the findings exported as SARIF. CallGraph is used to
// locate function nodes and may be nil.
type SARIFInput struct {
	ToolVersion string
	CallGraph   *graph.CallGraph
	Cycles      []graph.Cycle
	ParseErrors map[string][]string
	Violations  []architecture.Violation
}

// GenerateSARIF builds a SARIF v2.1.0 document. Cycles become results of the
// call-cycle or import-cycle rule at a level that follows their severity.
// URIs are repository-relative.
func GenerateSARIF(in SARIFInput) ([]byte, error) {
	results := make([]sarifResult, 0, len(in.Cycles)+len(in.ParseErrors)+len(in.Violations))
	var callCycles, importCycles bool

	for _, c := range in.Cycles {
		rule := ruleIDImportCycle
		if c.Kind == graph.CycleFunctionCall {
			rule = ruleIDCallCycle
			callCycles = true
		} else {
			importCycles = true
		}
		result := sarifResult{
			RuleID:  rule,
			Level:   severityToLevel(c.Severity),
			Message: sarifMessage{Text: fmt.Sprintf("Circular dependency (%s severity): %s", c.Severity, strings.Join(c.Nodes, " → "))},
		}
		if len(c.Nodes) > 0 {
			result.Locations = []sarifLocation{nodeLocation(in.CallGraph, c.Nodes[0])}
		}
		results = append(results, result)
	}

	files := make([]string, 0, len(in.ParseErrors))
	for path, msgs := range in.ParseErrors {
		if len(msgs) > 0 {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	for _, path := range files {
		for _, msg := range in.ParseErrors[path] {
			results = append(results, sarifResult{
				RuleID:    ruleIDParseError,
				Level:     "warning",
				Message:   sarifMessage{Text: msg},
				Locations: []sarifLocation{fileLocation(path, 0)},
			})
		}
	}

	for _, v := range in.Violations {
		text := fmt.Sprintf("Rule %s: %s imports %s", v.Rule, v.Module, v.Target)
		var locations []sarifLocation
		if v.Type == architecture.ViolationFileCount {
			text = fmt.Sprintf("Rule %s: %s has %d files, limit %d", v.Rule, v.Module, v.Actual, v.Limit)
		} else {
			locations = []sarifLocation{fileLocation(v.Module, 0)}
		}
		results = append(results, sarifResult{
			RuleID:    ruleIDViolation,
			Level:     "error",
			Message:   sarifMessage{Text: text},
			Locations: locations,
		})
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "depscope",
						Version: in.ToolVersion,
						Rules:   buildSARIFRules(callCycles, importCycles, len(files) > 0, len(in.Violations) > 0),
					},
				},
				Results: results,
			},
		},
	}
	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules returns only the rules that have findings.
func buildSARIFRules(callCycles, importCycles, parseErrors, violations bool) []sarifRule {
	rules := make([]sarifRule, 0, 4)
	if callCycles {
		rules = append(rules, sarifRule{
			ID:               ruleIDCallCycle,
			Name:             "CircularCall",
			ShortDescription: sarifMessage{Text: "Functions call each other in a cycle."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		})
	}
	if importCycles {
		rules = append(rules, sarifRule{
			ID:               ruleIDImportCycle,
			Name:             "CircularImport",
			ShortDescription: sarifMessage{Text: "Modules import each other in a cycle."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		})
	}
	if parseErrors {
		rules = append(rules, sarifRule{
			ID:               ruleIDParseError,
			Name:             "ParseError",
			ShortDescription: sarifMessage{Text: "A file could not be extracted."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "warning"},
		})
	}
	if violations {
		rules = append(rules, sarifRule{
			ID:               ruleIDViolation,
			Name:             "ArchitectureViolation",
			ShortDescription: sarifMessage{Text: "A file breaks a configured architecture rule."},
			DefaultConfig:    sarifRuleDefaultConfig{Level: "error"},
		})
	}
	return rules
}

// nodeLocation points at the declaration of a call-graph node, or at the
// file for import-graph nodes.
func nodeLocation(g *graph.CallGraph, id string) sarifLocation {
	if g != nil {
		if n, ok := g.Nodes[id]; ok {
			return fileLocation(n.File, n.Line)
		}
	}
	return fileLocation(id, 0)
}

func fileLocation(path string, line int) sarifLocation {
	loc := sarifLocation{
		PhysicalLocation: sarifPhysicalLocation{
			ArtifactLocation: sarifArtifactLocation{URI: path, URIBaseID: "%SRCROOT%"},
		},
	}
	if line > 0 {
		loc.PhysicalLocation.Region = &sarifRegion{StartLine: line}
	}
	return loc
}

func severityToLevel(s graph.Severity) string {
	switch s {
	case graph.SeverityHigh:
		return "error"
	case graph.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}
