package architecture

import (
	"depscope/internal/engine/graph"
)

const (
	ViolationImport    = "import"
	ViolationFileCount = "file_count"
)

// Violation is one broken rule. Import violations name the importing file
// and the imported file; file-count violations name the rule's modules.
type Violation struct {
	Rule    string `json:"rule"`
	Type    string `json:"type"`
	Module  string `json:"module"`
	Target  string `json:"target,omitempty"`
	Message string `json:"message"`
	Limit   int    `json:"limit,omitempty"`
	Actual  int    `json:"actual,omitempty"`
}

type EvaluationResult struct {
	Violations       []Violation `json:"violations"`
	EvaluatedModules int         `json:"evaluated_modules"`
}

type RuleEvaluator struct {
	rules []Rule
}

func NewRuleEvaluator(rules []Rule) *RuleEvaluator {
	return &RuleEvaluator{rules: rules}
}

// Evaluate checks every file of g against every rule whose modules match it.
// Files are visited in build order and rules by name, so the violation order
// is stable.
func (e *RuleEvaluator) Evaluate(g *graph.ImportGraph) EvaluationResult {
	result := EvaluationResult{Violations: []Violation{}}
	if e == nil || len(e.rules) == 0 || g == nil {
		return result
	}

	fileCounts := make([]int, len(e.rules))
	for _, path := range g.NodeIDs() {
		matched := false
		for i, rule := range e.rules {
			if !rule.MatchesModule(path) {
				continue
			}
			matched = true
			if rule.ExcludesFile(path) {
				continue
			}
			fileCounts[i]++
			if !rule.checksImports() {
				continue
			}
			for _, target := range g.Forward(path) {
				if rule.AllowsImport(target) {
					continue
				}
				result.Violations = append(result.Violations, Violation{
					Rule:    rule.Name,
					Type:    ViolationImport,
					Module:  path,
					Target:  target,
					Message: "import violates rule policy",
				})
			}
		}
		if matched {
			result.EvaluatedModules++
		}
	}

	for i, rule := range e.rules {
		if rule.MaxFiles > 0 && fileCounts[i] > rule.MaxFiles {
			result.Violations = append(result.Violations, Violation{
				Rule:    rule.Name,
				Type:    ViolationFileCount,
				Module:  rule.modulesLabel(),
				Message: "module exceeds file-count limit",
				Limit:   rule.MaxFiles,
				Actual:  fileCounts[i],
			})
		}
	}
	return result
}
