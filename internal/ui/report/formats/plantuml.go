package formats

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"depscope/internal/engine/architecture"
	"depscope/internal/engine/graph"
)

// PlantUMLGenerator renders an import graph as a PlantUML component diagram
// with one package per directory.
type PlantUMLGenerator struct {
	graph      graph.Graph
	labeler    NodeLabeler
	violations map[string]bool
}

func NewPlantUMLGenerator(g graph.Graph) *PlantUMLGenerator {
	return &PlantUMLGenerator{graph: g}
}

func (p *PlantUMLGenerator) SetLabeler(l NodeLabeler) {
	p.labeler = l
}

// SetViolations marks the import edges that break an architecture rule.
func (p *PlantUMLGenerator) SetViolations(violations []architecture.Violation) {
	p.violations = make(map[string]bool, len(violations))
	for _, v := range violations {
		if v.Type == architecture.ViolationImport {
			p.violations[v.Module+"->"+v.Target] = true
		}
	}
}

func (p *PlantUMLGenerator) Generate(cycles []graph.Cycle) (string, error) {
	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("skinparam componentStyle rectangle\n")
	b.WriteString("skinparam packageStyle rectangle\n")
	b.WriteString("skinparam linetype ortho\n")
	b.WriteString("left to right direction\n\n")

	names := p.graph.NodeIDs()
	aliases := makeIDs(names)

	byDir := make(map[string][]string)
	for _, name := range names {
		dir := path.Dir(name)
		byDir[dir] = append(byDir[dir], name)
	}
	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	for _, dir := range dirs {
		indent := ""
		if dir != "." {
			fmt.Fprintf(&b, "package \"%s\" {\n", escapeLabel(dir))
			indent = "  "
		}
		for _, name := range byDir[dir] {
			fmt.Fprintf(&b, "%scomponent \"%s\" as %s\n", indent, escapeLabel(label(p.labeler, name)), aliases[name])
		}
		if dir != "." {
			b.WriteString("}\n")
		}
	}

	b.WriteString("\n")
	cycleEdges := cycleEdgeSet(cycles)
	for _, from := range names {
		for _, to := range p.graph.Forward(from) {
			key := from + "->" + to
			switch {
			case cycleEdges[key]:
				fmt.Fprintf(&b, "%s -[#red,thickness=2]-> %s : CYCLE\n", aliases[from], aliases[to])
			case p.violations[key]:
				fmt.Fprintf(&b, "%s -[#a64d00,dashed]-> %s : VIOLATION\n", aliases[from], aliases[to])
			default:
				fmt.Fprintf(&b, "%s --> %s\n", aliases[from], aliases[to])
			}
		}
	}

	if len(cycleEdges) > 0 || len(p.violations) > 0 {
		b.WriteString("\nlegend right\n")
		b.WriteString("|= Item |= Meaning |\n")
		if len(cycleEdges) > 0 {
			b.WriteString("|<color:#cc0000>Red edge</color>|Cycle edge|\n")
		}
		if len(p.violations) > 0 {
			b.WriteString("|<color:#a64d00>Brown dashed edge</color>|Architecture violation edge|\n")
		}
		b.WriteString("endlegend\n")
	}

	b.WriteString("\n@enduml\n")
	return b.String(), nil
}
