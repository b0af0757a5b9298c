package graph

import (
	"strings"
)

type CycleKind string

const (
	CycleFunctionCall CycleKind = "function_call"
	CycleModuleImport CycleKind = "module_import"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// SeverityFor classifies a cycle by the length of its closed node sequence.
func SeverityFor(length int) Severity {
	switch {
	case length <= 3:
		return SeverityHigh
	case length <= 6:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Cycle is a closed node sequence: the first and last elements are equal.
type Cycle struct {
	Nodes    []string  `json:"cycle"`
	Kind     CycleKind `json:"type"`
	Severity Severity  `json:"severity"`
}

type DetectOptions struct {
	// Canonical drops repeated reports of the same cycle reached from
	// different entry points.
	Canonical bool
}

// DetectCycles runs a depth-first search from every unvisited node of g.
// Without Canonical a cycle may be reported once per entry point that
// reaches it.
func DetectCycles(g Graph, kind CycleKind, opts DetectOptions) []Cycle {
	d := &detector{
		graph:   g,
		visited: make(map[string]bool),
		onStack: make(map[string]bool),
	}
	for _, id := range g.NodeIDs() {
		if !d.visited[id] {
			d.visit(id)
		}
	}

	cycles := make([]Cycle, 0, len(d.found))
	seen := make(map[string]bool)
	for _, nodes := range d.found {
		if opts.Canonical {
			key := strings.Join(canonicalRotation(nodes), "\x00")
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		cycles = append(cycles, Cycle{Nodes: nodes, Kind: kind, Severity: SeverityFor(len(nodes))})
	}
	return cycles
}

type detector struct {
	graph   Graph
	visited map[string]bool
	onStack map[string]bool
	path    []string
	found   [][]string
}

func (d *detector) visit(curr string) {
	d.visited[curr] = true
	d.onStack[curr] = true
	d.path = append(d.path, curr)

	for _, next := range d.graph.Forward(curr) {
		if d.onStack[next] {
			start := -1
			for i, id := range d.path {
				if id == next {
					start = i
					break
				}
			}
			if start != -1 {
				cycle := make([]string, 0, len(d.path)-start+1)
				cycle = append(cycle, d.path[start:]...)
				cycle = append(cycle, next)
				d.found = append(d.found, cycle)
			}
		} else if !d.visited[next] {
			d.visit(next)
		}
	}

	d.path = d.path[:len(d.path)-1]
	d.onStack[curr] = false
}

// canonicalRotation rotates the open part of a closed cycle so that its
// smallest id comes first.
func canonicalRotation(cycle []string) []string {
	open := cycle[:len(cycle)-1]
	if len(open) == 0 {
		return cycle
	}
	minIdx := 0
	for i, id := range open {
		if id < open[minIdx] {
			minIdx = i
		}
	}
	rotated := make([]string, 0, len(open))
	rotated = append(rotated, open[minIdx:]...)
	rotated = append(rotated, open[:minIdx]...)
	return rotated
}

// HasHighSeverity reports whether any cycle is classified high.
func HasHighSeverity(cycles []Cycle) bool {
	for _, c := range cycles {
		if c.Severity == SeverityHigh {
			return true
		}
	}
	return false
}
