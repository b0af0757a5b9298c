package graph

import (
	"sort"

	"depscope/internal/core/errors"
)

// ImpactReport lists the nodes that depend on Target, directly or through
// other nodes.
type ImpactReport struct {
	Target     string   `json:"target"`
	Direct     []string `json:"direct"`
	Transitive []string `json:"transitive"`
}

// Total counts every affected node.
func (r ImpactReport) Total() int {
	return len(r.Direct) + len(r.Transitive)
}

// AnalyzeImpact walks reverse edges from target. On the import graph these
// are importers, on the call graph callers. Target itself is never listed,
// even when it sits on a cycle.
func AnalyzeImpact(g Graph, target string) (ImpactReport, error) {
	if !hasNode(g, target) {
		return ImpactReport{}, errors.AddContext(errors.New(errors.CodeNotFound, "impact target not found"), errors.CtxNode, target)
	}

	report := ImpactReport{Target: target, Direct: []string{}, Transitive: []string{}}
	seen := map[string]bool{target: true}
	for _, id := range g.Reverse(target) {
		if !seen[id] {
			seen[id] = true
			report.Direct = append(report.Direct, id)
		}
	}

	queue := append([]string(nil), report.Direct...)
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, next := range g.Reverse(curr) {
			if seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
			report.Transitive = append(report.Transitive, next)
		}
	}

	sort.Strings(report.Direct)
	sort.Strings(report.Transitive)
	return report, nil
}

func hasNode(g Graph, id string) bool {
	for _, n := range g.NodeIDs() {
		if n == id {
			return true
		}
	}
	return false
}

// FindChain returns a shortest forward path from one node to another,
// both ends included. Neighbours are expanded in sorted order so ties
// resolve the same way on every run.
func FindChain(g Graph, from, to string) ([]string, error) {
	for _, id := range []string{from, to} {
		if !hasNode(g, id) {
			return nil, errors.AddContext(errors.New(errors.CodeNotFound, "chain endpoint not found"), errors.CtxNode, id)
		}
	}
	if from == to {
		return []string{from}, nil
	}

	queue := []string{from}
	visited := map[string]bool{from: true}
	prev := make(map[string]string)
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		neighbors := append([]string(nil), g.Forward(curr)...)
		sort.Strings(neighbors)
		for _, next := range neighbors {
			if visited[next] {
				continue
			}
			visited[next] = true
			prev[next] = curr
			if next == to {
				path := []string{to}
				for node := to; node != from; {
					node = prev[node]
					path = append(path, node)
				}
				for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
					path[i], path[j] = path[j], path[i]
				}
				return path, nil
			}
			queue = append(queue, next)
		}
	}
	return nil, errors.Newf(errors.CodeNotFound, "no dependency chain from %s to %s", from, to)
}
