package graph

import (
	"sort"
)

// CouplingMetrics holds afferent (incoming) and efferent (outgoing) coupling
// of one node. Instability is efferent/(afferent+efferent), 0 for an
// isolated node.
type CouplingMetrics struct {
	Node        string  `json:"node"`
	Afferent    int     `json:"afferent_coupling"`
	Efferent    int     `json:"efferent_coupling"`
	Instability float64 `json:"instability"`
}

func (m CouplingMetrics) Total() int {
	return m.Afferent + m.Efferent
}

// ComputeCoupling derives coupling metrics for every node of g. It does not
// modify g.
func ComputeCoupling(g Graph) map[string]CouplingMetrics {
	ids := g.NodeIDs()
	out := make(map[string]CouplingMetrics, len(ids))
	for _, id := range ids {
		a := len(g.Reverse(id))
		e := len(g.Forward(id))
		instability := 0.0
		if a+e > 0 {
			instability = float64(e) / float64(a+e)
		}
		out[id] = CouplingMetrics{Node: id, Afferent: a, Efferent: e, Instability: instability}
	}
	return out
}

// TopCoupled returns the n nodes with the highest total degree, ties broken
// by node id.
func TopCoupled(metrics map[string]CouplingMetrics, n int) []CouplingMetrics {
	rows := sortedMetrics(metrics, func(a, b CouplingMetrics) bool {
		if a.Total() != b.Total() {
			return a.Total() > b.Total()
		}
		return a.Node < b.Node
	})
	if n >= 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// HighInstability returns nodes with instability above threshold and at least
// one outgoing edge, most unstable first.
func HighInstability(metrics map[string]CouplingMetrics, threshold float64) []CouplingMetrics {
	filtered := make(map[string]CouplingMetrics)
	for id, m := range metrics {
		if m.Instability > threshold && m.Efferent > 0 {
			filtered[id] = m
		}
	}
	return sortedMetrics(filtered, func(a, b CouplingMetrics) bool {
		if a.Instability != b.Instability {
			return a.Instability > b.Instability
		}
		return a.Node < b.Node
	})
}

func sortedMetrics(metrics map[string]CouplingMetrics, less func(a, b CouplingMetrics) bool) []CouplingMetrics {
	rows := make([]CouplingMetrics, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, m)
	}
	sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	return rows
}

// ComplexityHotspot is a function ranked by cyclomatic complexity.
type ComplexityHotspot struct {
	Node       string `json:"node"`
	File       string `json:"file"`
	Line       int    `json:"line"`
	Complexity int    `json:"complexity"`
}

type ComplexityStats struct {
	Functions int     `json:"functions"`
	Average   float64 `json:"average"`
	Max       int     `json:"max"`
	// AboveThreshold counts functions whose complexity exceeds Threshold.
	AboveThreshold int `json:"above_threshold"`
	Threshold      int `json:"threshold"`
}

// Complexity summarizes node complexities of the call graph.
func (g *CallGraph) Complexity(threshold int) ComplexityStats {
	stats := ComplexityStats{Functions: len(g.Nodes), Threshold: threshold}
	if len(g.Nodes) == 0 {
		return stats
	}
	sum := 0
	for _, n := range g.Nodes {
		sum += n.Complexity
		if n.Complexity > stats.Max {
			stats.Max = n.Complexity
		}
		if n.Complexity > threshold {
			stats.AboveThreshold++
		}
	}
	stats.Average = float64(sum) / float64(len(g.Nodes))
	return stats
}

// TopComplexity returns the n most complex functions.
func (g *CallGraph) TopComplexity(n int) []ComplexityHotspot {
	if n <= 0 {
		return nil
	}
	hotspots := make([]ComplexityHotspot, 0, len(g.Nodes))
	for _, node := range g.Nodes {
		hotspots = append(hotspots, ComplexityHotspot{
			Node:       node.ID,
			File:       node.File,
			Line:       node.Line,
			Complexity: node.Complexity,
		})
	}
	sort.Slice(hotspots, func(i, j int) bool {
		if hotspots[i].Complexity != hotspots[j].Complexity {
			return hotspots[i].Complexity > hotspots[j].Complexity
		}
		return hotspots[i].Node < hotspots[j].Node
	})
	if len(hotspots) > n {
		hotspots = hotspots[:n]
	}
	return hotspots
}
