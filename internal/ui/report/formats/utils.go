package formats

import (
	"fmt"
	"strings"
	"unicode"

	"depscope/internal/engine/graph"
)

// NodeLabeler returns the display label of a node id. A nil labeler uses the
// id itself.
type NodeLabeler func(id string) string

func label(l NodeLabeler, id string) string {
	if l == nil {
		return id
	}
	return l(id)
}

// CouplingLabeler labels nodes with their coupling counts.
func CouplingLabeler(metrics map[string]graph.CouplingMetrics) NodeLabeler {
	return func(id string) string {
		m, ok := metrics[id]
		if !ok {
			return id
		}
		return fmt.Sprintf("%s\\n(in=%d out=%d)", id, m.Afferent, m.Efferent)
	}
}

func sanitizeID(name string) string {
	if name == "" {
		return "n"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "n_" + out
	}
	return out
}

func makeIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

// cycleEdgeSet collects the consecutive pairs of closed cycles.
func cycleEdgeSet(cycles []graph.Cycle) map[string]bool {
	out := make(map[string]bool)
	for _, c := range cycles {
		for i := 0; i+1 < len(c.Nodes); i++ {
			out[c.Nodes[i]+"->"+c.Nodes[i+1]] = true
		}
	}
	return out
}

func cycleNodeSet(cycles []graph.Cycle) map[string]bool {
	out := make(map[string]bool)
	for _, c := range cycles {
		for _, id := range c.Nodes {
			out[id] = true
		}
	}
	return out
}

func joinInts(v []int) string {
	parts := make([]string, 0, len(v))
	for _, n := range v {
		parts = append(parts, fmt.Sprintf("%d", n))
	}
	return strings.Join(parts, ",")
}
