package graph

// Graph is a node-id keyed collection with forward and reverse edge lists.
// NodeIDs returns ids in build order, which is also the order the cycle
// detector starts its traversals in.
type Graph interface {
	NodeIDs() []string
	Forward(id string) []string
	Reverse(id string) []string
}

// EdgeCount sums the forward-edge lists of g.
func EdgeCount(g Graph) int {
	total := 0
	for _, id := range g.NodeIDs() {
		total += len(g.Forward(id))
	}
	return total
}

// addEdge appends to into from's forward list and from into to's reverse
// list, once per pair.
func addEdge(forward, reverse *[]string, seen map[string]bool, from, to string) bool {
	if seen[to] {
		return false
	}
	seen[to] = true
	*forward = append(*forward, to)
	*reverse = append(*reverse, from)
	return true
}
