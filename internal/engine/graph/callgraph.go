package graph

import (
	"depscope/internal/engine/parser"
	"depscope/internal/engine/resolver"
)

// CallGraphNode is one declared function. Calls keeps the extracted call
// names; Callees and CalledBy hold resolved node ids.
type CallGraphNode struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	File       string   `json:"file"`
	Class      string   `json:"class,omitempty"`
	Line       int      `json:"line"`
	Complexity int      `json:"complexity"`
	Calls      []string `json:"calls"`
	Callees    []string `json:"callees"`
	CalledBy   []string `json:"called_by"`
}

type CallGraph struct {
	Nodes map[string]*CallGraphNode `json:"nodes"`
	order []string
}

// CallGraphOptions selects the call resolver. Imports maps each file to the
// files it imports and is used by the import-scoped resolver.
type CallGraphOptions struct {
	Resolver string
	Imports  map[string][]string
}

// NodeID builds file::[class::]name.
func NodeID(file, class, name string) string {
	if class != "" {
		return file + "::" + class + "::" + name
	}
	return file + "::" + name
}

// BuildCallGraph creates one node per function, then resolves every call
// name to the nodes it may refer to. A repeated id replaces the earlier
// declaration but keeps its position.
func BuildCallGraph(repo *parser.RepositoryExtractionResult, opts CallGraphOptions) (*CallGraph, error) {
	g := &CallGraph{Nodes: make(map[string]*CallGraphNode)}

	for _, path := range repo.Paths() {
		for _, fn := range repo.Files[path].Functions {
			id := NodeID(path, fn.ParentClass, fn.Name)
			if _, exists := g.Nodes[id]; !exists {
				g.order = append(g.order, id)
			}
			g.Nodes[id] = &CallGraphNode{
				ID:         id,
				Name:       fn.Name,
				File:       path,
				Class:      fn.ParentClass,
				Line:       fn.LineStart,
				Complexity: fn.Complexity,
				Calls:      append([]string{}, fn.Calls...),
				Callees:    []string{},
				CalledBy:   []string{},
			}
		}
	}

	index := resolver.NewNameIndex()
	for _, id := range g.order {
		n := g.Nodes[id]
		index.Add(resolver.Candidate{ID: n.ID, Name: n.Name, File: n.File, Class: n.Class})
	}
	res, err := resolver.NewCallResolver(opts.Resolver, index, opts.Imports)
	if err != nil {
		return nil, err
	}

	for _, id := range g.order {
		caller := g.Nodes[id]
		seen := make(map[string]bool)
		for _, name := range caller.Calls {
			for _, target := range res.Resolve(resolver.Caller{ID: caller.ID, File: caller.File, Class: caller.Class}, name) {
				callee := g.Nodes[target]
				addEdge(&caller.Callees, &callee.CalledBy, seen, caller.ID, target)
			}
		}
	}
	return g, nil
}

func (g *CallGraph) NodeIDs() []string { return g.order }

func (g *CallGraph) Forward(id string) []string {
	if n, ok := g.Nodes[id]; ok {
		return n.Callees
	}
	return nil
}

func (g *CallGraph) Reverse(id string) []string {
	if n, ok := g.Nodes[id]; ok {
		return n.CalledBy
	}
	return nil
}

// CallNameCount is the number of extracted call names across all nodes,
// resolved or not.
func (g *CallGraph) CallNameCount() int {
	total := 0
	for _, n := range g.Nodes {
		total += len(n.Calls)
	}
	return total
}
