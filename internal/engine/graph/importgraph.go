package graph

import (
	"path"
	"strings"

	"depscope/internal/engine/parser"
	"depscope/internal/engine/resolver"
)

// ImportGraphNode is one repository file keyed by its root-relative path.
type ImportGraphNode struct {
	ID         string   `json:"id"`
	Frontend   string   `json:"frontend,omitempty"`
	Imports    []string `json:"imports"`
	ImportedBy []string `json:"imported_by"`
	// Unresolved lists module texts that matched no repository file.
	Unresolved []string `json:"unresolved,omitempty"`
}

type ImportGraph struct {
	Nodes map[string]*ImportGraphNode `json:"nodes"`
	order []string
}

// BuildImportGraph creates one node per file, then binds every import to a
// repository file through r. Unresolved imports produce no edge.
func BuildImportGraph(repo *parser.RepositoryExtractionResult, r *resolver.ImportResolver) *ImportGraph {
	paths := repo.Paths()
	g := &ImportGraph{Nodes: make(map[string]*ImportGraphNode, len(paths)), order: paths}

	for _, p := range paths {
		g.Nodes[p] = &ImportGraphNode{
			ID:         p,
			Frontend:   frontendOf(p, repo.Files[p]),
			Imports:    []string{},
			ImportedBy: []string{},
		}
	}

	for _, p := range paths {
		node := g.Nodes[p]
		seen := make(map[string]bool)
		for _, imp := range repo.Files[p].Imports {
			target, ok := r.Resolve(p, node.Frontend, imp)
			if !ok {
				node.Unresolved = appendMissing(node.Unresolved, imp.Module)
				continue
			}
			addEdge(&node.Imports, &g.Nodes[target].ImportedBy, seen, p, target)
		}
	}
	return g
}

func (g *ImportGraph) NodeIDs() []string { return g.order }

func (g *ImportGraph) Forward(id string) []string {
	if n, ok := g.Nodes[id]; ok {
		return n.Imports
	}
	return nil
}

func (g *ImportGraph) Reverse(id string) []string {
	if n, ok := g.Nodes[id]; ok {
		return n.ImportedBy
	}
	return nil
}

// ImportMap returns each file's resolved imports, the scope used by the
// import-scoped call resolver.
func (g *ImportGraph) ImportMap() map[string][]string {
	out := make(map[string][]string, len(g.Nodes))
	for id, n := range g.Nodes {
		out[id] = n.Imports
	}
	return out
}

// frontendOf falls back to the default extension mapping for results decoded
// from documents that do not record the front-end.
func frontendOf(p string, f *parser.FileExtractionResult) string {
	if f != nil && f.Frontend != "" {
		return f.Frontend
	}
	return parser.DefaultFrontendMapping()[strings.ToLower(path.Ext(p))]
}

func appendMissing(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}
