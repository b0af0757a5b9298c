// # internal/engine/resolver/calls.go
package resolver

import (
	"depscope/internal/core/errors"
	"depscope/internal/engine/parser"
)

const (
	CallsHeuristic    = "heuristic"
	CallsImportScoped = "import-scoped"
)

// KnownCallResolvers lists the accepted values of the resolver.calls setting.
func KnownCallResolvers() []string {
	return []string{CallsHeuristic, CallsImportScoped}
}

// Caller identifies the function a call is made from.
type Caller struct {
	ID    string
	File  string
	Class string
}

// Candidate is a declared function that a call name may bind to.
type Candidate struct {
	ID    string
	Name  string
	File  string
	Class string
}

// NameIndex maps declared function names to candidates in insertion order.
type NameIndex struct {
	byName map[string][]Candidate
}

func NewNameIndex() *NameIndex {
	return &NameIndex{byName: make(map[string][]Candidate)}
}

func (x *NameIndex) Add(c Candidate) {
	x.byName[c.Name] = append(x.byName[c.Name], c)
}

func (x *NameIndex) Lookup(name string) []Candidate {
	return x.byName[name]
}

// CallResolver binds a textual call name to zero or more node ids. An empty
// result is an unresolved call, which is not an error.
type CallResolver interface {
	Name() string
	Resolve(caller Caller, callName string) []string
}

// NewCallResolver builds the named strategy. imports maps a file to the
// files it imports and is only consulted by the import-scoped strategy.
func NewCallResolver(kind string, index *NameIndex, imports map[string][]string) (CallResolver, error) {
	switch kind {
	case "", CallsHeuristic:
		return &HeuristicResolver{index: index}, nil
	case CallsImportScoped:
		scope := make(map[string]map[string]bool, len(imports))
		for file, targets := range imports {
			set := make(map[string]bool, len(targets))
			for _, t := range targets {
				set[t] = true
			}
			scope[file] = set
		}
		return &ImportScopedResolver{index: index, imports: scope}, nil
	}
	return nil, errors.Newf(errors.CodeNotSupported, "unknown call resolver %q", kind)
}

// HeuristicResolver strips any qualifier and matches every function declared
// under the trailing name, wherever it lives.
type HeuristicResolver struct {
	index *NameIndex
}

func (r *HeuristicResolver) Name() string { return CallsHeuristic }

func (r *HeuristicResolver) Resolve(_ Caller, callName string) []string {
	return ids(r.index.Lookup(parser.TrailingName(callName)))
}

// ImportScopedResolver keeps only candidates declared in the caller's file or
// in a file the caller's file imports. Receiver calls prefer the caller's
// own class.
type ImportScopedResolver struct {
	index   *NameIndex
	imports map[string]map[string]bool
}

func (r *ImportScopedResolver) Name() string { return CallsImportScoped }

func (r *ImportScopedResolver) Resolve(caller Caller, callName string) []string {
	candidates := r.index.Lookup(parser.TrailingName(callName))
	if len(candidates) == 0 {
		return nil
	}

	if method, ok := isSelfReference(callName); ok && caller.Class != "" {
		var own []Candidate
		for _, c := range candidates {
			if c.Name == method && c.File == caller.File && c.Class == caller.Class {
				own = append(own, c)
			}
		}
		if len(own) > 0 {
			return ids(own)
		}
	}

	visible := r.imports[caller.File]
	var scoped []Candidate
	for _, c := range candidates {
		if c.File == caller.File || visible[c.File] {
			scoped = append(scoped, c)
		}
	}
	return ids(scoped)
}

func ids(candidates []Candidate) []string {
	if len(candidates) == 0 {
		return nil
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.ID)
	}
	return out
}
