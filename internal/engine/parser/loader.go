// # internal/engine/parser/loader.go
package parser

import (
	"depscope/internal/core/errors"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

const (
	GrammarPython     = "python"
	GrammarGo         = "go"
	GrammarJavaScript = "javascript"
	GrammarTypeScript = "typescript"
	GrammarTSX        = "tsx"
)

// GrammarLoader owns the compiled grammars and one parser pool per grammar.
type GrammarLoader struct {
	languages map[string]*sitter.Language
	pools     map[string]*ParserPool
}

func NewGrammarLoader() *GrammarLoader {
	gl := &GrammarLoader{
		languages: map[string]*sitter.Language{
			GrammarPython:     sitter.NewLanguage(tree_sitter_python.Language()),
			GrammarGo:         sitter.NewLanguage(tree_sitter_go.Language()),
			GrammarJavaScript: sitter.NewLanguage(tree_sitter_javascript.Language()),
			GrammarTypeScript: sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			GrammarTSX:        sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		},
		pools: make(map[string]*ParserPool),
	}
	for id, lang := range gl.languages {
		gl.pools[id] = NewParserPool(lang)
	}
	return gl
}

func (gl *GrammarLoader) Language(id string) *sitter.Language {
	return gl.languages[id]
}

func (gl *GrammarLoader) Pool(id string) (*ParserPool, error) {
	pool, ok := gl.pools[id]
	if !ok {
		return nil, errors.Newf(errors.CodeNotSupported, "grammar not loaded: %s", id)
	}
	return pool, nil
}
