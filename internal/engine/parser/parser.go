// # internal/engine/parser/parser.go
package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"depscope/internal/core/errors"
	"depscope/internal/shared/util"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

const (
	FrontendPython        = "python"
	FrontendGo            = "go"
	FrontendScriptLexical = "script-lexical"
	FrontendScriptTree    = "script-tree"
)

// Extractor turns one file's source into a FileExtractionResult. It never
// returns a Go error: failures are recorded in ParseErrors.
type Extractor interface {
	Extract(ctx context.Context, path string, source []byte) *FileExtractionResult
}

// TreeExtractor fills a result from an already parsed syntax tree.
type TreeExtractor interface {
	ExtractTree(ctx *ExtractionContext, root *sitter.Node)
}

// DefaultFrontendMapping returns the extension to front-end table used when
// the configuration does not override it.
func DefaultFrontendMapping() map[string]string {
	return map[string]string{
		".py":  FrontendPython,
		".pyi": FrontendPython,
		".go":  FrontendGo,
		".ts":  FrontendScriptLexical,
		".tsx": FrontendScriptLexical,
		".js":  FrontendScriptLexical,
		".jsx": FrontendScriptLexical,
		".mjs": FrontendScriptLexical,
		".cjs": FrontendScriptLexical,
	}
}

// KnownFrontends lists the front-end ids accepted in configuration.
func KnownFrontends() []string {
	return []string{FrontendGo, FrontendPython, FrontendScriptLexical, FrontendScriptTree}
}

// treeFrontend adapts a TreeExtractor to Extractor: it leases a parser,
// checks the tree for syntax errors and runs the extractor.
type treeFrontend struct {
	id      string
	loader  *GrammarLoader
	grammar func(path string) string
	inner   TreeExtractor
}

func (f *treeFrontend) Extract(_ context.Context, path string, source []byte) *FileExtractionResult {
	pool, err := f.loader.Pool(f.grammar(path))
	if err != nil {
		return FailedResult(path, f.id, "Extraction error: "+errors.Message(err))
	}
	tree := pool.Parse(source)
	if tree == nil {
		return FailedResult(path, f.id, "Extraction error: parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, msg := firstErrorLine(root)
		return FailedResult(path, f.id, fmt.Sprintf("SyntaxError at line %d: %s", line, msg))
	}

	res := NewFileResult(path, f.id)
	f.inner.ExtractTree(NewExtractionContext(source, res), root)
	return res
}

// Parser dispatches files to front-ends by extension.
type Parser struct {
	loader     *GrammarLoader
	frontends  map[string]Extractor
	extensions map[string]string
}

// NewParser builds a parser for the given extension mapping; a nil mapping
// means DefaultFrontendMapping.
func NewParser(loader *GrammarLoader, mapping map[string]string) (*Parser, error) {
	if mapping == nil {
		mapping = DefaultFrontendMapping()
	}
	p := &Parser{
		loader:     loader,
		frontends:  make(map[string]Extractor),
		extensions: make(map[string]string),
	}
	p.RegisterFrontend(FrontendPython, &treeFrontend{
		id: FrontendPython, loader: loader, inner: &PythonExtractor{},
		grammar: func(string) string { return GrammarPython },
	})
	p.RegisterFrontend(FrontendGo, &treeFrontend{
		id: FrontendGo, loader: loader, inner: &GoExtractor{},
		grammar: func(string) string { return GrammarGo },
	})
	p.RegisterFrontend(FrontendScriptTree, &treeFrontend{
		id: FrontendScriptTree, loader: loader, inner: &ScriptTreeExtractor{},
		grammar: scriptGrammar,
	})
	p.RegisterFrontend(FrontendScriptLexical, NewScriptLexicalExtractor())

	for ext, id := range mapping {
		if _, ok := p.frontends[id]; !ok {
			return nil, errors.Newf(errors.CodeNotSupported, "unknown front-end %q for extension %s", id, ext)
		}
		p.extensions[strings.ToLower(ext)] = id
	}
	return p, nil
}

func (p *Parser) RegisterFrontend(id string, e Extractor) {
	p.frontends[id] = e
}

// Frontend returns the front-end id for the path, or "" if unsupported.
func (p *Parser) Frontend(path string) string {
	return p.extensions[strings.ToLower(filepath.Ext(path))]
}

func (p *Parser) IsSupportedPath(path string) bool {
	return p.Frontend(path) != ""
}

func (p *Parser) SupportedExtensions() []string {
	return util.SortedStringKeys(p.extensions)
}

// ParseFile extracts one file. One bad file never aborts a run: syntax
// errors and extractor panics both come back as parse errors.
func (p *Parser) ParseFile(ctx context.Context, path string, content []byte) (res *FileExtractionResult) {
	id := p.Frontend(path)
	extractor := p.frontends[id]
	if extractor == nil {
		return FailedResult(path, id, "Extraction error: unsupported file type "+filepath.Ext(path))
	}

	defer func() {
		if r := recover(); r != nil {
			res = FailedResult(path, id, fmt.Sprintf("Extraction error: %v", r))
		}
	}()

	res = extractor.Extract(ctx, path, content)
	if res.Failed() {
		res.clearEntities()
	}
	return res
}

func scriptGrammar(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return GrammarTypeScript
	case ".tsx":
		return GrammarTSX
	default:
		return GrammarJavaScript
	}
}
