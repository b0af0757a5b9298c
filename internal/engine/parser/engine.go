// # internal/engine/parser/engine.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// NodeHandler processes a node for a language-specific extractor.
// Returns true if the handler has processed children and the walker should stop.
type NodeHandler func(ctx *ExtractionContext, node *sitter.Node) bool

// scopeFrame is one entry of the traversal stack: the enclosing function (if
// any), the enclosing class (if any) and the call buffer that collects call
// names for the innermost function.
type scopeFrame struct {
	function string
	class    string
	calls    *[]string
}

// ExtractionContext carries per-file traversal state. Each file gets its own
// context, so extractors are safe to run concurrently on different files.
type ExtractionContext struct {
	Source []byte
	Result *FileExtractionResult

	stack []scopeFrame
}

func NewExtractionContext(source []byte, result *FileExtractionResult) *ExtractionContext {
	return &ExtractionContext{
		Source: source,
		Result: result,
		stack:  []scopeFrame{{}},
	}
}

func (c *ExtractionContext) top() *scopeFrame {
	return &c.stack[len(c.stack)-1]
}

// CurrentFunction returns the innermost enclosing function name, or "".
func (c *ExtractionContext) CurrentFunction() string { return c.top().function }

// CurrentClass returns the innermost enclosing class name, or "".
func (c *ExtractionContext) CurrentClass() string { return c.top().class }

// EnterFunction pushes a frame with a fresh call buffer. The class context is
// inherited so nested functions of a method keep their parent class.
func (c *ExtractionContext) EnterFunction(name string) {
	buf := make([]string, 0)
	c.stack = append(c.stack, scopeFrame{function: name, class: c.top().class, calls: &buf})
}

// LeaveFunction pops the frame pushed by EnterFunction and returns the calls
// accumulated while it was active.
func (c *ExtractionContext) LeaveFunction() []string {
	frame := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	if frame.calls == nil {
		return []string{}
	}
	return *frame.calls
}

// EnterClass pushes a class frame. The enclosing function and its call buffer
// stay active, matching how class bodies execute in the enclosing scope.
func (c *ExtractionContext) EnterClass(name string) {
	top := c.top()
	c.stack = append(c.stack, scopeFrame{function: top.function, class: name, calls: top.calls})
}

func (c *ExtractionContext) LeaveClass() {
	c.stack = c.stack[:len(c.stack)-1]
}

// RecordCall appends the call to the active buffer (if inside a function) and
// to the file-wide call-site inventory.
func (c *ExtractionContext) RecordCall(name string, line int) {
	name = normalizeRefName(name)
	if name == "" {
		return
	}
	top := c.top()
	if top.calls != nil {
		*top.calls = append(*top.calls, name)
	}
	c.Result.Calls = append(c.Result.Calls, CallSiteEntity{
		Name:           name,
		FilePath:       c.Result.Path,
		Line:           line,
		CallerFunction: top.function,
		CallerClass:    top.class,
	})
}

// ExtractorEngine walks the syntax tree and dispatches node handlers by kind.
type ExtractorEngine struct {
	handlers map[string]NodeHandler
}

func NewExtractorEngine(handlers map[string]NodeHandler) *ExtractorEngine {
	return &ExtractorEngine{handlers: handlers}
}

func (e *ExtractorEngine) Walk(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}

	if handler, ok := e.handlers[node.Kind()]; ok {
		if handler(ctx, node) {
			return
		}
	}

	e.WalkChildren(ctx, node)
}

func (e *ExtractorEngine) WalkChildren(ctx *ExtractionContext, node *sitter.Node) {
	if node == nil {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.Walk(ctx, node.Child(i))
	}
}

func (c *ExtractionContext) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.Source[node.StartByte():node.EndByte()])
}

// CompactText returns node text with all whitespace removed (`a . b` -> `a.b`).
func (c *ExtractionContext) CompactText(node *sitter.Node) string {
	return normalizeRefName(c.Text(node))
}

func (c *ExtractionContext) ChildText(node *sitter.Node, kind string) string {
	if child := childOfKind(node, kind); child != nil {
		return c.Text(child)
	}
	return ""
}

func lineStart(node *sitter.Node) int {
	return int(node.StartPosition().Row) + 1
}

func lineEnd(node *sitter.Node) int {
	return int(node.EndPosition().Row) + 1
}

func childOfKind(node *sitter.Node, kinds ...string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		for _, kind := range kinds {
			if child.Kind() == kind {
				return child
			}
		}
	}
	return nil
}

func hasChildKind(node *sitter.Node, kind string) bool {
	return childOfKind(node, kind) != nil
}

// countKinds counts nodes in the subtree rooted at node (inclusive) whose kind
// has a weight in weights.
func countKinds(node *sitter.Node, weights func(n *sitter.Node) int) int {
	if node == nil {
		return 0
	}
	total := weights(node)
	for i := uint(0); i < node.ChildCount(); i++ {
		total += countKinds(node.Child(i), weights)
	}
	return total
}

// firstErrorLine returns the 1-based line of the first ERROR or MISSING node.
func firstErrorLine(node *sitter.Node) (int, string) {
	if node == nil {
		return 0, ""
	}
	if node.IsError() {
		return lineStart(node), "invalid syntax"
	}
	if node.IsMissing() {
		return lineStart(node), "missing " + strings.TrimSpace(node.Kind())
	}
	if !node.HasError() {
		return 0, ""
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if line, msg := firstErrorLine(node.Child(i)); line > 0 {
			return line, msg
		}
	}
	return lineStart(node), "invalid syntax"
}
