// # internal/engine/parser/python.go
package parser

import (
	"sort"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// PythonExtractor extracts entities from a tree-sitter-python syntax tree.
type PythonExtractor struct{}

func (e *PythonExtractor) ExtractTree(ctx *ExtractionContext, root *sitter.Node) {
	var engine *ExtractorEngine
	engine = NewExtractorEngine(map[string]NodeHandler{
		"import_statement":        e.extractImport,
		"import_from_statement":   e.extractFromImport,
		"future_import_statement": e.extractFromImport,
		"call":                    e.extractCall,
		"decorated_definition": func(ctx *ExtractionContext, node *sitter.Node) bool {
			e.extractDecorated(engine, ctx, node)
			return true
		},
		"function_definition": func(ctx *ExtractionContext, node *sitter.Node) bool {
			e.extractFunction(engine, ctx, node, nil)
			return true
		},
		"class_definition": func(ctx *ExtractionContext, node *sitter.Node) bool {
			e.extractClass(engine, ctx, node, nil)
			return true
		},
	})
	engine.Walk(ctx, root)
}

func (e *PythonExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		var module, alias string
		switch child.Kind() {
		case "dotted_name":
			module = ctx.CompactText(child)
		case "aliased_import":
			module = ctx.CompactText(child.ChildByFieldName("name"))
			alias = ctx.Text(child.ChildByFieldName("alias"))
		default:
			continue
		}
		ctx.Result.Imports = append(ctx.Result.Imports, ImportEntity{
			Module:   module,
			Names:    []string{module},
			Alias:    alias,
			FilePath: ctx.Result.Path,
			Line:     lineStart(node),
		})
	}
	return true
}

// extractFromImport handles `from X import a, b` including relative forms,
// whose leading dots are kept in the module text.
func (e *PythonExtractor) extractFromImport(ctx *ExtractionContext, node *sitter.Node) bool {
	module := ""
	if node.Kind() == "future_import_statement" {
		module = "__future__"
	} else {
		module = ctx.CompactText(node.ChildByFieldName("module_name"))
	}

	names := []string{}
	seenImport := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "import":
			seenImport = true
		case "dotted_name":
			if seenImport {
				names = append(names, ctx.CompactText(child))
			}
		case "aliased_import":
			names = append(names, ctx.CompactText(child.ChildByFieldName("name")))
		case "wildcard_import":
			names = append(names, "*")
		}
	}

	ctx.Result.Imports = append(ctx.Result.Imports, ImportEntity{
		Module:       module,
		Names:        names,
		FilePath:     ctx.Result.Path,
		Line:         lineStart(node),
		IsFromImport: true,
	})
	return true
}

// extractCall records identifier and attribute callees. Children are still
// walked so nested calls in arguments are seen.
func (e *PythonExtractor) extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn != nil && (fn.Kind() == "identifier" || fn.Kind() == "attribute") {
		ctx.RecordCall(ctx.CompactText(fn), lineStart(node))
	}
	return false
}

// extractDecorated evaluates decorator expressions in the enclosing scope and
// then extracts the decorated definition.
func (e *PythonExtractor) extractDecorated(engine *ExtractorEngine, ctx *ExtractionContext, node *sitter.Node) {
	var decorators []string
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "decorator" {
			continue
		}
		if name := e.decoratorName(ctx, child); name != "" {
			decorators = append(decorators, name)
		}
		engine.WalkChildren(ctx, child)
	}

	def := node.ChildByFieldName("definition")
	if def == nil {
		return
	}
	switch def.Kind() {
	case "function_definition":
		e.extractFunction(engine, ctx, def, decorators)
	case "class_definition":
		e.extractClass(engine, ctx, def, decorators)
	}
}

func (e *PythonExtractor) decoratorName(ctx *ExtractionContext, node *sitter.Node) string {
	var expr *sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child.IsNamed() && child.Kind() != "comment" {
			expr = child
			break
		}
	}
	if expr == nil {
		return ""
	}
	if expr.Kind() == "call" {
		expr = expr.ChildByFieldName("function")
	}
	if expr == nil {
		return ""
	}
	switch expr.Kind() {
	case "identifier", "attribute":
		return ctx.CompactText(expr)
	}
	return ""
}

func (e *PythonExtractor) extractFunction(engine *ExtractorEngine, ctx *ExtractionContext, node *sitter.Node, decorators []string) {
	name := ctx.Text(node.ChildByFieldName("name"))
	params := node.ChildByFieldName("parameters")
	returns := node.ChildByFieldName("return_type")
	body := node.ChildByFieldName("body")

	class := ctx.CurrentClass()
	fn := FunctionEntity{
		Name:        name,
		FilePath:    ctx.Result.Path,
		LineStart:   lineStart(node),
		LineEnd:     lineEnd(node),
		Parameters:  e.parameterNames(ctx, params),
		ReturnType:  ctx.Text(returns),
		Decorators:  nonNil(decorators),
		Docstring:   e.docstring(ctx, body),
		IsAsync:     hasChildKind(node, "async"),
		IsMethod:    class != "",
		ParentClass: class,
		Complexity:  1 + countKinds(node, pythonDecisionWeight),
	}

	// Reserve the slot first so functions stay in declaration order even
	// though nested definitions are appended while the body is walked.
	idx := len(ctx.Result.Functions)
	ctx.Result.Functions = append(ctx.Result.Functions, fn)

	ctx.EnterFunction(name)
	engine.Walk(ctx, params)
	engine.Walk(ctx, returns)
	engine.Walk(ctx, body)
	ctx.Result.Functions[idx].Calls = ctx.LeaveFunction()
}

func (e *PythonExtractor) parameterNames(ctx *ExtractionContext, params *sitter.Node) []string {
	names := []string{}
	if params == nil {
		return names
	}
	for i := uint(0); i < params.ChildCount(); i++ {
		child := params.Child(i)
		var nameNode *sitter.Node
		switch child.Kind() {
		case "identifier":
			nameNode = child
		case "typed_parameter":
			if first := child.NamedChild(0); first != nil && first.Kind() == "identifier" {
				nameNode = first
			}
		case "default_parameter", "typed_default_parameter":
			nameNode = child.ChildByFieldName("name")
		}
		if nameNode != nil && nameNode.Kind() == "identifier" {
			names = append(names, ctx.Text(nameNode))
		}
	}
	return names
}

// pythonDecisionWeight scores decision points. A chain `a and b and c` parses
// as two binary boolean_operator nodes, which equals values-1 of the chain.
func pythonDecisionWeight(n *sitter.Node) int {
	switch n.Kind() {
	case "if_statement", "elif_clause",
		"for_statement", "while_statement",
		"except_clause", "except_group_clause",
		"boolean_operator", "if_clause":
		return 1
	}
	return 0
}

func (e *PythonExtractor) extractClass(engine *ExtractorEngine, ctx *ExtractionContext, node *sitter.Node, decorators []string) {
	name := ctx.Text(node.ChildByFieldName("name"))
	body := node.ChildByFieldName("body")
	supers := node.ChildByFieldName("superclasses")

	bases := []string{}
	if supers != nil {
		for i := uint(0); i < supers.ChildCount(); i++ {
			child := supers.Child(i)
			if child.Kind() == "identifier" || child.Kind() == "attribute" {
				bases = append(bases, ctx.CompactText(child))
			}
		}
	}

	ctx.Result.Classes = append(ctx.Result.Classes, ClassEntity{
		Name:       name,
		FilePath:   ctx.Result.Path,
		LineStart:  lineStart(node),
		LineEnd:    lineEnd(node),
		Bases:      bases,
		Decorators: nonNil(decorators),
		Docstring:  e.docstring(ctx, body),
		Methods:    e.methodNames(ctx, body),
		Attributes: e.classAttributes(ctx, body),
	})

	engine.Walk(ctx, supers)
	ctx.EnterClass(name)
	engine.Walk(ctx, body)
	ctx.LeaveClass()
}

func (e *PythonExtractor) methodNames(ctx *ExtractionContext, body *sitter.Node) []string {
	methods := []string{}
	for _, def := range bodyDefinitions(body) {
		if def.Kind() == "function_definition" {
			methods = append(methods, ctx.Text(def.ChildByFieldName("name")))
		}
	}
	return methods
}

// classAttributes collects class-level assignment targets and `self.x`
// targets of plain assignments anywhere inside __init__. Sorted and unique.
func (e *PythonExtractor) classAttributes(ctx *ExtractionContext, body *sitter.Node) []string {
	set := make(map[string]bool)
	if body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			stmt := body.Child(i)
			if stmt.Kind() != "expression_statement" {
				continue
			}
			assign := stmt.NamedChild(0)
			if assign == nil || assign.Kind() != "assignment" {
				continue
			}
			if assign.ChildByFieldName("type") != nil {
				if left := assign.ChildByFieldName("left"); left != nil && left.Kind() == "identifier" {
					set[ctx.Text(left)] = true
				}
				continue
			}
			for _, target := range assignmentTargets(assign) {
				if target.Kind() == "identifier" {
					set[ctx.Text(target)] = true
				}
			}
		}
	}

	for _, def := range bodyDefinitions(body) {
		if def.Kind() != "function_definition" || ctx.Text(def.ChildByFieldName("name")) != "__init__" {
			continue
		}
		e.collectSelfAttributes(ctx, def, set)
	}

	attrs := make([]string, 0, len(set))
	for name := range set {
		attrs = append(attrs, name)
	}
	sort.Strings(attrs)
	return attrs
}

func (e *PythonExtractor) collectSelfAttributes(ctx *ExtractionContext, node *sitter.Node, set map[string]bool) {
	if node.Kind() == "assignment" && node.ChildByFieldName("type") == nil &&
		(node.Parent() == nil || node.Parent().Kind() != "assignment") {
		for _, target := range assignmentTargets(node) {
			if target.Kind() != "attribute" {
				continue
			}
			obj := target.ChildByFieldName("object")
			if obj != nil && obj.Kind() == "identifier" && ctx.Text(obj) == "self" {
				set[ctx.Text(target.ChildByFieldName("attribute"))] = true
			}
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		e.collectSelfAttributes(ctx, node.Child(i), set)
	}
}

// assignmentTargets flattens chained assignments: `a = b = 1` yields a and b.
func assignmentTargets(assign *sitter.Node) []*sitter.Node {
	var targets []*sitter.Node
	for assign != nil && assign.Kind() == "assignment" && assign.ChildByFieldName("type") == nil {
		if left := assign.ChildByFieldName("left"); left != nil {
			targets = append(targets, left)
		}
		assign = assign.ChildByFieldName("right")
	}
	return targets
}

// bodyDefinitions returns the function and class definitions directly inside
// a block, unwrapping decorators.
func bodyDefinitions(body *sitter.Node) []*sitter.Node {
	var defs []*sitter.Node
	if body == nil {
		return defs
	}
	for i := uint(0); i < body.ChildCount(); i++ {
		child := body.Child(i)
		if child.Kind() == "decorated_definition" {
			child = child.ChildByFieldName("definition")
		}
		if child != nil && (child.Kind() == "function_definition" || child.Kind() == "class_definition") {
			defs = append(defs, child)
		}
	}
	return defs
}

var pythonEscapes = strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\'`, `'`, `\\`, `\`)

// docstring returns the literal value of a leading string statement. Byte
// strings and f-strings are not docstrings.
func (e *PythonExtractor) docstring(ctx *ExtractionContext, body *sitter.Node) string {
	if body == nil {
		return ""
	}
	var first *sitter.Node
	for i := uint(0); i < body.NamedChildCount(); i++ {
		if child := body.NamedChild(i); child.Kind() != "comment" {
			first = child
			break
		}
	}
	if first == nil || first.Kind() != "expression_statement" || first.NamedChildCount() != 1 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Kind() != "string" {
		return ""
	}
	start := childOfKind(str, "string_start")
	end := childOfKind(str, "string_end")
	if start == nil || end == nil {
		return ""
	}
	prefix := strings.ToLower(strings.TrimRight(ctx.Text(start), `"'`))
	if strings.ContainsAny(prefix, "bf") {
		return ""
	}
	value := string(ctx.Source[start.EndByte():end.StartByte()])
	if !strings.Contains(prefix, "r") {
		value = pythonEscapes.Replace(value)
	}
	return value
}
