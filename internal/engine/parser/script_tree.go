// # internal/engine/parser/script_tree.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ScriptTreeExtractor is the syntax-tree TS/JS front-end. It produces the same
// entity shapes as ScriptLexicalExtractor from a tree-sitter-javascript or
// tree-sitter-typescript tree, so either can serve the script extensions.
type ScriptTreeExtractor struct{}

func (e *ScriptTreeExtractor) ExtractTree(ctx *ExtractionContext, root *sitter.Node) {
	var engine *ExtractorEngine
	fn := func(kind string) NodeHandler {
		return func(ctx *ExtractionContext, node *sitter.Node) bool {
			e.extractFunction(engine, ctx, node, ctx.Text(node.ChildByFieldName("name")), kind)
			return true
		}
	}
	engine = NewExtractorEngine(map[string]NodeHandler{
		"import_statement":               e.extractImport,
		"function_declaration":           fn("function"),
		"generator_function_declaration": fn("function"),
		"method_definition":              fn("method"),
		"variable_declarator": func(ctx *ExtractionContext, node *sitter.Node) bool {
			return e.extractDeclarator(engine, ctx, node)
		},
		"class_declaration": func(ctx *ExtractionContext, node *sitter.Node) bool {
			e.extractClass(engine, ctx, node)
			return true
		},
		"abstract_class_declaration": func(ctx *ExtractionContext, node *sitter.Node) bool {
			e.extractClass(engine, ctx, node)
			return true
		},
		"call_expression": e.extractCall,
		"new_expression":  e.extractNew,
	})
	engine.Walk(ctx, root)
}

func (e *ScriptTreeExtractor) extractImport(ctx *ExtractionContext, node *sitter.Node) bool {
	source := node.ChildByFieldName("source")
	if source == nil {
		return true
	}
	imp := ImportEntity{
		Module:       trimQuoted(ctx.Text(source)),
		Names:        []string{},
		FilePath:     ctx.Result.Path,
		Line:         lineStart(node),
		IsTypeImport: hasChildKind(node, "type"),
	}
	if clause := childOfKind(node, "import_clause"); clause != nil {
		for i := uint(0); i < clause.ChildCount(); i++ {
			child := clause.Child(i)
			switch child.Kind() {
			case "identifier":
				imp.Alias = ctx.Text(child)
			case "namespace_import":
				imp.Alias = ctx.ChildText(child, "identifier")
				imp.Names = append(imp.Names, "*")
				imp.IsFromImport = true
			case "named_imports":
				for j := uint(0); j < child.ChildCount(); j++ {
					if spec := child.Child(j); spec.Kind() == "import_specifier" {
						imp.Names = append(imp.Names, ctx.Text(spec.ChildByFieldName("name")))
					}
				}
				imp.IsFromImport = true
			}
		}
	}
	ctx.Result.Imports = append(ctx.Result.Imports, imp)
	return true
}

// extractDeclarator handles `const f = (...) => {}` and `const f = function() {}`.
func (e *ScriptTreeExtractor) extractDeclarator(engine *ExtractorEngine, ctx *ExtractionContext, node *sitter.Node) bool {
	value := node.ChildByFieldName("value")
	if value == nil {
		return false
	}
	name := ctx.Text(node.ChildByFieldName("name"))
	switch value.Kind() {
	case "arrow_function":
		e.extractFunction(engine, ctx, value, name, "arrow")
	case "function_expression", "function", "generator_function":
		e.extractFunction(engine, ctx, value, name, "function")
	default:
		return false
	}
	return true
}

func (e *ScriptTreeExtractor) extractFunction(engine *ExtractorEngine, ctx *ExtractionContext, node *sitter.Node, name, kind string) {
	if name == "" {
		engine.WalkChildren(ctx, node)
		return
	}
	decl := declarationOf(node)
	exported, isDefault := exportFlags(decl)
	class := ""
	if kind == "method" {
		class = ctx.CurrentClass()
	}
	params := node.ChildByFieldName("parameters")
	if params == nil {
		params = node.ChildByFieldName("parameter")
	}
	body := node.ChildByFieldName("body")

	fn := FunctionEntity{
		Name:            name,
		FilePath:        ctx.Result.Path,
		LineStart:       lineStart(node),
		LineEnd:         lineEnd(node),
		Parameters:      e.parameterNames(ctx, params),
		ReturnType:      strings.TrimSpace(strings.TrimPrefix(ctx.Text(node.ChildByFieldName("return_type")), ":")),
		Decorators:      []string{},
		Docstring:       jsDocComment(ctx, decl),
		IsAsync:         hasChildKind(node, "async"),
		IsMethod:        class != "",
		ParentClass:     class,
		Complexity:      1 + countKinds(body, scriptDecisionWeight),
		FunctionType:    kind,
		IsExported:      exported,
		IsDefaultExport: isDefault,
	}
	idx := len(ctx.Result.Functions)
	ctx.Result.Functions = append(ctx.Result.Functions, fn)

	if kind != "method" && isExportedName(name) && countKinds(body, jsxWeight) > 0 {
		ctx.Result.Components = append(ctx.Result.Components, ComponentEntity{
			Name:            name,
			FilePath:        ctx.Result.Path,
			Line:            lineStart(node),
			ComponentType:   "function_component",
			IsDefaultExport: isDefault,
		})
	}

	ctx.EnterFunction(name)
	engine.Walk(ctx, params)
	engine.Walk(ctx, body)
	ctx.Result.Functions[idx].Calls = ctx.LeaveFunction()
}

func (e *ScriptTreeExtractor) parameterNames(ctx *ExtractionContext, params *sitter.Node) []string {
	names := []string{}
	if params == nil {
		return names
	}
	if params.Kind() == "identifier" {
		return append(names, ctx.Text(params))
	}
	for i := uint(0); i < params.ChildCount(); i++ {
		child := params.Child(i)
		target := child
		switch child.Kind() {
		case "assignment_pattern":
			target = child.ChildByFieldName("left")
		case "required_parameter", "optional_parameter":
			target = child.ChildByFieldName("pattern")
		}
		if target != nil && target.Kind() == "rest_pattern" {
			target = childOfKind(target, "identifier")
		}
		if target != nil && target.Kind() == "identifier" {
			names = append(names, ctx.Text(target))
		}
	}
	return names
}

func (e *ScriptTreeExtractor) extractClass(engine *ExtractorEngine, ctx *ExtractionContext, node *sitter.Node) {
	name := ctx.Text(node.ChildByFieldName("name"))
	exported, _ := exportFlags(node)
	bases, implements := []string{}, []string{}
	if heritage := childOfKind(node, "class_heritage"); heritage != nil {
		e.collectHeritage(ctx, heritage, &bases, &implements)
	}

	body := node.ChildByFieldName("body")
	methods := []string{}
	attrs := []string{}
	if body != nil {
		for i := uint(0); i < body.ChildCount(); i++ {
			member := body.Child(i)
			switch member.Kind() {
			case "method_definition":
				methods = append(methods, ctx.Text(member.ChildByFieldName("name")))
			case "field_definition", "public_field_definition":
				prop := member.ChildByFieldName("property")
				if prop == nil {
					prop = member.ChildByFieldName("name")
				}
				if prop != nil {
					attrs = append(attrs, ctx.Text(prop))
				}
			}
		}
	}

	ctx.Result.Classes = append(ctx.Result.Classes, ClassEntity{
		Name:       name,
		FilePath:   ctx.Result.Path,
		LineStart:  lineStart(node),
		LineEnd:    lineEnd(node),
		Bases:      bases,
		Decorators: []string{},
		Docstring:  jsDocComment(ctx, declarationOf(node)),
		Methods:    methods,
		Attributes: attrs,
		Implements: implements,
		IsExported: exported,
	})

	ctx.EnterClass(name)
	engine.Walk(ctx, body)
	ctx.LeaveClass()
}

// collectHeritage reads both grammar shapes: JS puts the base expression
// directly under class_heritage, TS wraps it in extends_clause.
func (e *ScriptTreeExtractor) collectHeritage(ctx *ExtractionContext, heritage *sitter.Node, bases, implements *[]string) {
	for i := uint(0); i < heritage.ChildCount(); i++ {
		child := heritage.Child(i)
		switch child.Kind() {
		case "extends_clause":
			if value := child.ChildByFieldName("value"); value != nil {
				*bases = append(*bases, ctx.CompactText(value))
			}
		case "implements_clause":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				*implements = append(*implements, ctx.CompactText(child.NamedChild(j)))
			}
		case "identifier", "member_expression":
			*bases = append(*bases, ctx.CompactText(child))
		}
	}
}

func (e *ScriptTreeExtractor) extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn != nil && (fn.Kind() == "identifier" || fn.Kind() == "member_expression") {
		ctx.RecordCall(ctx.CompactText(fn), lineStart(node))
	}
	return false
}

func (e *ScriptTreeExtractor) extractNew(ctx *ExtractionContext, node *sitter.Node) bool {
	if ctor := node.ChildByFieldName("constructor"); ctor != nil && ctor.Kind() == "identifier" {
		ctx.RecordCall(ctx.Text(ctor), lineStart(node))
	}
	return false
}

func scriptDecisionWeight(n *sitter.Node) int {
	switch n.Kind() {
	case "if_statement", "for_statement", "for_in_statement", "while_statement", "do_statement",
		"switch_case", "catch_clause":
		return 1
	case "binary_expression":
		if op := n.ChildByFieldName("operator"); op != nil {
			switch op.Kind() {
			case "&&", "||", "??":
				return 1
			}
		}
	}
	return 0
}

func jsxWeight(n *sitter.Node) int {
	switch n.Kind() {
	case "jsx_element", "jsx_self_closing_element":
		return 1
	}
	return 0
}

// declarationOf climbs from a function value to the statement that declares
// it, so export flags and doc comments are read from the right node.
func declarationOf(node *sitter.Node) *sitter.Node {
	cur := node
	for p := cur.Parent(); p != nil; p = p.Parent() {
		kind := p.Kind()
		if kind != "variable_declarator" && kind != "lexical_declaration" &&
			kind != "variable_declaration" && kind != "export_statement" {
			break
		}
		cur = p
	}
	return cur
}

func exportFlags(node *sitter.Node) (exported, isDefault bool) {
	for p := node; p != nil; p = p.Parent() {
		if p.Kind() == "export_statement" {
			return true, hasChildKind(p, "default")
		}
		if p.Kind() == "program" || p.Kind() == "statement_block" || p.Kind() == "class_body" {
			break
		}
	}
	return false, false
}

// jsDocComment returns the cleaned text of a `/** ... */` block directly above node.
func jsDocComment(ctx *ExtractionContext, node *sitter.Node) string {
	prev := node.PrevSibling()
	if prev == nil || prev.Kind() != "comment" || prev.EndPosition().Row+1 < node.StartPosition().Row {
		return ""
	}
	text := ctx.Text(prev)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	text = strings.TrimSuffix(strings.TrimPrefix(text, "/**"), "*/")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "*"))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
