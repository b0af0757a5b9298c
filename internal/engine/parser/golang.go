// # internal/engine/parser/golang.go
package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// GoExtractor extracts functions, methods, structs, imports and call sites
// from a tree-sitter-go syntax tree. Structs are reported as classes and
// methods are attached to them by receiver type.
type GoExtractor struct{}

func (e *GoExtractor) ExtractTree(ctx *ExtractionContext, root *sitter.Node) {
	var engine *ExtractorEngine
	engine = NewExtractorEngine(map[string]NodeHandler{
		"import_declaration": e.extractImports,
		"type_declaration":   e.extractType,
		"call_expression":    e.extractCall,
		"function_declaration": func(ctx *ExtractionContext, node *sitter.Node) bool {
			e.extractCallable(engine, ctx, node, "")
			return true
		},
		"method_declaration": func(ctx *ExtractionContext, node *sitter.Node) bool {
			e.extractCallable(engine, ctx, node, e.receiverType(ctx, node.ChildByFieldName("receiver")))
			return true
		},
	})
	engine.Walk(ctx, root)
	e.attachMethods(ctx.Result)
}

func (e *GoExtractor) extractImports(ctx *ExtractionContext, node *sitter.Node) bool {
	e.walkImports(ctx, node)
	return true
}

func (e *GoExtractor) walkImports(ctx *ExtractionContext, node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "import_spec" {
			e.walkImports(ctx, child)
			continue
		}

		var alias, path string
		for j := uint(0); j < child.ChildCount(); j++ {
			spec := child.Child(j)
			switch spec.Kind() {
			case "package_identifier", "blank_identifier", "dot":
				alias = ctx.Text(spec)
			case "interpreted_string_literal", "raw_string_literal":
				path = trimQuoted(ctx.Text(spec))
			}
		}
		if path == "" {
			continue
		}
		ctx.Result.Imports = append(ctx.Result.Imports, ImportEntity{
			Module:   path,
			Names:    []string{path},
			Alias:    alias,
			FilePath: ctx.Result.Path,
			Line:     lineStart(child),
		})
	}
}

func (e *GoExtractor) extractCallable(engine *ExtractorEngine, ctx *ExtractionContext, node *sitter.Node, receiver string) {
	name := ctx.Text(node.ChildByFieldName("name"))
	params := node.ChildByFieldName("parameters")
	body := node.ChildByFieldName("body")

	fn := FunctionEntity{
		Name:        name,
		FilePath:    ctx.Result.Path,
		LineStart:   lineStart(node),
		LineEnd:     lineEnd(node),
		Parameters:  e.parameterNames(ctx, params),
		ReturnType:  ctx.Text(node.ChildByFieldName("result")),
		Decorators:  []string{},
		Docstring:   e.docComment(ctx, node),
		IsMethod:    receiver != "",
		ParentClass: receiver,
		Complexity:  1 + countKinds(body, goDecisionWeight),
		IsExported:  isExportedName(name),
	}
	idx := len(ctx.Result.Functions)
	ctx.Result.Functions = append(ctx.Result.Functions, fn)

	if receiver != "" {
		ctx.EnterClass(receiver)
		defer ctx.LeaveClass()
	}
	ctx.EnterFunction(name)
	engine.Walk(ctx, params)
	engine.Walk(ctx, body)
	ctx.Result.Functions[idx].Calls = ctx.LeaveFunction()
}

func (e *GoExtractor) parameterNames(ctx *ExtractionContext, params *sitter.Node) []string {
	names := []string{}
	if params == nil {
		return names
	}
	for i := uint(0); i < params.ChildCount(); i++ {
		decl := params.Child(i)
		if decl.Kind() != "parameter_declaration" && decl.Kind() != "variadic_parameter_declaration" {
			continue
		}
		for j := uint(0); j < decl.ChildCount(); j++ {
			if child := decl.Child(j); child.Kind() == "identifier" {
				names = append(names, ctx.Text(child))
			}
		}
	}
	return names
}

// receiverType returns the bare type name of a method receiver: `(s *Store[T])` -> `Store`.
func (e *GoExtractor) receiverType(ctx *ExtractionContext, receiver *sitter.Node) string {
	if receiver == nil {
		return ""
	}
	var found string
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil || found != "" {
			return
		}
		if n.Kind() == "type_identifier" {
			found = ctx.Text(n)
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(receiver)
	return found
}

func goDecisionWeight(n *sitter.Node) int {
	switch n.Kind() {
	case "if_statement", "for_statement",
		"expression_case", "type_case", "default_case", "communication_case":
		return 1
	case "binary_expression":
		if op := n.ChildByFieldName("operator"); op != nil && (op.Kind() == "&&" || op.Kind() == "||") {
			return 1
		}
	}
	return 0
}

// docComment joins the contiguous comment lines directly above node.
func (e *GoExtractor) docComment(ctx *ExtractionContext, node *sitter.Node) string {
	var lines []string
	expectRow := node.StartPosition().Row
	for prev := node.PrevSibling(); prev != nil && prev.Kind() == "comment"; prev = prev.PrevSibling() {
		if prev.EndPosition().Row+1 != expectRow {
			break
		}
		text := ctx.Text(prev)
		text = strings.TrimPrefix(text, "//")
		text = strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
		lines = append([]string{strings.TrimPrefix(text, " ")}, lines...)
		expectRow = prev.StartPosition().Row
	}
	return strings.Join(lines, "\n")
}

func (e *GoExtractor) extractType(ctx *ExtractionContext, node *sitter.Node) bool {
	for i := uint(0); i < node.ChildCount(); i++ {
		spec := node.Child(i)
		if spec.Kind() != "type_spec" {
			continue
		}
		typeNode := spec.ChildByFieldName("type")
		if typeNode == nil || typeNode.Kind() != "struct_type" {
			continue
		}
		name := ctx.Text(spec.ChildByFieldName("name"))
		bases, attrs := e.structFields(ctx, typeNode)
		ctx.Result.Classes = append(ctx.Result.Classes, ClassEntity{
			Name:       name,
			FilePath:   ctx.Result.Path,
			LineStart:  lineStart(node),
			LineEnd:    lineEnd(node),
			Bases:      bases,
			Decorators: []string{},
			Docstring:  e.docComment(ctx, node),
			Methods:    []string{},
			Attributes: attrs,
			IsExported: isExportedName(name),
		})
	}
	return true
}

// structFields splits a struct's fields into embedded types and named fields.
func (e *GoExtractor) structFields(ctx *ExtractionContext, structType *sitter.Node) ([]string, []string) {
	bases, attrs := []string{}, []string{}
	list := childOfKind(structType, "field_declaration_list")
	if list == nil {
		return bases, attrs
	}
	for i := uint(0); i < list.ChildCount(); i++ {
		field := list.Child(i)
		if field.Kind() != "field_declaration" {
			continue
		}
		named := false
		for j := uint(0); j < field.ChildCount(); j++ {
			if child := field.Child(j); child.Kind() == "field_identifier" {
				attrs = append(attrs, ctx.Text(child))
				named = true
			}
		}
		if !named {
			bases = append(bases, strings.TrimPrefix(ctx.CompactText(field.ChildByFieldName("type")), "*"))
		}
	}
	return bases, attrs
}

func (e *GoExtractor) extractCall(ctx *ExtractionContext, node *sitter.Node) bool {
	fn := node.ChildByFieldName("function")
	if fn != nil && (fn.Kind() == "identifier" || fn.Kind() == "selector_expression") {
		ctx.RecordCall(ctx.CompactText(fn), lineStart(node))
	}
	return false
}

func (e *GoExtractor) attachMethods(res *FileExtractionResult) {
	byName := make(map[string]int, len(res.Classes))
	for i, class := range res.Classes {
		byName[class.Name] = i
	}
	for _, fn := range res.Functions {
		if !fn.IsMethod {
			continue
		}
		if i, ok := byName[fn.ParentClass]; ok {
			res.Classes[i].Methods = append(res.Classes[i].Methods, fn.Name)
		}
	}
}
