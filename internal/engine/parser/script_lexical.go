// # internal/engine/parser/script_lexical.go
package parser

import (
	"cmp"
	"context"
	"regexp"
	"slices"
	"strings"
)

// ScriptLexicalExtractor is a line-oriented TS/JS front-end. It needs no
// grammar and never reports syntax errors. Everything it produces is a
// heuristic:
//   - body extents come from brace counting and are confused by braces inside
//     strings, template literals and regular expressions;
//   - calls are `name(` / `a.b(` tokens, so `foo().bar()` records `foo` and `bar`;
//   - components are capitalized `export default X` identifiers whose next 20
//     lines contain `return` followed by `<`. Implicit arrow returns are missed
//     and `return a < b` is a false positive.
type ScriptLexicalExtractor struct {
	namedImport     *regexp.Regexp
	defaultImport   *regexp.Regexp
	namespaceImport *regexp.Regexp
	function        *regexp.Regexp
	arrow           *regexp.Regexp
	class           *regexp.Regexp
	method          *regexp.Regexp
	exportDefault   *regexp.Regexp
	call            *regexp.Regexp
	decision        *regexp.Regexp
	literal         *regexp.Regexp
}

func NewScriptLexicalExtractor() *ScriptLexicalExtractor {
	return &ScriptLexicalExtractor{
		namedImport:     regexp.MustCompile(`import\s+(?:type\s+)?(?:([A-Za-z_$][\w$]*)\s*,\s*)?\{([^}]+)\}\s+from\s+['"]([^'"]+)['"]`),
		defaultImport:   regexp.MustCompile(`import\s+(?:type\s+)?([A-Za-z_$][\w$]*)\s*(?:,\s*\{[^}]*\}\s*)?from\s+['"]([^'"]+)['"]`),
		namespaceImport: regexp.MustCompile(`import\s+\*\s+as\s+([A-Za-z0-9_$]+)\s+from\s+['"]([^'"]+)['"]`),
		function:        regexp.MustCompile(`(export\s+)?(default\s+)?(async\s+)?function\s*\*?\s*([a-zA-Z_$][a-zA-Z0-9_$]*)\s*(?:<[^>(]*>)?\s*\(([^)]*)\)\s*(?::\s*([^{]+))?\s*\{`),
		arrow:           regexp.MustCompile(`(export\s+)?(default\s+)?(?:const|let|var)\s+([a-zA-Z_$][a-zA-Z0-9_$]*)\s*(?::\s*[^=]+)?=\s*(async\s+)?\(([^)]*)\)\s*(?::\s*([^=>{]+))?\s*=>`),
		class:           regexp.MustCompile(`(export\s+)?(default\s+)?(?:abstract\s+)?class\s+([A-Z][a-zA-Z0-9_]*)\s*(?:<[^>{]*>)?\s*(?:extends\s+([A-Za-z_$][\w$.]*)(?:<[^{]*?>)?)?\s*(?:implements\s+([A-Z][a-zA-Z0-9_<>,.\s]*))?\s*\{`),
		method:          regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|readonly|override|abstract)\s+)*(async\s+)?\*?\s*([a-zA-Z_$][\w$]*)\s*\(([^)]*)\)\s*(?::\s*([^{]+))?\s*\{`),
		exportDefault:   regexp.MustCompile(`export\s+default\s+(?:function\s+)?([A-Z][a-zA-Z0-9]*)`),
		call:            regexp.MustCompile(`([A-Za-z_$][\w$]*(?:\s*\.\s*[A-Za-z_$][\w$]*)*)\s*\(`),
		decision:        regexp.MustCompile(`\b(?:if|for|while|case|catch)\b|&&|\|\||\?\?`),
		literal:         regexp.MustCompile("'(?:[^'\\\\]|\\\\.)*'|\"(?:[^\"\\\\]|\\\\.)*\"|`(?:[^`\\\\]|\\\\.)*`"),
	}
}

var scriptKeywords = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "return": true, "typeof": true, "instanceof": true,
	"new": true, "delete": true, "void": true, "await": true, "yield": true,
	"import": true, "export": true, "else": true, "do": true, "try": true,
	"super": true, "in": true, "of": true,
}

// span is the estimated line range of a declaration plus the column where
// its body starts on the first line.
type span struct {
	start, end int
	bodyCol    int
	fnIndex    int
	class      string
}

func (e *ScriptLexicalExtractor) Extract(_ context.Context, path string, source []byte) *FileExtractionResult {
	res := NewFileResult(path, FrontendScriptLexical)
	lines := splitLines(string(source))

	e.extractImports(res, lines)
	classSpans := e.extractClasses(res, lines)
	fnSpans := e.extractFunctions(res, lines)
	fnSpans = append(fnSpans, e.extractMethods(res, lines, classSpans)...)
	e.extractComponents(res, lines)
	e.extractCalls(res, lines, fnSpans, classSpans)

	// Methods are found in a second pass; restore declaration order.
	slices.SortStableFunc(res.Functions, func(a, b FunctionEntity) int {
		return cmp.Compare(a.LineStart, b.LineStart)
	})
	return res
}

func splitLines(src string) []string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (e *ScriptLexicalExtractor) extractImports(res *FileExtractionResult, lines []string) {
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		imp := ImportEntity{
			FilePath:     res.Path,
			Line:         i + 1,
			IsTypeImport: strings.Contains(line, "import type"),
		}
		if m := e.namedImport.FindStringSubmatch(line); m != nil {
			imp.Module = m[3]
			imp.Names = splitAndTrim(m[2], ",")
			imp.Alias = m[1]
			imp.IsFromImport = true
		} else if m := e.namespaceImport.FindStringSubmatch(line); m != nil {
			imp.Module = m[2]
			imp.Names = []string{"*"}
			imp.Alias = m[1]
			imp.IsFromImport = true
		} else if m := e.defaultImport.FindStringSubmatch(line); m != nil {
			imp.Module = m[2]
			imp.Names = []string{}
			imp.Alias = m[1]
		} else {
			continue
		}
		res.Imports = append(res.Imports, imp)
	}
}

func (e *ScriptLexicalExtractor) extractFunctions(res *FileExtractionResult, lines []string) []span {
	var spans []span
	for i, line := range lines {
		if loc := e.function.FindStringSubmatchIndex(line); loc != nil {
			m := submatches(line, loc)
			spans = append(spans, e.addFunction(res, lines, i, loc[1], "function", FunctionEntity{
				Name:            m[4],
				IsExported:      m[1] != "",
				IsDefaultExport: m[2] != "",
				IsAsync:         m[3] != "",
				Parameters:      parseScriptParameters(m[5]),
				ReturnType:      strings.TrimSpace(m[6]),
			}))
		}
		if loc := e.arrow.FindStringSubmatchIndex(line); loc != nil {
			m := submatches(line, loc)
			spans = append(spans, e.addFunction(res, lines, i, loc[1], "arrow", FunctionEntity{
				Name:            m[3],
				IsExported:      m[1] != "",
				IsDefaultExport: m[2] != "",
				IsAsync:         m[4] != "",
				Parameters:      parseScriptParameters(m[5]),
				ReturnType:      strings.TrimSpace(m[6]),
			}))
		}
	}
	return spans
}

func (e *ScriptLexicalExtractor) addFunction(res *FileExtractionResult, lines []string, idx, bodyCol int, kind string, fn FunctionEntity) span {
	body := estimateBodyLines(lines, idx)
	fn.FilePath = res.Path
	fn.FunctionType = kind
	fn.LineStart = idx + 1
	fn.LineEnd = idx + body
	fn.Decorators = []string{}
	fn.Complexity = 1 + e.countDecisions(lines, idx, idx+body, bodyCol)
	res.Functions = append(res.Functions, fn)
	return span{start: idx, end: idx + body - 1, bodyCol: bodyCol, fnIndex: len(res.Functions) - 1, class: fn.ParentClass}
}

func (e *ScriptLexicalExtractor) extractClasses(res *FileExtractionResult, lines []string) []span {
	var spans []span
	for i, line := range lines {
		m := e.class.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		body := estimateBodyLines(lines, i)
		bases := []string{}
		if m[4] != "" {
			bases = append(bases, m[4])
		}
		implements := []string{}
		if impl := strings.TrimSpace(m[5]); impl != "" {
			implements = splitAndTrim(impl, ",")
		}
		res.Classes = append(res.Classes, ClassEntity{
			Name:       m[3],
			FilePath:   res.Path,
			LineStart:  i + 1,
			LineEnd:    i + body,
			Bases:      bases,
			Decorators: []string{},
			Methods:    []string{},
			Attributes: []string{},
			Implements: implements,
			IsExported: m[1] != "",
		})
		spans = append(spans, span{start: i, end: i + body - 1, fnIndex: len(res.Classes) - 1, class: m[3]})
	}
	return spans
}

// extractMethods finds method headers at brace depth one inside each class.
func (e *ScriptLexicalExtractor) extractMethods(res *FileExtractionResult, lines []string, classes []span) []span {
	var spans []span
	for _, cls := range classes {
		depth := 0
		for i := cls.start; i <= cls.end && i < len(lines); i++ {
			line := lines[i]
			if depth == 1 {
				if loc := e.method.FindStringSubmatchIndex(line); loc != nil {
					m := submatches(line, loc)
					if !scriptKeywords[m[2]] {
						spans = append(spans, e.addFunction(res, lines, i, loc[1], "method", FunctionEntity{
							Name:        m[2],
							IsAsync:     m[1] != "",
							IsMethod:    true,
							ParentClass: cls.class,
							Parameters:  parseScriptParameters(m[3]),
							ReturnType:  strings.TrimSpace(m[4]),
						}))
						res.Classes[cls.fnIndex].Methods = append(res.Classes[cls.fnIndex].Methods, m[2])
					}
				}
			}
			depth += strings.Count(line, "{") - strings.Count(line, "}")
		}
	}
	return spans
}

func (e *ScriptLexicalExtractor) extractComponents(res *FileExtractionResult, lines []string) {
	declared := make(map[string]bool, len(res.Functions))
	for _, fn := range res.Functions {
		declared[fn.Name] = true
	}
	for i, line := range lines {
		m := e.exportDefault.FindStringSubmatch(line)
		if m == nil || declared[m[1]] {
			continue
		}
		if !returnsMarkup(lines, i) {
			continue
		}
		res.Components = append(res.Components, ComponentEntity{
			Name:            m[1],
			FilePath:        res.Path,
			Line:            i + 1,
			ComponentType:   "function_component",
			IsDefaultExport: true,
		})
	}
}

func returnsMarkup(lines []string, start int) bool {
	for i := start; i < start+20 && i < len(lines); i++ {
		line := lines[i]
		if strings.Contains(line, "return <") || (strings.Contains(line, "return") && strings.Contains(line, "<")) {
			return true
		}
		if strings.Contains(line, "return null") || strings.Contains(line, "return false") {
			return false
		}
	}
	return false
}

// extractCalls attributes each call token to the innermost function whose
// estimated span contains the line. Declaration headers are skipped up to the
// body start so a function's own name is not read as a call.
func (e *ScriptLexicalExtractor) extractCalls(res *FileExtractionResult, lines []string, fns, classes []span) {
	for i, line := range lines {
		owner := innermost(fns, i)
		from := 0
		if owner != nil && owner.start == i {
			from = owner.bodyCol
		}
		for _, other := range fns {
			if other.start == i && other.bodyCol > from {
				from = other.bodyCol
			}
		}

		caller, class := "", ""
		if owner != nil {
			fn := &res.Functions[owner.fnIndex]
			caller, class = fn.Name, fn.ParentClass
		} else if cls := innermost(classes, i); cls != nil {
			class = cls.class
		}

		for _, name := range e.callNames(line[from:]) {
			res.Calls = append(res.Calls, CallSiteEntity{
				Name:           name,
				FilePath:       res.Path,
				Line:           i + 1,
				CallerFunction: caller,
				CallerClass:    class,
			})
			if owner != nil {
				res.Functions[owner.fnIndex].Calls = append(res.Functions[owner.fnIndex].Calls, name)
			}
		}
	}
	for i := range res.Functions {
		res.Functions[i].Calls = nonNil(res.Functions[i].Calls)
	}
}

func (e *ScriptLexicalExtractor) callNames(text string) []string {
	text = stripLineComment(e.literal.ReplaceAllString(text, `""`))
	var names []string
	for _, m := range e.call.FindAllStringSubmatch(text, -1) {
		name := normalizeRefName(m[1])
		if name == "" || scriptKeywords[name] {
			continue
		}
		names = append(names, name)
	}
	return names
}

func (e *ScriptLexicalExtractor) countDecisions(lines []string, from, to, bodyCol int) int {
	count := 0
	for i := from; i < to && i < len(lines); i++ {
		line := lines[i]
		if i == from && bodyCol <= len(line) {
			line = line[bodyCol:]
		}
		line = stripLineComment(e.literal.ReplaceAllString(line, `""`))
		count += len(e.decision.FindAllStringIndex(line, -1))
	}
	return count
}

// innermost returns the span with the latest start that contains line.
func innermost(spans []span, line int) *span {
	var best *span
	for i := range spans {
		s := &spans[i]
		if line < s.start || line > s.end {
			continue
		}
		if best == nil || s.start > best.start || (s.start == best.start && s.bodyCol > best.bodyCol) {
			best = s
		}
	}
	return best
}

// estimateBodyLines counts lines from start until the braces opened on or
// after it balance out. Returns 1 when no brace is found.
func estimateBodyLines(lines []string, start int) int {
	depth := 0
	started := false
	for i := start; i < len(lines); i++ {
		for _, ch := range lines[i] {
			switch ch {
			case '{':
				depth++
				started = true
			case '}':
				depth--
			}
		}
		if started && depth <= 0 {
			return i - start + 1
		}
	}
	return 1
}

func parseScriptParameters(params string) []string {
	out := []string{}
	if strings.TrimSpace(params) == "" {
		return out
	}
	for _, param := range strings.Split(params, ",") {
		param = strings.TrimSpace(param)
		if idx := strings.Index(param, ":"); idx >= 0 {
			param = strings.TrimSpace(param[:idx])
		}
		if idx := strings.Index(param, "="); idx >= 0 {
			param = strings.TrimSpace(param[:idx])
		}
		param = stripParameterModifiers(param)
		param = strings.TrimSuffix(strings.TrimPrefix(param, "..."), "?")
		if param != "" {
			out = append(out, param)
		}
	}
	return out
}

// scriptParameterModifiers are TypeScript parameter-property keywords.
var scriptParameterModifiers = map[string]bool{
	"public": true, "private": true, "protected": true, "readonly": true, "override": true,
}

func stripParameterModifiers(param string) string {
	fields := strings.Fields(param)
	for len(fields) > 1 && scriptParameterModifiers[fields[0]] {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

func stripLineComment(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		return line[:idx]
	}
	return line
}

func submatches(s string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}
