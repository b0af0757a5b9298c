// # internal/engine/parser/types.go
package parser

import (
	"path/filepath"

	"depscope/internal/shared/util"
)

// FunctionEntity describes one function or method declaration. Entities are
// built once per declaration and not mutated after extraction of the file.
type FunctionEntity struct {
	Name       string   `json:"name" yaml:"name"`
	FilePath   string   `json:"-" yaml:"-"`
	LineStart  int      `json:"line_start" yaml:"line_start"`
	LineEnd    int      `json:"line_end" yaml:"line_end"`
	Parameters []string `json:"parameters" yaml:"parameters"`
	ReturnType string   `json:"return_type" yaml:"return_type"`
	Decorators []string `json:"decorators" yaml:"decorators"`
	Docstring  string   `json:"docstring" yaml:"docstring"`
	IsAsync    bool     `json:"is_async" yaml:"is_async"`
	IsMethod   bool     `json:"is_method" yaml:"is_method"`
	// ParentClass is set iff IsMethod.
	ParentClass string `json:"parent_class" yaml:"parent_class"`
	// Calls holds callee names recorded inside this function's own body.
	Calls      []string `json:"calls" yaml:"calls"`
	Complexity int      `json:"complexity" yaml:"complexity"`

	// Script front-ends only.
	FunctionType    string `json:"function_type,omitempty" yaml:"function_type,omitempty"`
	IsExported      bool   `json:"is_exported,omitempty" yaml:"is_exported,omitempty"`
	IsDefaultExport bool   `json:"is_default_export,omitempty" yaml:"is_default_export,omitempty"`
}

type ClassEntity struct {
	Name       string   `json:"name" yaml:"name"`
	FilePath   string   `json:"-" yaml:"-"`
	LineStart  int      `json:"line_start" yaml:"line_start"`
	LineEnd    int      `json:"line_end" yaml:"line_end"`
	Bases      []string `json:"bases" yaml:"bases"`
	Decorators []string `json:"decorators" yaml:"decorators"`
	Docstring  string   `json:"docstring" yaml:"docstring"`
	Methods    []string `json:"methods" yaml:"methods"`
	Attributes []string `json:"attributes" yaml:"attributes"`
	Implements []string `json:"implements,omitempty" yaml:"implements,omitempty"`
	IsExported bool     `json:"is_exported,omitempty" yaml:"is_exported,omitempty"`
}

// ImportEntity is one import statement (or one alias of a multi-module import).
// Module keeps the leading dots of relative imports.
type ImportEntity struct {
	Module       string   `json:"module" yaml:"module"`
	Names        []string `json:"names" yaml:"names"`
	Alias        string   `json:"alias" yaml:"alias"`
	FilePath     string   `json:"-" yaml:"-"`
	Line         int      `json:"line_number" yaml:"line_number"`
	IsFromImport bool     `json:"is_from_import" yaml:"is_from_import"`
	IsTypeImport bool     `json:"is_type_import,omitempty" yaml:"is_type_import,omitempty"`
}

// RelativeLevel returns the number of leading dots of the module text.
func (i ImportEntity) RelativeLevel() int {
	level := 0
	for level < len(i.Module) && i.Module[level] == '.' {
		level++
	}
	return level
}

type CallSiteEntity struct {
	Name           string `json:"function_name" yaml:"function_name"`
	FilePath       string `json:"-" yaml:"-"`
	Line           int    `json:"line_number" yaml:"line_number"`
	CallerFunction string `json:"caller_function" yaml:"caller_function"`
	CallerClass    string `json:"caller_class" yaml:"caller_class"`
}

// ComponentEntity is a UI component flagged by the script front-ends. The
// lexical detection is approximate; see ScriptLexicalExtractor.
type ComponentEntity struct {
	Name            string `json:"name" yaml:"name"`
	FilePath        string `json:"-" yaml:"-"`
	Line            int    `json:"line_number" yaml:"line_number"`
	ComponentType   string `json:"component_type" yaml:"component_type"`
	IsDefaultExport bool   `json:"is_default_export" yaml:"is_default_export"`
}

// FileExtractionResult holds everything extracted from one file. A non-empty
// ParseErrors means the entity lists are unreliable; they are kept empty.
type FileExtractionResult struct {
	Path        string            `json:"-" yaml:"-"`
	Frontend    string            `json:"frontend,omitempty" yaml:"frontend,omitempty"`
	Functions   []FunctionEntity  `json:"functions" yaml:"functions"`
	Classes     []ClassEntity     `json:"classes" yaml:"classes"`
	Imports     []ImportEntity    `json:"imports" yaml:"imports"`
	Calls       []CallSiteEntity  `json:"calls" yaml:"calls"`
	Components  []ComponentEntity `json:"components,omitempty" yaml:"components,omitempty"`
	ParseErrors []string          `json:"parse_errors" yaml:"parse_errors"`
}

func NewFileResult(path, frontend string) *FileExtractionResult {
	return &FileExtractionResult{Path: path, Frontend: frontend}
}

// FailedResult builds a result that carries only parse errors.
func FailedResult(path, frontend string, messages ...string) *FileExtractionResult {
	res := NewFileResult(path, frontend)
	res.ParseErrors = append(res.ParseErrors, messages...)
	return res
}

func (r *FileExtractionResult) Failed() bool {
	return len(r.ParseErrors) > 0
}

// clearEntities enforces the all-or-nothing contract once a parse error is known.
func (r *FileExtractionResult) clearEntities() {
	r.Functions = nil
	r.Classes = nil
	r.Imports = nil
	r.Calls = nil
	r.Components = nil
}

// RepositoryExtractionResult maps root-relative slash paths to file results.
type RepositoryExtractionResult struct {
	RepoPath string
	Files    map[string]*FileExtractionResult
}

func NewRepositoryResult(repoPath string) *RepositoryExtractionResult {
	return &RepositoryExtractionResult{
		RepoPath: repoPath,
		Files:    make(map[string]*FileExtractionResult),
	}
}

type Summary struct {
	TotalFiles     int `json:"total_files" yaml:"total_files"`
	TotalFunctions int `json:"total_functions" yaml:"total_functions"`
	TotalClasses   int `json:"total_classes" yaml:"total_classes"`
	TotalImports   int `json:"total_imports" yaml:"total_imports"`
	TotalCalls     int `json:"total_calls" yaml:"total_calls"`
	FilesWithError int `json:"files_with_errors" yaml:"files_with_errors"`
}

func (r *RepositoryExtractionResult) Summary() Summary {
	s := Summary{TotalFiles: len(r.Files)}
	for _, f := range r.Files {
		s.TotalFunctions += len(f.Functions)
		s.TotalClasses += len(f.Classes)
		s.TotalImports += len(f.Imports)
		s.TotalCalls += len(f.Calls)
		if f.Failed() {
			s.FilesWithError++
		}
	}
	return s
}

// Paths returns the file keys in sorted order.
func (r *RepositoryExtractionResult) Paths() []string {
	return util.SortedStringKeys(r.Files)
}

// RelativeTo returns a view of r whose file keys are root-relative slash
// paths. Keys that are already relative, or lie outside root, are only
// normalized. File results are shared with r except for their Path.
func (r *RepositoryExtractionResult) RelativeTo(root string) *RepositoryExtractionResult {
	out := NewRepositoryResult(r.RepoPath)
	for _, key := range r.Paths() {
		rel := util.NormalizePatternPath(key)
		if root != "" && filepath.IsAbs(filepath.FromSlash(key)) {
			rel = util.RelSlash(root, filepath.FromSlash(key))
		}
		f := *r.Files[key]
		f.Path = rel
		out.Files[rel] = &f
	}
	return out
}
