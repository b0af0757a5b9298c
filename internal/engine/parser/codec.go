// # internal/engine/parser/codec.go
package parser

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"depscope/internal/core/errors"
	"depscope/internal/shared/util"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed extraction.schema.json
var extractionSchema []byte

// extractionDocument is the serialized form of a RepositoryExtractionResult.
type extractionDocument struct {
	RepoPath string                           `json:"repo_path" yaml:"repo_path"`
	Summary  Summary                          `json:"summary" yaml:"summary"`
	Files    map[string]*FileExtractionResult `json:"files" yaml:"files"`
}

func newDocument(r *RepositoryExtractionResult) extractionDocument {
	for _, f := range r.Files {
		f.normalize()
	}
	return extractionDocument{RepoPath: r.RepoPath, Summary: r.Summary(), Files: r.Files}
}

// EncodeJSON writes the extraction result as indented JSON.
func EncodeJSON(w io.Writer, r *RepositoryExtractionResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newDocument(r)); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode extraction json")
	}
	return nil
}

func EncodeYAML(w io.Writer, r *RepositoryExtractionResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(r)); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode extraction yaml")
	}
	return enc.Close()
}

// WriteFile picks JSON or YAML by the output extension.
func WriteFile(path string, r *RepositoryExtractionResult) error {
	var sb strings.Builder
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = EncodeYAML(&sb, r)
	default:
		err = EncodeJSON(&sb, r)
	}
	if err != nil {
		return err
	}
	if err := util.WriteStringWithDirs(path, sb.String(), 0o644); err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeIO, "write extraction"), errors.CtxPath, path)
	}
	return nil
}

// DecodeJSON validates data against the extraction schema and decodes it.
// Entity file paths are restored from the map keys.
func DecodeJSON(data []byte) (*RepositoryExtractionResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(extractionSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid extraction json")
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, verr := range result.Errors() {
			msgs = append(msgs, fmt.Sprintf("%s: %s", verr.Field(), verr.Description()))
		}
		return nil, errors.Newf(errors.CodeValidationError, "extraction json does not match schema: %s", strings.Join(msgs, "; "))
	}

	var doc extractionDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "decode extraction json")
	}

	repo := NewRepositoryResult(doc.RepoPath)
	for path, f := range doc.Files {
		if f == nil {
			f = &FileExtractionResult{}
		}
		f.setPath(path)
		repo.Files[path] = f
	}
	return repo, nil
}

func ReadFile(path string) (*RepositoryExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "read extraction"), errors.CtxPath, path)
	}
	return DecodeJSON(data)
}

func (r *FileExtractionResult) setPath(path string) {
	r.Path = path
	for i := range r.Functions {
		r.Functions[i].FilePath = path
	}
	for i := range r.Classes {
		r.Classes[i].FilePath = path
	}
	for i := range r.Imports {
		r.Imports[i].FilePath = path
	}
	for i := range r.Calls {
		r.Calls[i].FilePath = path
	}
	for i := range r.Components {
		r.Components[i].FilePath = path
	}
	r.normalize()
}

// normalize replaces nil lists so documents always carry [] rather than null.
func (r *FileExtractionResult) normalize() {
	if r.Functions == nil {
		r.Functions = []FunctionEntity{}
	}
	if r.Classes == nil {
		r.Classes = []ClassEntity{}
	}
	if r.Imports == nil {
		r.Imports = []ImportEntity{}
	}
	if r.Calls == nil {
		r.Calls = []CallSiteEntity{}
	}
	if r.ParseErrors == nil {
		r.ParseErrors = []string{}
	}
	for i := range r.Functions {
		fn := &r.Functions[i]
		fn.Parameters = nonNil(fn.Parameters)
		fn.Decorators = nonNil(fn.Decorators)
		fn.Calls = nonNil(fn.Calls)
	}
	for i := range r.Classes {
		c := &r.Classes[i]
		c.Bases = nonNil(c.Bases)
		c.Decorators = nonNil(c.Decorators)
		c.Methods = nonNil(c.Methods)
		c.Attributes = nonNil(c.Attributes)
	}
	for i := range r.Imports {
		r.Imports[i].Names = nonNil(r.Imports[i].Names)
	}
}
