package config

import (
	"path/filepath"
	"slices"
	"strings"

	"depscope/internal/core/errors"
	"depscope/internal/engine/architecture"
	"depscope/internal/engine/parser"
	"depscope/internal/engine/resolver"

	"github.com/gobwas/glob"
)

func validate(cfg *Config) error {
	for _, check := range []func(*Config) error{
		validateVersion,
		validateScan,
		validateFrontends,
		validateResolver,
		validateAnalysis,
		validateArchitecture,
		validateOutput,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return errors.Newf(errors.CodeValidationError, format, args...)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return invalid("unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.Workers < 0 {
		return invalid("scan.workers must be >= 0, got %d", cfg.Scan.Workers)
	}
	if cfg.Scan.MaxFileBytes < 0 {
		return invalid("scan.max_file_bytes must be >= 0, got %d", cfg.Scan.MaxFileBytes)
	}
	if p := strings.TrimSpace(cfg.Scan.Pattern); p != "" {
		if _, err := glob.Compile(p, '/'); err != nil {
			return invalid("scan.pattern %q: %v", p, err)
		}
	}
	for _, group := range [][]string{cfg.Scan.ExcludeDirs, cfg.Scan.ExcludeFiles} {
		for _, p := range group {
			if strings.TrimSpace(p) == "" {
				return invalid("exclude patterns must not be empty")
			}
			if _, err := glob.Compile(p, '/'); err != nil {
				return invalid("exclude pattern %q: %v", p, err)
			}
		}
	}
	return nil
}

func validateFrontends(cfg *Config) error {
	known := parser.KnownFrontends()
	for ext, id := range cfg.Frontends {
		if ext == "" || ext == "." {
			return invalid("frontends: empty extension")
		}
		if !slices.Contains(known, id) {
			return invalid("frontends.%q: unknown front-end %q (known: %s)", ext, id, strings.Join(known, ", "))
		}
	}
	return nil
}

func validateResolver(cfg *Config) error {
	if !slices.Contains(resolver.KnownCallResolvers(), cfg.Resolver.Calls) {
		return invalid("resolver.calls must be one of: %s", strings.Join(resolver.KnownCallResolvers(), ", "))
	}
	for _, pkg := range cfg.Resolver.ExternalPackages {
		if strings.TrimSpace(pkg) == "" {
			return invalid("resolver.external_packages must not contain empty entries")
		}
	}
	return nil
}

func validateAnalysis(cfg *Config) error {
	if cfg.Analysis.TopCoupled < 0 {
		return invalid("analysis.top_coupled must be >= 0")
	}
	if cfg.Analysis.TopComplex < 0 {
		return invalid("analysis.top_complex must be >= 0")
	}
	if cfg.Analysis.InstabilityThreshold < 0 || cfg.Analysis.InstabilityThreshold > 1 {
		return invalid("analysis.instability_threshold must be between 0 and 1")
	}
	if cfg.Analysis.HighComplexity < 1 {
		return invalid("analysis.high_complexity must be >= 1")
	}
	return nil
}

func validateArchitecture(cfg *Config) error {
	_, err := architecture.CompileRules(cfg.Architecture.Rules)
	return err
}

// validateOutput rejects two outputs that would overwrite each other. The
// markdown target is included since it is rewritten in place.
func validateOutput(cfg *Config) error {
	out := cfg.Output
	owners := make(map[string]string)
	for _, o := range []struct {
		name string
		path string
	}{
		{"output.extraction", out.Extraction},
		{"output.report", out.Report},
		{"output.analysis_json", out.AnalysisJSON},
		{"output.dot_calls", out.DOTCalls},
		{"output.dot_imports", out.DOTImports},
		{"output.mermaid", out.Mermaid},
		{"output.plantuml", out.PlantUML},
		{"output.tsv_edges", out.TSVEdges},
		{"output.tsv_coupling", out.TSVCoupling},
		{"output.sarif", out.SARIF},
		{"output.markdown", out.Markdown},
		{"history.path", cfg.History.Path},
	} {
		path := strings.TrimSpace(o.path)
		if path == "" {
			continue
		}
		path = filepath.Clean(path)
		if owner, exists := owners[path]; exists {
			return invalid("output conflict: %s and %s share the same path %q", owner, o.name, path)
		}
		owners[path] = o.name
	}
	if strings.ContainsAny(out.MarkdownMarker, " \t\n") {
		return invalid("output.markdown_marker must not contain whitespace")
	}
	return nil
}
