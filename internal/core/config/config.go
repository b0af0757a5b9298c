package config

import (
	"os"
	"runtime"
	"strings"

	"depscope/internal/core/errors"
	"depscope/internal/engine/architecture"
	"depscope/internal/engine/parser"
	"depscope/internal/engine/resolver"

	"github.com/BurntSushi/toml"
)

const DefaultFile = "depscope.toml"

type Config struct {
	Version       int               `toml:"version"`
	Scan          Scan              `toml:"scan"`
	Frontends     map[string]string `toml:"frontends"`
	Resolver      Resolver          `toml:"resolver"`
	Analysis      Analysis          `toml:"analysis"`
	Architecture  Architecture      `toml:"architecture"`
	Output        Output            `toml:"output"`
	History       History           `toml:"history"`
	Observability Observability     `toml:"observability"`
}

type Scan struct {
	Root    string `toml:"root"`
	Pattern string `toml:"pattern"`
	// ExcludeDirs and ExcludeFiles are glob patterns matched against base
	// names and root-relative paths.
	ExcludeDirs  []string `toml:"exclude_dirs"`
	ExcludeFiles []string `toml:"exclude_files"`
	Workers      int      `toml:"workers"`
	MaxFileBytes int64    `toml:"max_file_bytes"`
}

type Resolver struct {
	Calls            string   `toml:"calls"`
	ExternalPackages []string `toml:"external_packages"`
}

type Analysis struct {
	DedupeCycles         bool    `toml:"dedupe_cycles"`
	TopCoupled           int     `toml:"top_coupled"`
	TopComplex           int     `toml:"top_complex"`
	InstabilityThreshold float64 `toml:"instability_threshold"`
	HighComplexity       int     `toml:"high_complexity"`
}

// Architecture holds layering rules checked against the import graph.
type Architecture struct {
	Rules []architecture.RuleConfig `toml:"rules"`
}

type Output struct {
	Extraction   string `toml:"extraction"`
	Report       string `toml:"report"`
	AnalysisJSON string `toml:"analysis_json"`
	DOTCalls     string `toml:"dot_calls"`
	DOTImports   string `toml:"dot_imports"`
	Mermaid      string `toml:"mermaid"`
	PlantUML     string `toml:"plantuml"`
	TSVEdges     string `toml:"tsv_edges"`
	TSVCoupling  string `toml:"tsv_coupling"`
	SARIF        string `toml:"sarif"`
	// Markdown names a file whose depscope marker block receives the import
	// graph as a mermaid diagram.
	Markdown       string `toml:"markdown"`
	MarkdownMarker string `toml:"markdown_marker"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

type Observability struct {
	MetricsOut   string `toml:"metrics_out"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	ServiceName  string `toml:"service_name"`
}

var defaultExcludeDirs = []string{".git", "node_modules", "__pycache__", ".venv", "venv", "dist", "build"}

const defaultMaxFileBytes = 2 << 20

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a TOML file. When path is the default file name and the file does
// not exist, defaults are returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultFile {
			cfg := Default()
			ApplyEnvOverrides(cfg)
			if err := validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "read config"), errors.CtxPath, path)
	}
	return Parse(string(data))
}

// Parse decodes TOML text, applies defaults and environment overrides and
// validates the result.
func Parse(data string) (*Config, error) {
	var cfg Config
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, errors.Newf(errors.CodeValidationError, "unknown config keys: %s", strings.Join(keys, ", "))
	}

	applyDefaults(&cfg)
	ApplyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Scan.Root) == "" {
		cfg.Scan.Root = "."
	}
	if cfg.Scan.ExcludeDirs == nil {
		cfg.Scan.ExcludeDirs = append([]string(nil), defaultExcludeDirs...)
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = runtime.NumCPU()
	}
	if cfg.Scan.MaxFileBytes == 0 {
		cfg.Scan.MaxFileBytes = defaultMaxFileBytes
	}

	mapping := parser.DefaultFrontendMapping()
	for ext, id := range cfg.Frontends {
		mapping[normalizeExt(ext)] = strings.TrimSpace(id)
	}
	cfg.Frontends = mapping

	if strings.TrimSpace(cfg.Resolver.Calls) == "" {
		cfg.Resolver.Calls = resolver.CallsHeuristic
	}
	if cfg.Resolver.ExternalPackages == nil {
		cfg.Resolver.ExternalPackages = append([]string(nil), resolver.DefaultExternalPackages...)
	}

	if cfg.Analysis.TopCoupled == 0 {
		cfg.Analysis.TopCoupled = 10
	}
	if cfg.Analysis.TopComplex == 0 {
		cfg.Analysis.TopComplex = 10
	}
	if cfg.Analysis.InstabilityThreshold == 0 {
		cfg.Analysis.InstabilityThreshold = 0.8
	}
	if cfg.Analysis.HighComplexity == 0 {
		cfg.Analysis.HighComplexity = 15
	}

	if strings.TrimSpace(cfg.Output.MarkdownMarker) == "" {
		cfg.Output.MarkdownMarker = "dependencies"
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = ".depscope/history.db"
	}
	if strings.TrimSpace(cfg.Observability.ServiceName) == "" {
		cfg.Observability.ServiceName = "depscope"
	}
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
