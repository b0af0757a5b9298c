// # internal/core/app/app.go
package app

import (
	"strings"

	"depscope/internal/core/config"
	"depscope/internal/core/errors"
	"depscope/internal/engine/architecture"
	"depscope/internal/engine/parser"

	"github.com/gobwas/glob"
)

// App wires configuration, the multi-front-end parser and the analysis
// pipeline.
type App struct {
	Config *config.Config
	Parser *parser.Parser
	Rules  *architecture.RuleEvaluator

	pattern   []glob.Glob
	dirGlobs  []glob.Glob
	fileGlobs []glob.Glob
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	p, err := parser.NewParser(parser.NewGrammarLoader(), cfg.Frontends)
	if err != nil {
		return nil, err
	}

	rules, err := architecture.CompileRules(cfg.Architecture.Rules)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Parser: p, Rules: architecture.NewRuleEvaluator(rules)}
	if a.pattern, err = compilePattern(cfg.Scan.Pattern); err != nil {
		return nil, err
	}
	if a.dirGlobs, err = compileGlobs(cfg.Scan.ExcludeDirs); err != nil {
		return nil, err
	}
	if a.fileGlobs, err = compileGlobs(cfg.Scan.ExcludeFiles); err != nil {
		return nil, err
	}
	return a, nil
}

// compilePattern also accepts top-level files for patterns that start with
// "**/".
func compilePattern(pattern string) ([]glob.Glob, error) {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil, nil
	}
	variants := []string{pattern}
	if rest, ok := strings.CutPrefix(pattern, "**/"); ok {
		variants = append(variants, rest)
	}
	return compileGlobs(variants)
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeValidationError, "invalid glob "+p)
		}
		out = append(out, g)
	}
	return out, nil
}

func matchAny(globs []glob.Glob, values ...string) bool {
	for _, g := range globs {
		for _, v := range values {
			if g.Match(v) {
				return true
			}
		}
	}
	return false
}
