// Package architecture checks the import graph against layering rules.
package architecture

import (
	"path/filepath"
	"sort"
	"strings"

	"depscope/internal/core/errors"
	"depscope/internal/shared/util"

	"github.com/gobwas/glob"
)

// RuleConfig is one [[architecture.rules]] entry. Modules selects the files
// the rule applies to; patterns are globs or path prefixes relative to the
// repository root.
type RuleConfig struct {
	Name         string   `toml:"name"`
	Modules      []string `toml:"modules"`
	MaxFiles     int      `toml:"max_files"`
	Allow        []string `toml:"allow"`
	Deny         []string `toml:"deny"`
	ExcludeFiles []string `toml:"exclude_files"`
	ExcludeTests bool     `toml:"exclude_tests"`
}

type Rule struct {
	Name         string
	Modules      []compiledPattern
	MaxFiles     int
	ImportAllow  []compiledPattern
	ImportDeny   []compiledPattern
	ExcludeFiles []compiledPattern
	ExcludeTests bool
}

type compiledPattern struct {
	raw        string
	isWildcard bool
	glob       glob.Glob
}

func (p compiledPattern) String() string { return p.raw }

// CompileRules validates and compiles rule configs, sorted by name.
func CompileRules(configs []RuleConfig) ([]Rule, error) {
	rules := make([]Rule, 0, len(configs))
	for i, rc := range configs {
		name := strings.TrimSpace(rc.Name)
		if name == "" {
			return nil, errors.Newf(errors.CodeValidationError, "architecture.rules[%d]: name must not be empty", i)
		}
		if rc.MaxFiles < 0 {
			return nil, errors.Newf(errors.CodeValidationError, "architecture rule %q: max_files must be >= 0", name)
		}
		r := Rule{Name: name, MaxFiles: rc.MaxFiles, ExcludeTests: rc.ExcludeTests}
		for _, group := range []struct {
			field string
			raw   []string
			dst   *[]compiledPattern
		}{
			{"modules", rc.Modules, &r.Modules},
			{"allow", rc.Allow, &r.ImportAllow},
			{"deny", rc.Deny, &r.ImportDeny},
			{"exclude_files", rc.ExcludeFiles, &r.ExcludeFiles},
		} {
			compiled, err := compilePatterns(group.raw)
			if err != nil {
				return nil, errors.Newf(errors.CodeValidationError, "architecture rule %q: %s: %v", name, group.field, err)
			}
			*group.dst = compiled
		}
		if len(r.Modules) == 0 {
			return nil, errors.Newf(errors.CodeValidationError, "architecture rule %q: modules must not be empty", name)
		}
		rules = append(rules, r)
	}
	sortRules(rules)
	return rules, nil
}

func (r Rule) MatchesModule(path string) bool {
	return matchPatterns(r.Modules, path)
}

// AllowsImport applies deny first. An empty allow list allows everything
// that is not denied.
func (r Rule) AllowsImport(target string) bool {
	if matchPatterns(r.ImportDeny, target) {
		return false
	}
	if len(r.ImportAllow) == 0 {
		return true
	}
	return matchPatterns(r.ImportAllow, target)
}

func (r Rule) ExcludesFile(path string) bool {
	if r.ExcludeTests && isTestFile(path) {
		return true
	}
	return matchPatterns(r.ExcludeFiles, path) || matchPatterns(r.ExcludeFiles, filepath.Base(path))
}

func (r Rule) checksImports() bool {
	return len(r.ImportAllow) > 0 || len(r.ImportDeny) > 0
}

func (r Rule) modulesLabel() string {
	raw := make([]string, 0, len(r.Modules))
	for _, p := range r.Modules {
		raw = append(raw, p.raw)
	}
	return strings.Join(raw, ",")
}

func compilePatterns(raw []string) ([]compiledPattern, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]compiledPattern, 0, len(raw))
	for _, pattern := range raw {
		norm := util.NormalizePatternPath(pattern)
		if norm == "" {
			continue
		}
		cp := compiledPattern{
			raw:        norm,
			isWildcard: strings.ContainsAny(norm, "*?[]{}"),
		}
		if cp.isWildcard {
			g, err := glob.Compile(norm, '/')
			if err != nil {
				return nil, err
			}
			cp.glob = g
		}
		out = append(out, cp)
	}
	return out, nil
}

func matchPatterns(patterns []compiledPattern, path string) bool {
	name := util.NormalizePatternPath(path)
	if name == "" {
		return false
	}
	for _, p := range patterns {
		if p.isWildcard {
			if p.glob.Match(name) {
				return true
			}
			continue
		}
		if util.HasPathPrefix(name, p.raw) {
			return true
		}
	}
	return false
}

func isTestFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(base, "_test.go") || strings.HasSuffix(base, "_test.py") {
		return true
	}
	if strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py") {
		return true
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.HasSuffix(stem, ".test") || strings.HasSuffix(stem, ".spec")
}

func sortRules(rules []Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Name < rules[j].Name
	})
}
