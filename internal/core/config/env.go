package config

import (
	"log/slog"
	"math"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
)

// envPrefix starts every override variable: DEPSCOPE_<SECTION>_<KEY>.
const envPrefix = "DEPSCOPE_"

// envBinding parses one variable into a config field. A value that does not
// parse is logged and ignored.
type envBinding struct {
	key   string
	apply func(cfg *Config, raw string) error
}

var envBindings = []envBinding{
	{"SCAN_ROOT", func(c *Config, v string) error { c.Scan.Root = v; return nil }},
	{"SCAN_PATTERN", func(c *Config, v string) error { c.Scan.Pattern = v; return nil }},
	{"SCAN_WORKERS", func(c *Config, v string) (err error) { c.Scan.Workers, err = parseInt(v, c.Scan.Workers); return }},
	{"SCAN_MAX_FILE_BYTES", func(c *Config, v string) error {
		n, err := ParseSize(v)
		if err == nil {
			c.Scan.MaxFileBytes = n
		}
		return err
	}},
	{"RESOLVER_CALLS", func(c *Config, v string) error { c.Resolver.Calls = v; return nil }},
	{"ANALYSIS_DEDUPE_CYCLES", func(c *Config, v string) (err error) {
		c.Analysis.DedupeCycles, err = parseBool(v, c.Analysis.DedupeCycles)
		return
	}},
	{"HISTORY_ENABLED", func(c *Config, v string) (err error) { c.History.Enabled, err = parseBool(v, c.History.Enabled); return }},
	{"HISTORY_PATH", func(c *Config, v string) error { c.History.Path = v; return nil }},
	{"OBSERVABILITY_METRICS_OUT", func(c *Config, v string) error { c.Observability.MetricsOut = v; return nil }},
	{"OBSERVABILITY_OTLP_ENDPOINT", func(c *Config, v string) error { c.Observability.OTLPEndpoint = v; return nil }},
}

// ApplyEnvOverrides applies DEPSCOPE_* environment variables on top of cfg.
func ApplyEnvOverrides(cfg *Config) {
	for _, b := range envBindings {
		key := envPrefix + b.key
		raw, ok := os.LookupEnv(key)
		if !ok {
			continue
		}
		if err := b.apply(cfg, raw); err != nil {
			slog.Warn("ignoring env override", "key", key, "value", raw, "error", err)
			continue
		}
		slog.Debug("applied env override", "key", key, "value", raw)
	}
}

// ParseSize reads a human-readable byte size such as "512KiB" or "2MB".
// Sizes that do not fit in an int64 are rejected.
func ParseSize(raw string) (int64, error) {
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt64 {
		return 0, invalid("size %q is too large", raw)
	}
	return int64(n), nil
}

func parseInt(raw string, current int) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return current, err
	}
	return n, nil
}

func parseBool(raw string, current bool) (bool, error) {
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return current, err
	}
	return b, nil
}
