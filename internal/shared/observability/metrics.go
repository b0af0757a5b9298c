package observability

import (
	"bytes"
	"fmt"

	"depscope/internal/shared/util"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "depscope_parsing_seconds",
		Help:    "Time spent extracting a single source file.",
		Buckets: prometheus.DefBuckets,
	}, []string{"frontend"})

	FilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depscope_files_total",
		Help: "Files attempted by the repository aggregator, by outcome.",
	}, []string{"status"})

	GraphNodes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "depscope_graph_nodes",
		Help: "Number of nodes in the most recently built graph.",
	}, []string{"graph"})

	GraphEdges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "depscope_graph_edges",
		Help: "Number of resolved forward edges in the most recently built graph.",
	}, []string{"graph"})

	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depscope_cycles_total",
		Help: "Circular dependencies reported, by graph kind and severity.",
	}, []string{"kind", "severity"})

	ArchitectureViolations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "depscope_architecture_violations_total",
		Help: "Architecture rule violations, by rule and violation type.",
	}, []string{"rule", "type"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "depscope_analysis_seconds",
		Help:    "Time spent on pipeline stages.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})
)

const (
	FileStatusOK         = "ok"
	FileStatusParseError = "parse_error"
	FileStatusReadError  = "read_error"
)

// WriteMetrics dumps the default gatherer in Prometheus text exposition format.
func WriteMetrics(path string) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("encode metric family %q: %w", mf.GetName(), err)
		}
	}
	return util.WriteFileWithDirs(path, buf.Bytes(), 0o644)
}
