package app

import (
	"context"
	"log/slog"

	"depscope/internal/data/history"
	"depscope/internal/engine/graph"
)

// Snapshot condenses an analysis result into a history row.
func Snapshot(res *AnalysisResult) history.Snapshot {
	high := 0
	for _, c := range res.Cycles() {
		if c.Severity == graph.SeverityHigh {
			high++
		}
	}
	return history.Snapshot{
		Repository:         res.RepoPath,
		FileCount:          res.Summary.TotalFiles,
		FunctionCount:      len(res.CallGraph.NodeIDs()),
		ModuleCount:        len(res.ImportGraph.NodeIDs()),
		CallEdges:          graph.EdgeCount(res.CallGraph),
		ImportEdges:        graph.EdgeCount(res.ImportGraph),
		CallCycles:         len(res.CallCycles),
		ImportCycles:       len(res.ImportCycles),
		HighSeverityCycles: high,
		ParseErrorCount:    len(res.ParseErrors),
		MaxInstability:     res.MaxInstability(),
		AvgComplexity:      res.Complexity.Average,
	}
}

// RecordHistory saves a snapshot of res when history is enabled. It returns
// the stored snapshot, or false when history is disabled.
func (a *App) RecordHistory(ctx context.Context, res *AnalysisResult) (history.Snapshot, bool, error) {
	if !a.Config.History.Enabled {
		return history.Snapshot{}, false, nil
	}
	store, err := history.Open(a.Config.History.Path)
	if err != nil {
		if history.IsCorruptError(err) {
			slog.ErrorContext(ctx, "history database is corrupt; move it aside to start a new one", "path", a.Config.History.Path)
		}
		return history.Snapshot{}, false, err
	}
	defer store.Close()

	saved, err := store.Save(ctx, Snapshot(res))
	if err != nil {
		return history.Snapshot{}, false, err
	}
	slog.InfoContext(ctx, "recorded history snapshot", "run_id", saved.RunID, "path", store.Path())
	return saved, true, nil
}
