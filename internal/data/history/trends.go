package history

import (
	"math"
	"time"

	"depscope/internal/core/errors"
)

// BuildTrendReport derives run-to-run deltas and a moving average of the cycle
// count over window. Snapshots must be in chronological order.
func BuildTrendReport(repository string, snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, errors.AddContext(errors.New(errors.CodeNotFound, "no snapshots available"), errors.CtxPath, repository)
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			RunID:           current.RunID,
			Timestamp:       current.Timestamp,
			FileCount:       current.FileCount,
			FunctionCount:   current.FunctionCount,
			ModuleCount:     current.ModuleCount,
			CycleCount:      current.CycleCount(),
			HighSeverity:    current.HighSeverityCycles,
			ParseErrorCount: current.ParseErrorCount,
			MaxInstability:  current.MaxInstability,
			AvgComplexity:   current.AvgComplexity,
		}

		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaFunctions = current.FunctionCount - prev.FunctionCount
			point.DeltaModules = current.ModuleCount - prev.ModuleCount
			point.DeltaCycles = current.CycleCount() - prev.CycleCount()
			point.DeltaParseErrors = current.ParseErrorCount - prev.ParseErrorCount
			point.DeltaComplexity = round2(current.AvgComplexity - prev.AvgComplexity)
			if prev.ModuleCount > 0 {
				point.ModuleGrowthPct = round2(float64(point.DeltaModules) / float64(prev.ModuleCount) * 100)
			}
		}

		point.AvgCycles = round2(movingAverageCycles(snapshots, i, window))
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Repository:    repository,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		Window:        window.String(),
		ScanCount:     len(points),
		Points:        points,
	}, nil
}

func movingAverageCycles(snapshots []Snapshot, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(snapshots[index].CycleCount())
	}

	cutoff := snapshots[index].Timestamp.Add(-window)
	total, count := 0, 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		total += snapshots[i].CycleCount()
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
