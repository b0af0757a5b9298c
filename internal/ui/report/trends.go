package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"depscope/internal/data/history"

	"github.com/jedib0t/go-pretty/v6/table"
)

func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRun\tFiles\tFunctions\tModules\tCycles\tHighSeverity\tParseErrors\tMaxInstability\tAvgComplexity\tDeltaFunctions\tDeltaModules\tDeltaCycles\tDeltaParseErrors\tDeltaAvgComplexity\tModuleGrowthPct\tAvgCycles\tWindowHours\n")
	for _, point := range report.Points {
		fmt.Fprintf(&buf,
			"%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\t%d\t%d\t%d\t%d\t%.2f\t%.2f\t%.2f\t%.2f\n",
			point.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			point.RunID,
			point.FileCount,
			point.FunctionCount,
			point.ModuleCount,
			point.CycleCount,
			point.HighSeverity,
			point.ParseErrorCount,
			point.MaxInstability,
			point.AvgComplexity,
			point.DeltaFunctions,
			point.DeltaModules,
			point.DeltaCycles,
			point.DeltaParseErrors,
			point.DeltaComplexity,
			point.ModuleGrowthPct,
			point.AvgCycles,
			point.WindowHours,
		)
	}
	return []byte(buf.String()), nil
}

func RenderTrendJSON(report history.TrendReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// RenderTrendTable renders the trend report as a terminal table.
func RenderTrendTable(report history.TrendReport) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.SetTitle(report.Repository)
	tbl.AppendHeader(table.Row{"Timestamp", "Files", "Functions", "Modules", "Cycles", "High", "Parse errors", "Max instability", "Avg complexity", "Δ cycles"})
	for _, p := range report.Points {
		tbl.AppendRow(table.Row{
			p.Timestamp.Format("2006-01-02 15:04:05"),
			p.FileCount,
			p.FunctionCount,
			p.ModuleCount,
			p.CycleCount,
			p.HighSeverity,
			p.ParseErrorCount,
			fmt.Sprintf("%.2f", p.MaxInstability),
			fmt.Sprintf("%.2f", p.AvgComplexity),
			fmt.Sprintf("%+d", p.DeltaCycles),
		})
	}
	tbl.AppendFooter(table.Row{"runs", report.ScanCount})
	return tbl.Render()
}
