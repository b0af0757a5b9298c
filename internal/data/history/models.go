package history

import "time"

const SchemaVersion = 1

// Snapshot summarizes one analysis run of a repository.
type Snapshot struct {
	RunID              string    `json:"run_id"`
	SchemaVersion      int       `json:"schema_version"`
	Timestamp          time.Time `json:"timestamp"`
	Repository         string    `json:"repository"`
	FileCount          int       `json:"file_count"`
	FunctionCount      int       `json:"function_count"`
	ModuleCount        int       `json:"module_count"`
	CallEdges          int       `json:"call_edges"`
	ImportEdges        int       `json:"import_edges"`
	CallCycles         int       `json:"call_cycles"`
	ImportCycles       int       `json:"import_cycles"`
	HighSeverityCycles int       `json:"high_severity_cycles"`
	ParseErrorCount    int       `json:"parse_error_count"`
	MaxInstability     float64   `json:"max_instability"`
	AvgComplexity      float64   `json:"avg_complexity"`
}

func (s Snapshot) CycleCount() int {
	return s.CallCycles + s.ImportCycles
}

type TrendPoint struct {
	RunID            string    `json:"run_id"`
	Timestamp        time.Time `json:"timestamp"`
	FileCount        int       `json:"file_count"`
	FunctionCount    int       `json:"function_count"`
	ModuleCount      int       `json:"module_count"`
	CycleCount       int       `json:"cycle_count"`
	HighSeverity     int       `json:"high_severity_cycles"`
	ParseErrorCount  int       `json:"parse_error_count"`
	MaxInstability   float64   `json:"max_instability"`
	AvgComplexity    float64   `json:"avg_complexity"`
	DeltaFunctions   int       `json:"delta_functions"`
	DeltaModules     int       `json:"delta_modules"`
	DeltaCycles      int       `json:"delta_cycles"`
	DeltaParseErrors int       `json:"delta_parse_errors"`
	DeltaComplexity  float64   `json:"delta_avg_complexity"`
	ModuleGrowthPct  float64   `json:"module_growth_pct"`
	AvgCycles        float64   `json:"avg_cycles"`
	WindowHours      float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Repository    string       `json:"repository"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	ScanCount     int          `json:"scan_count"`
	Points        []TrendPoint `json:"points"`
}
