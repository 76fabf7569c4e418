package models

// WorkloadStats summarises per-worker assigned-day counts.
type WorkloadStats struct {
	Workers      int     `json:"workers"`
	MinWorkdays  int     `json:"min_workdays"`
	MaxWorkdays  int     `json:"max_workdays"`
	AvgWorkdays  float64 `json:"avg_workdays"`
	BalanceRatio float64 `json:"balance_ratio"`
}

// QualityReport carries pattern-diversity and workload-balance diagnostics
// over a normalised schedule. Purely informational.
type QualityReport struct {
	UniquePatterns int           `json:"unique_patterns"`
	TotalDays      int           `json:"total_days"`
	VarietyRatio   float64       `json:"variety_ratio"`
	Repeating      bool          `json:"repeating"`
	LowQuality     bool          `json:"low_quality"`
	Workload       WorkloadStats `json:"workload"`
}

// Grade buckets the variety ratio the way the product surfaces it to users.
func (r QualityReport) Grade() string {
	switch {
	case r.VarietyRatio >= 0.9:
		return "excellent"
	case r.VarietyRatio >= 0.7:
		return "fair"
	default:
		return "poor"
	}
}
