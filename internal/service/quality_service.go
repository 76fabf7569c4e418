package service

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/shiftwise/shiftwise-api/internal/models"
)

// QualityService computes pattern-diversity and workload-balance diagnostics
// over a normalised schedule. It never mutates the schedule.
type QualityService struct {
	logger *zap.Logger
}

// NewQualityService constructs the analyzer.
func NewQualityService(logger *zap.Logger) *QualityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QualityService{logger: logger}
}

// Analyze builds the quality report for a schedule against the staffing rules
// it was generated from.
func (s *QualityService) Analyze(schedule *models.CanonicalSchedule, rules []models.DepartmentStaffingRule) *models.QualityReport {
	if schedule == nil {
		return nil
	}

	required := make(map[string]int, len(rules))
	for _, rule := range rules {
		required[rule.DepartmentID] = rule.RequiredStaffCount
		required[rule.DepartmentName] = rule.RequiredStaffCount
	}

	signatures := make(map[string]bool)
	workload := make(map[string]int)
	totalDays := 0
	for _, day := range models.WeekdayOrder {
		assignments, ok := schedule.Days[day]
		if !ok {
			continue
		}
		totalDays++
		signatures[daySignature(assignments, required)] = true
		for _, assignment := range assignments {
			for _, worker := range assignment.AssignedWorkers {
				workload[worker.WorkerID]++
			}
		}
	}

	report := &models.QualityReport{
		UniquePatterns: len(signatures),
		TotalDays:      totalDays,
		Workload:       workloadStats(workload),
	}
	if totalDays > 0 {
		report.VarietyRatio = float64(len(signatures)) / float64(totalDays)
		report.Repeating = report.VarietyRatio < 1.0
		report.LowQuality = report.VarietyRatio < 0.7
	}

	s.logger.Info("analyzed schedule quality",
		zap.String("schedule_id", schedule.ID),
		zap.Int("unique_patterns", report.UniquePatterns),
		zap.Int("total_days", report.TotalDays),
		zap.Float64("variety_ratio", report.VarietyRatio),
		zap.Float64("balance_ratio", report.Workload.BalanceRatio),
		zap.String("grade", report.Grade()))
	return report
}

// daySignature canonicalises one day's assignments into a comparable pattern
// key of (department, required, assigned) tuples.
func daySignature(assignments []models.DepartmentAssignment, required map[string]int) string {
	parts := make([]string, 0, len(assignments))
	for _, assignment := range assignments {
		req, ok := required[assignment.DepartmentID]
		if !ok {
			req = required[assignment.DepartmentName]
		}
		parts = append(parts, fmt.Sprintf("%s:%d:%d", assignment.DepartmentName, req, len(assignment.AssignedWorkers)))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// workloadStats summarises per-worker assigned-day counts. With no assigned
// workers the balance ratio is 1 rather than a division by zero.
func workloadStats(workload map[string]int) models.WorkloadStats {
	stats := models.WorkloadStats{Workers: len(workload), BalanceRatio: 1}
	if len(workload) == 0 {
		return stats
	}

	first := true
	total := 0
	for _, days := range workload {
		total += days
		if first {
			stats.MinWorkdays, stats.MaxWorkdays = days, days
			first = false
			continue
		}
		if days < stats.MinWorkdays {
			stats.MinWorkdays = days
		}
		if days > stats.MaxWorkdays {
			stats.MaxWorkdays = days
		}
	}
	stats.AvgWorkdays = float64(total) / float64(len(workload))
	if stats.MaxWorkdays > 0 {
		stats.BalanceRatio = float64(stats.MinWorkdays) / float64(stats.MaxWorkdays)
	}
	return stats
}
