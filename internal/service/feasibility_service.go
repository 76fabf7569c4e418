package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shiftwise/shiftwise-api/internal/dto"
	"github.com/shiftwise/shiftwise-api/internal/models"
	"github.com/shiftwise/shiftwise-api/pkg/errors"
)

// FeasibilityService compares required against available staffing and
// classifies a compiled request before submission.
type FeasibilityService struct {
	logger *zap.Logger
}

// NewFeasibilityService constructs the validator.
func NewFeasibilityService(logger *zap.Logger) *FeasibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeasibilityService{logger: logger}
}

// ValidateRange checks the date range itself: both bounds present and
// parsable, start not after end, start not in the past. Returns the parsed
// bounds on success.
func (s *FeasibilityService) ValidateRange(startDate, endDate string, now time.Time) (time.Time, time.Time, error) {
	start, err := time.Parse(models.DateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Clone(errors.ErrValidation, fmt.Sprintf("invalid week_start_date %q", startDate))
	}
	end, err := time.Parse(models.DateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Clone(errors.ErrValidation, fmt.Sprintf("invalid week_end_date %q", endDate))
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, errors.Clone(errors.ErrValidation, "week_start_date is after week_end_date")
	}
	today, _ := time.Parse(models.DateLayout, now.Format(models.DateLayout))
	if start.Before(today) {
		return time.Time{}, time.Time{}, errors.Clone(errors.ErrValidation, "week_start_date is in the past")
	}
	return start, end, nil
}

// Assess computes the staffing shortfall report. Hard validation failures
// (empty staffing, no resolvable workers) return a ValidationError; an
// understaffed result is reported in the Status field, never as an error.
func (s *FeasibilityService) Assess(businessID string, start, end time.Time, rules []models.DepartmentStaffingRule, records []models.EmployeePreferenceRecord) (dto.FeasibilityReport, error) {
	if businessID == "" {
		return dto.FeasibilityReport{}, errors.Clone(errors.ErrValidation, "business_id is required")
	}
	if len(rules) == 0 {
		return dto.FeasibilityReport{}, errors.Clone(errors.ErrValidation, "no department staffing rules configured")
	}
	if len(records) == 0 {
		return dto.FeasibilityReport{}, errors.Clone(errors.ErrValidation, "no employee preference records available")
	}

	rangeDays := int(end.Sub(start).Hours()/24) + 1
	totalRequired := 0
	for _, rule := range rules {
		totalRequired += rule.RequiredStaffCount * workingDaysInRange(rule, start, end)
	}

	minDaily := (totalRequired + rangeDays - 1) / rangeDays

	report := dto.FeasibilityReport{
		TotalRequiredStaff:  totalRequired,
		AvailableWorkers:    len(records),
		MinDailyRequirement: minDaily,
		RangeDays:           rangeDays,
		Status:              dto.FeasibilityOK,
	}
	if report.AvailableWorkers < minDaily {
		report.Status = dto.FeasibilityUnderstaffed
		s.logger.Warn("compiled request is understaffed",
			zap.String("business_id", businessID),
			zap.Int("available_workers", report.AvailableWorkers),
			zap.Int("min_daily_requirement", minDaily),
			zap.Int("total_required_staff", totalRequired))
	}
	return report, nil
}

// workingDaysInRange counts the days of [start, end] that fall on a weekday
// the rule has enabled.
func workingDaysInRange(rule models.DepartmentStaffingRule, start, end time.Time) int {
	enabled := make(map[string]bool)
	for _, day := range rule.WorkingWeekdays() {
		enabled[day] = true
	}
	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if enabled[models.WeekdayKey(d)] {
			count++
		}
	}
	return count
}
