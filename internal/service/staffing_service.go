package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/shiftwise/shiftwise-api/internal/dto"
	"github.com/shiftwise/shiftwise-api/internal/models"
)

// DefaultWorkWindow is applied when a weekday is enabled without explicit
// hours, and to every fallback weekday.
const DefaultWorkWindow = "09:00-18:00"

var fallbackWeekdays = []string{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday}

// StaffingService canonicalises per-department work-day configuration
// regardless of the shape the business app stored it in.
type StaffingService struct {
	logger *zap.Logger
}

// NewStaffingService constructs the normaliser.
func NewStaffingService(logger *zap.Logger) *StaffingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffingService{logger: logger}
}

// rawDepartment tolerates the known historical payload shapes. Weekday values
// in work_hours may be a bare boolean, an {enabled,start_time,end_time}
// object, or an already-converted list of "HH:MM-HH:MM" strings.
type rawDepartment struct {
	DepartmentID       string                     `json:"department_id"`
	ID                 string                     `json:"id"`
	DepartmentName     string                     `json:"department_name"`
	Name               string                     `json:"name"`
	RequiredStaffCount int                        `json:"required_staff_count"`
	StaffCount         int                        `json:"staff_count"`
	WorkHours          map[string]json.RawMessage `json:"work_hours"`
}

type rawDayConfig struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// NormalizeAll converts raw department documents into canonical staffing
// rules. Departments whose payload cannot be decoded are dropped with an
// enumerable diagnostic rather than failing the cycle.
func (s *StaffingService) NormalizeAll(businessID string, docs []models.DepartmentDocument) ([]models.DepartmentStaffingRule, []dto.Diagnostic) {
	rules := make([]models.DepartmentStaffingRule, 0, len(docs))
	var diagnostics []dto.Diagnostic

	for _, doc := range docs {
		rule, diag, ok := s.normalize(businessID, doc)
		if !ok {
			diagnostics = append(diagnostics, *diag)
			continue
		}
		if diag != nil {
			diagnostics = append(diagnostics, *diag)
		}
		rules = append(rules, rule)
	}
	return rules, diagnostics
}

func (s *StaffingService) normalize(businessID string, doc models.DepartmentDocument) (models.DepartmentStaffingRule, *dto.Diagnostic, bool) {
	var raw rawDepartment
	if err := json.Unmarshal(doc.Payload, &raw); err != nil {
		s.logger.Warn("dropping undecodable department document",
			zap.String("business_id", businessID),
			zap.String("document_id", doc.ID),
			zap.Error(err))
		return models.DepartmentStaffingRule{}, &dto.Diagnostic{
			Kind:    dto.DiagnosticDroppedRecord,
			Message: fmt.Sprintf("department document %s has an undecodable payload", doc.ID),
			Entity:  doc.ID,
		}, false
	}

	required := raw.RequiredStaffCount
	if required < 1 {
		required = raw.StaffCount
	}
	if required < 1 {
		required = 1
	}

	rule := models.DepartmentStaffingRule{
		BusinessID:         businessID,
		DepartmentID:       firstNonEmpty(raw.DepartmentID, raw.ID, doc.ID),
		DepartmentName:     firstNonEmpty(raw.DepartmentName, raw.Name, "General"),
		RequiredStaffCount: required,
		WorkWindows:        s.normalizeWindows(raw.WorkHours),
		PriorityLevel:      staffingPriority(required),
	}

	var diag *dto.Diagnostic
	if len(rule.WorkWindows) == 0 {
		// A department with no enabled weekday gets an explicit Mon-Fri
		// default; it must never silently become a 7-day operation.
		rule.WorkWindows = make(map[string][]string, len(fallbackWeekdays))
		for _, day := range fallbackWeekdays {
			rule.WorkWindows[day] = []string{DefaultWorkWindow}
		}
		s.logger.Warn("department has no enabled work days, applying weekday fallback",
			zap.String("business_id", businessID),
			zap.String("department_id", rule.DepartmentID),
			zap.String("department_name", rule.DepartmentName))
		diag = &dto.Diagnostic{
			Kind:    dto.DiagnosticStaffingFallback,
			Message: fmt.Sprintf("department %q has no work days configured, defaulted to Mon-Fri %s", rule.DepartmentName, DefaultWorkWindow),
			Entity:  rule.DepartmentID,
		}
	}

	return rule, diag, true
}

// normalizeWindows keeps only explicitly enabled weekdays. Disabled or absent
// weekdays are omitted from the map entirely.
func (s *StaffingService) normalizeWindows(workHours map[string]json.RawMessage) map[string][]string {
	windows := make(map[string][]string)
	for day, rawCfg := range workHours {
		if !models.IsWeekdayKey(day) {
			continue
		}

		var enabled bool
		if err := json.Unmarshal(rawCfg, &enabled); err == nil {
			if enabled {
				windows[day] = []string{DefaultWorkWindow}
			}
			continue
		}

		var cfg rawDayConfig
		if err := json.Unmarshal(rawCfg, &cfg); err == nil && (cfg.Enabled || cfg.StartTime != "") {
			if !cfg.Enabled {
				continue
			}
			start := firstNonEmpty(cfg.StartTime, "09:00")
			end := firstNonEmpty(cfg.EndTime, "18:00")
			windows[day] = []string{fmt.Sprintf("%s-%s", start, end)}
			continue
		}

		var ranges []string
		if err := json.Unmarshal(rawCfg, &ranges); err == nil && len(ranges) > 0 {
			kept := ranges[:0]
			for _, r := range ranges {
				if strings.Contains(r, "-") {
					kept = append(kept, r)
				}
			}
			if len(kept) > 0 {
				windows[day] = kept
			}
		}
	}
	return windows
}

func staffingPriority(required int) int {
	switch {
	case required >= 3:
		return 1
	case required >= 2:
		return 2
	default:
		return 3
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
