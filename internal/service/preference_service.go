package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/shiftwise/shiftwise-api/internal/dto"
	"github.com/shiftwise/shiftwise-api/internal/models"
)

// PreferenceService resolves worker identity, deduplicates and scores raw
// preference documents into canonical records.
type PreferenceService struct {
	logger *zap.Logger
}

// NewPreferenceService constructs the aggregator.
func NewPreferenceService(logger *zap.Logger) *PreferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{logger: logger}
}

// rawPreference tolerates the historical preference payload shapes. Identity
// may live under employee_id, worker_id or id; daily selections under
// daily_preferences or preferences.
type rawPreference struct {
	EmployeeID       string                          `json:"employee_id"`
	WorkerID         string                          `json:"worker_id"`
	ID               string                          `json:"id"`
	EmployeeName     string                          `json:"employee_name"`
	Name             string                          `json:"name"`
	Email            string                          `json:"email"`
	DepartmentID     string                          `json:"department_id"`
	DailyPreferences map[string]models.DayPreference `json:"daily_preferences"`
	Preferences      map[string]models.DayPreference `json:"preferences"`
	PreferredHours   []string                        `json:"preferred_work_hours"`
	MinWorkHours     int                             `json:"min_work_hours"`
	MaxWorkHours     int                             `json:"max_work_hours"`
}

// ResolveIdentity returns the stable worker id for a raw record, trying
// employee_id, then worker_id, then the record's own id. The second return
// is false when no identity can be resolved.
func ResolveIdentity(employeeID, workerID, recordID string) (string, bool) {
	for _, candidate := range []string{employeeID, workerID, recordID} {
		if v := strings.TrimSpace(candidate); v != "" {
			return v, true
		}
	}
	return "", false
}

// resolveDisplayName picks a human-readable name: profile name, then the
// email local part, then a synthetic label from the identity tail.
func resolveDisplayName(name, email, workerID string) string {
	if v := strings.TrimSpace(name); v != "" {
		return v
	}
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	tail := workerID
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return "Employee_" + tail
}

// Aggregate resolves, deduplicates and scores preference documents. The
// first record wins on identity collision; later duplicates and records with
// no resolvable identity are dropped with enumerable diagnostics.
func (s *PreferenceService) Aggregate(businessID string, docs []models.PreferenceDocument) ([]models.EmployeePreferenceRecord, []dto.Diagnostic) {
	records := make([]models.EmployeePreferenceRecord, 0, len(docs))
	var diagnostics []dto.Diagnostic
	seen := make(map[string]bool, len(docs))

	for _, doc := range docs {
		var raw rawPreference
		if err := json.Unmarshal(doc.Payload, &raw); err != nil {
			s.logger.Warn("dropping undecodable preference document",
				zap.String("business_id", businessID),
				zap.String("document_id", doc.ID),
				zap.Error(err))
			diagnostics = append(diagnostics, dto.Diagnostic{
				Kind:    dto.DiagnosticDroppedRecord,
				Message: fmt.Sprintf("preference document %s has an undecodable payload", doc.ID),
				Entity:  doc.ID,
			})
			continue
		}

		workerID, ok := ResolveIdentity(raw.EmployeeID, raw.WorkerID, firstNonEmpty(raw.ID, doc.ID))
		if !ok {
			s.logger.Warn("dropping preference record with no resolvable identity",
				zap.String("business_id", businessID),
				zap.String("document_id", doc.ID))
			diagnostics = append(diagnostics, dto.Diagnostic{
				Kind:    dto.DiagnosticDroppedRecord,
				Message: fmt.Sprintf("preference document %s has no resolvable worker identity", doc.ID),
				Entity:  doc.ID,
			})
			continue
		}

		if seen[workerID] {
			s.logger.Warn("dropping duplicate preference record",
				zap.String("business_id", businessID),
				zap.String("worker_id", workerID))
			diagnostics = append(diagnostics, dto.Diagnostic{
				Kind:     dto.DiagnosticIdentityConflict,
				Message:  fmt.Sprintf("worker %s already has a preference record, keeping the first", workerID),
				WorkerID: workerID,
				Entity:   doc.ID,
			})
			continue
		}
		seen[workerID] = true

		daily := raw.DailyPreferences
		if len(daily) == 0 {
			daily = raw.Preferences
		}

		record := models.EmployeePreferenceRecord{
			WorkerID:           workerID,
			EmployeeName:       resolveDisplayName(firstNonEmpty(raw.EmployeeName, raw.Name), raw.Email, workerID),
			BusinessID:         businessID,
			DepartmentID:       raw.DepartmentID,
			DailyPreferences:   daily,
			PreferredWorkHours: raw.PreferredHours,
			MinWorkHours:       raw.MinWorkHours,
			MaxWorkHours:       raw.MaxWorkHours,
		}
		s.score(&record)
		records = append(records, record)
	}
	return records, diagnostics
}

// score derives preference_score, availability_score and priority_level from
// the worker's daily selections.
func (s *PreferenceService) score(record *models.EmployeePreferenceRecord) {
	days := make([]string, 0, len(record.DailyPreferences))
	departments := make(map[string]bool)
	for day, pref := range record.DailyPreferences {
		if !models.IsWeekdayKey(day) || len(pref.SelectedDepartments) == 0 {
			continue
		}
		days = append(days, day)
		for _, dept := range pref.SelectedDepartments {
			departments[dept] = true
		}
	}
	sort.Slice(days, func(i, j int) bool {
		return models.WeekdayIndex(days[i]) < models.WeekdayIndex(days[j])
	})

	deptList := make([]string, 0, len(departments))
	for dept := range departments {
		deptList = append(deptList, dept)
	}
	sort.Strings(deptList)

	record.PreferredWorkDays = days
	record.PreferredDepartments = deptList
	record.PreferenceScore = 2*len(days) + 3*len(deptList)
	record.AvailabilityScore = record.PreferenceScore
	if record.AvailabilityScore > 10 {
		record.AvailabilityScore = 10
	}
	record.PriorityLevel = availabilityPriority(record.AvailabilityScore)
}

func availabilityPriority(score int) int {
	switch {
	case score >= 8:
		return 1
	case score >= 5:
		return 2
	default:
		return 3
	}
}
