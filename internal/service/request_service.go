package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/shiftwise/shiftwise-api/internal/dto"
	"github.com/shiftwise/shiftwise-api/internal/models"
	"github.com/shiftwise/shiftwise-api/pkg/errors"
)

// RequestService merges normalised staffing, absence-adjusted preferences and
// the absence digest into one canonical schedule request.
type RequestService struct {
	logger *zap.Logger
}

// NewRequestService constructs the assembler.
func NewRequestService(logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{logger: logger}
}

// Assemble performs final structural validation and builds the outgoing
// request. Preference entries lacking a worker id are dropped with a warning;
// a missing department id falls back to the first staffing department. If
// dropping empties the preference list the assembly hard-aborts.
func (s *RequestService) Assemble(businessID, startDate, endDate string, rules []models.DepartmentStaffingRule, records []models.EmployeePreferenceRecord, digest models.AbsenceDigest, autoAdjust bool) (*models.ScheduleRequest, []dto.Diagnostic, error) {
	if businessID == "" {
		return nil, nil, errors.Clone(errors.ErrValidation, "business_id is required")
	}
	if len(rules) == 0 {
		return nil, nil, errors.Clone(errors.ErrValidation, "no department staffing rules configured")
	}

	fallbackDept := rules[0].DepartmentID
	var diagnostics []dto.Diagnostic
	kept := make([]models.EmployeePreferenceRecord, 0, len(records))
	for _, record := range records {
		if record.WorkerID == "" {
			s.logger.Warn("dropping preference entry without worker id",
				zap.String("business_id", businessID),
				zap.String("employee_name", record.EmployeeName))
			diagnostics = append(diagnostics, dto.Diagnostic{
				Kind:    dto.DiagnosticDroppedRecord,
				Message: fmt.Sprintf("preference entry for %q has no worker id", record.EmployeeName),
			})
			continue
		}
		if record.DepartmentID == "" {
			record.DepartmentID = fallbackDept
		}
		kept = append(kept, record)
	}
	if len(kept) == 0 {
		return nil, diagnostics, errors.Clone(errors.ErrValidation, "no usable employee preference records after filtering")
	}

	constraints := models.ScheduleConstraints{
		ConstraintSet:  models.DefaultConstraintSet(),
		Absences:       digest.Entries,
		AbsenceSummary: &digest.Summary,
	}
	constraints.AutoAdjustConstraints = autoAdjust
	if digest.Summary.TotalAbsenceInstances == 0 {
		constraints.Absences = nil
		constraints.AbsenceSummary = nil
	}

	request := &models.ScheduleRequest{
		BusinessID:          businessID,
		WeekStartDate:       startDate,
		WeekEndDate:         endDate,
		DepartmentStaffing:  rules,
		EmployeePreferences: kept,
		Constraints:         constraints,
	}

	s.logger.Info("assembled schedule request",
		zap.String("business_id", businessID),
		zap.String("week_start_date", startDate),
		zap.String("week_end_date", endDate),
		zap.Int("departments", len(rules)),
		zap.Int("employees", len(kept)),
		zap.Int("absence_entries", len(digest.Entries)))

	return request, diagnostics, nil
}
