package dto

import (
	"github.com/shiftwise/shiftwise-api/internal/models"
)

// GenerateScheduleRequest triggers one generation cycle for a business.
// ConfirmUnderstaffed acknowledges a prior UNDERSTAFFED response and lets the
// cycle proceed with the preference-priority fill strategy.
type GenerateScheduleRequest struct {
	BusinessID          string `json:"business_id" validate:"required"`
	WeekStartDate       string `json:"week_start_date" validate:"required,datetime=2006-01-02"`
	WeekEndDate         string `json:"week_end_date" validate:"required,datetime=2006-01-02"`
	ConfirmUnderstaffed bool   `json:"confirm_understaffed"`
}

// Diagnostic is one enumerable soft finding accumulated during a cycle.
type Diagnostic struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	WorkerID string `json:"worker_id,omitempty"`
	Entity   string `json:"entity,omitempty"`
}

// Diagnostic kinds.
const (
	DiagnosticIdentityConflict = "IDENTITY_CONFLICT"
	DiagnosticDroppedRecord    = "DROPPED_RECORD"
	DiagnosticStaffingFallback = "STAFFING_FALLBACK"
	DiagnosticShapeFallback    = "SHAPE_FALLBACK"
	DiagnosticPersistFailure   = "PERSIST_FAILURE"
	DiagnosticAbsenceApplied   = "ABSENCE_APPLIED"
)

// FeasibilityReport classifies a compiled request before submission.
type FeasibilityReport struct {
	TotalRequiredStaff  int    `json:"total_required_staff"`
	AvailableWorkers    int    `json:"available_workers"`
	MinDailyRequirement int    `json:"min_daily_requirement"`
	RangeDays           int    `json:"range_days"`
	Status              string `json:"status"`
}

// Feasibility statuses.
const (
	FeasibilityOK           = "OK"
	FeasibilityUnderstaffed = "UNDERSTAFFED"
)

// GenerateScheduleResponse returns the normalised schedule with its quality
// diagnostics and every soft finding gathered along the way.
type GenerateScheduleResponse struct {
	Schedule    *models.CanonicalSchedule `json:"schedule"`
	Quality     *models.QualityReport     `json:"quality"`
	Feasibility FeasibilityReport         `json:"feasibility"`
	Diagnostics []Diagnostic              `json:"diagnostics,omitempty"`
}

// UnderstaffedDetail accompanies an UNDERSTAFFED error so the caller can build
// an actionable confirmation prompt.
type UnderstaffedDetail struct {
	MinDailyRequirement int `json:"min_daily_requirement"`
	AvailableWorkers    int `json:"available_workers"`
	TotalRequiredStaff  int `json:"total_required_staff"`
}
