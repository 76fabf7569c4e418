package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ConstraintSet is the fixed bundle of labour-rule flags sent with every
// request. Only AutoAdjustConstraints varies: it flips on when the caller
// explicitly confirms an understaffed generation.
type ConstraintSet struct {
	EnforceRestHours         bool `json:"enforce_rest_hours"`
	LimitConsecutiveDays     bool `json:"limit_consecutive_days"`
	EnsureWeeklyRest         bool `json:"ensure_weekly_rest"`
	LimitDailyHours          bool `json:"limit_daily_hours"`
	LimitWeeklyHours         bool `json:"limit_weekly_hours"`
	PrioritizePreferences    bool `json:"prioritize_preferences"`
	BalanceWorkload          bool `json:"balance_workload"`
	LimitWorkerAssignments   bool `json:"limit_employee_assignments"`
	MaxConsecutiveAssignment bool `json:"max_consecutive_assignments"`
	AutoAdjustConstraints    bool `json:"auto_adjust_constraints"`
}

// DefaultConstraintSet returns the always-on labour rules.
func DefaultConstraintSet() ConstraintSet {
	return ConstraintSet{
		EnforceRestHours:         true,
		LimitConsecutiveDays:     true,
		EnsureWeeklyRest:         true,
		LimitDailyHours:          true,
		LimitWeeklyHours:         true,
		PrioritizePreferences:    true,
		BalanceWorkload:          true,
		LimitWorkerAssignments:   true,
		MaxConsecutiveAssignment: true,
	}
}

// ScheduleConstraints is the constraint block on the outgoing wire request:
// the fixed flag set plus the reconciled absence digest.
type ScheduleConstraints struct {
	ConstraintSet
	Absences       []AbsenceDigestEntry `json:"absences,omitempty"`
	AbsenceSummary *AbsenceSummary      `json:"absence_summary,omitempty"`
}

// ScheduleRequest is the canonical compiled request submitted to the remote
// scheduling service. Built fresh per generation attempt; never persisted.
type ScheduleRequest struct {
	BusinessID          string                     `json:"business_id"`
	WeekStartDate       string                     `json:"week_start_date"`
	WeekEndDate         string                     `json:"week_end_date"`
	DepartmentStaffing  []DepartmentStaffingRule   `json:"department_staffing"`
	EmployeePreferences []EmployeePreferenceRecord `json:"employee_preferences"`
	Constraints         ScheduleConstraints        `json:"schedule_constraints"`
}

// WorkingWeekdays returns the union of configured working weekdays across all
// staffing rules, in calendar order.
func (r *ScheduleRequest) WorkingWeekdays() []string {
	enabled := make(map[string]bool)
	for _, rule := range r.DepartmentStaffing {
		for _, day := range rule.WorkingWeekdays() {
			enabled[day] = true
		}
	}
	days := make([]string, 0, len(enabled))
	for _, key := range WeekdayOrder {
		if enabled[key] {
			days = append(days, key)
		}
	}
	return days
}

// AssignedWorker identifies one worker placed on a department-day.
type AssignedWorker struct {
	WorkerID   string `json:"worker_id"`
	WorkerName string `json:"worker_name"`
}

// DepartmentAssignment is one department's staffing for a single weekday.
type DepartmentAssignment struct {
	DepartmentID    string           `json:"department_id"`
	DepartmentName  string           `json:"department_name"`
	AssignedWorkers []AssignedWorker `json:"assigned_workers"`
}

// CanonicalSchedule is the single normalised weekday-to-assignments view of a
// generated schedule, independent of the remote service's response shape.
type CanonicalSchedule struct {
	ID            string                            `json:"id"`
	BusinessID    string                            `json:"business_id"`
	WeekStartDate string                            `json:"week_start_date"`
	WeekEndDate   string                            `json:"week_end_date"`
	Days          map[string][]DepartmentAssignment `json:"schedule_data"`
	GeneratedAt   time.Time                         `json:"generated_at"`
}

// ScheduleRecord is the persisted form of a canonical schedule.
type ScheduleRecord struct {
	ID            string         `db:"id" json:"id"`
	BusinessID    string         `db:"business_id" json:"business_id"`
	WeekStartDate string         `db:"week_start_date" json:"week_start_date"`
	WeekEndDate   string         `db:"week_end_date" json:"week_end_date"`
	Payload       types.JSONText `db:"payload" json:"payload"`
	GeneratedAt   time.Time      `db:"generated_at" json:"generated_at"`
}
