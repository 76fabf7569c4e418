package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// PreferenceDocument is a raw employee preference row from the document store.
type PreferenceDocument struct {
	ID         string         `db:"id" json:"id"`
	BusinessID string         `db:"business_id" json:"business_id"`
	Payload    types.JSONText `db:"payload" json:"payload"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// DayPreference holds a worker's selections for one weekday.
type DayPreference struct {
	SelectedDepartments []string `json:"selected_departments"`
}

// EmployeePreferenceRecord is the canonical, scored preference entry for one
// worker. WorkerID is the deduplication key and is unique within a compiled
// request.
type EmployeePreferenceRecord struct {
	WorkerID             string                   `json:"worker_id"`
	EmployeeName         string                   `json:"employee_name"`
	BusinessID           string                   `json:"business_id"`
	DepartmentID         string                   `json:"department_id"`
	DailyPreferences     map[string]DayPreference `json:"daily_preferences,omitempty"`
	PreferredWorkDays    []string                 `json:"preferred_work_days"`
	PreferredDepartments []string                 `json:"preferred_departments"`
	PreferredWorkHours   []string                 `json:"preferred_work_hours"`
	MinWorkHours         int                      `json:"min_work_hours"`
	MaxWorkHours         int                      `json:"max_work_hours"`
	PreferenceScore      int                      `json:"preference_score"`
	AvailabilityScore    int                      `json:"availability_score"`
	PriorityLevel        int                      `json:"priority_level"`
	UnavailableDates     []string                 `json:"unavailable_dates,omitempty"`
}
