package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// DepartmentDocument is a raw department configuration row as stored by the
// external document store. The payload carries whatever shape the business
// app last wrote; normalisation happens downstream.
type DepartmentDocument struct {
	ID         string         `db:"id" json:"id"`
	BusinessID string         `db:"business_id" json:"business_id"`
	Payload    types.JSONText `db:"payload" json:"payload"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// DepartmentStaffingRule is the canonical per-department staffing requirement.
// WorkWindows maps weekday keys to "HH:MM-HH:MM" ranges; a weekday absent from
// the map is a non-working day.
type DepartmentStaffingRule struct {
	BusinessID         string              `json:"business_id"`
	DepartmentID       string              `json:"department_id"`
	DepartmentName     string              `json:"department_name"`
	RequiredStaffCount int                 `json:"required_staff_count"`
	WorkWindows        map[string][]string `json:"work_hours"`
	PriorityLevel      int                 `json:"priority_level"`
}

// WorkingWeekdays returns the rule's enabled weekday keys in calendar order.
func (r DepartmentStaffingRule) WorkingWeekdays() []string {
	days := make([]string, 0, len(r.WorkWindows))
	for _, key := range WeekdayOrder {
		if windows, ok := r.WorkWindows[key]; ok && len(windows) > 0 {
			days = append(days, key)
		}
	}
	return days
}
