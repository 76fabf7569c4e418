package models

import "time"

// Absence statuses as reported by the booking flow. Only confirmed events
// participate in schedule compilation.
const (
	AbsenceStatusPending   = "pending"
	AbsenceStatusConfirmed = "confirmed"
	AbsenceStatusCancelled = "cancelled"
)

// AbsenceEvent is a reported worker absence.
type AbsenceEvent struct {
	ID         string    `db:"id" json:"id"`
	BusinessID string    `db:"business_id" json:"business_id"`
	WorkerID   string    `db:"worker_id" json:"worker_id"`
	WorkerName string    `db:"worker_name" json:"worker_name"`
	Date       string    `db:"date" json:"date"`
	Reason     string    `db:"reason" json:"reason"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AbsenceDigestEntry aggregates the confirmed absences for one date.
type AbsenceDigestEntry struct {
	Date               string   `json:"date"`
	UnavailableWorkers []string `json:"unavailable_employees"`
	TotalUnavailable   int      `json:"total_unavailable"`
	Reasons            []string `json:"reasons"`
}

// AbsenceSummary carries request-level absence totals.
type AbsenceSummary struct {
	TotalAbsenceDays      int      `json:"total_absence_days"`
	TotalAbsenceInstances int      `json:"total_absence_instances"`
	AffectedWorkers       []string `json:"affected_employees"`
	SpanStart             string   `json:"span_start,omitempty"`
	SpanEnd               string   `json:"span_end,omitempty"`
}

// AbsenceDigest is the date-indexed summary of confirmed absences inside a
// request's range, ready for the outgoing constraint block.
type AbsenceDigest struct {
	Entries []AbsenceDigestEntry `json:"absences,omitempty"`
	Summary AbsenceSummary       `json:"absence_summary"`
}
