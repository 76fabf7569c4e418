package service

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/shiftwise/shiftwise-api/internal/dto"
	"github.com/shiftwise/shiftwise-api/internal/models"
)

// AbsenceService filters confirmed absences to a request's date range and
// demotes affected preference records.
type AbsenceService struct {
	logger *zap.Logger
}

// NewAbsenceService constructs the reconciler.
func NewAbsenceService(logger *zap.Logger) *AbsenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbsenceService{logger: logger}
}

// FilterConfirmed keeps confirmed events whose date lies inside
// [startDate, endDate] inclusive. Events with an unparsable date are skipped.
func (s *AbsenceService) FilterConfirmed(events []models.AbsenceEvent, startDate, endDate string) []models.AbsenceEvent {
	start, errStart := time.Parse(models.DateLayout, startDate)
	end, errEnd := time.Parse(models.DateLayout, endDate)
	if errStart != nil || errEnd != nil {
		return nil
	}

	var inRange []models.AbsenceEvent
	for _, event := range events {
		if event.Status != models.AbsenceStatusConfirmed {
			continue
		}
		date, err := time.Parse(models.DateLayout, event.Date)
		if err != nil {
			s.logger.Warn("skipping absence with unparsable date",
				zap.String("absence_id", event.ID),
				zap.String("date", event.Date))
			continue
		}
		if date.Before(start) || date.After(end) {
			continue
		}
		inRange = append(inRange, event)
	}
	return inRange
}

// Reconcile applies in-range confirmed absences to the preference records in
// place: each absence day joins the worker's unavailable_dates and costs 2
// availability points, floored at 1. Returns the digest for the constraint
// block plus one diagnostic per affected worker.
func (s *AbsenceService) Reconcile(records []models.EmployeePreferenceRecord, absences []models.AbsenceEvent) ([]models.EmployeePreferenceRecord, models.AbsenceDigest, []dto.Diagnostic) {
	byWorker := make(map[string][]models.AbsenceEvent)
	for _, event := range absences {
		byWorker[event.WorkerID] = append(byWorker[event.WorkerID], event)
	}

	var diagnostics []dto.Diagnostic
	adjusted := make([]models.EmployeePreferenceRecord, len(records))
	for i, record := range records {
		adjusted[i] = record
		events, ok := byWorker[record.WorkerID]
		if !ok {
			continue
		}

		dates := append([]string(nil), record.UnavailableDates...)
		known := make(map[string]bool, len(dates))
		for _, d := range dates {
			known[d] = true
		}
		added := 0
		for _, event := range events {
			if known[event.Date] {
				continue
			}
			known[event.Date] = true
			dates = append(dates, event.Date)
			added++
		}
		sort.Strings(dates)

		score := record.AvailabilityScore - 2*added
		if score < 1 {
			score = 1
		}
		adjusted[i].UnavailableDates = dates
		adjusted[i].AvailabilityScore = score
		adjusted[i].PriorityLevel = availabilityPriority(score)

		s.logger.Info("applied confirmed absences to preference record",
			zap.String("worker_id", record.WorkerID),
			zap.Int("absence_days", added),
			zap.Int("availability_score", score))
		diagnostics = append(diagnostics, dto.Diagnostic{
			Kind:     dto.DiagnosticAbsenceApplied,
			Message:  fmt.Sprintf("worker %s is unavailable on %d day(s) in range", record.WorkerID, added),
			WorkerID: record.WorkerID,
		})
	}

	return adjusted, s.buildDigest(absences), diagnostics
}

// buildDigest groups in-range absences by date and computes the aggregate
// summary used by the outgoing constraint block.
func (s *AbsenceService) buildDigest(absences []models.AbsenceEvent) models.AbsenceDigest {
	byDate := make(map[string][]models.AbsenceEvent)
	workers := make(map[string]bool)
	for _, event := range absences {
		byDate[event.Date] = append(byDate[event.Date], event)
		workers[event.WorkerID] = true
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	entries := make([]models.AbsenceDigestEntry, 0, len(dates))
	for _, date := range dates {
		events := byDate[date]
		entry := models.AbsenceDigestEntry{
			Date:             date,
			TotalUnavailable: len(events),
		}
		for _, event := range events {
			entry.UnavailableWorkers = append(entry.UnavailableWorkers, event.WorkerID)
			reason := event.Reason
			if reason == "" {
				reason = "unspecified"
			}
			entry.Reasons = append(entry.Reasons, reason)
		}
		entries = append(entries, entry)
	}

	affected := make([]string, 0, len(workers))
	for id := range workers {
		affected = append(affected, id)
	}
	sort.Strings(affected)

	summary := models.AbsenceSummary{
		TotalAbsenceDays:      len(dates),
		TotalAbsenceInstances: len(absences),
		AffectedWorkers:       affected,
	}
	if len(dates) > 0 {
		summary.SpanStart = dates[0]
		summary.SpanEnd = dates[len(dates)-1]
	}

	return models.AbsenceDigest{Entries: entries, Summary: summary}
}
