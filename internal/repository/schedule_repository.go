package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/shiftwise/shiftwise-api/internal/models"
)

// ScheduleRepository persists canonical schedules after normalisation.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Insert stores a canonical schedule as a payload row.
func (r *ScheduleRepository) Insert(ctx context.Context, schedule *models.CanonicalSchedule) error {
	payload, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("encode canonical schedule: %w", err)
	}

	rec := models.ScheduleRecord{
		ID:            schedule.ID,
		BusinessID:    schedule.BusinessID,
		WeekStartDate: schedule.WeekStartDate,
		WeekEndDate:   schedule.WeekEndDate,
		Payload:       types.JSONText(payload),
		GeneratedAt:   schedule.GeneratedAt,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.GeneratedAt.IsZero() {
		rec.GeneratedAt = time.Now().UTC()
	}

	const query = `INSERT INTO schedules (id, business_id, week_start_date, week_end_date, payload, generated_at)
		VALUES (:id, :business_id, :week_start_date, :week_end_date, :payload, :generated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// ListCurrent returns schedules for a business whose end date has not passed,
// newest first. fromDate is inclusive, formatted per models.DateLayout.
func (r *ScheduleRepository) ListCurrent(ctx context.Context, businessID, fromDate string) ([]models.ScheduleRecord, error) {
	const query = `SELECT id, business_id, week_start_date, week_end_date, payload, generated_at
		FROM schedules WHERE business_id = $1 AND week_end_date >= $2 ORDER BY generated_at DESC`
	var records []models.ScheduleRecord
	if err := r.db.SelectContext(ctx, &records, query, businessID, fromDate); err != nil {
		return nil, err
	}
	return records, nil
}
