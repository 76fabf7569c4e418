package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/shiftwise/shiftwise-api/internal/models"
)

// AbsenceRepository reads reported absence events. Status and date-range
// filtering are deliberately not pushed into the store: the reconciler owns
// both, matching the document-store contract of business-id-only filtering.
type AbsenceRepository struct {
	db *sqlx.DB
}

// NewAbsenceRepository constructs the repository.
func NewAbsenceRepository(db *sqlx.DB) *AbsenceRepository {
	return &AbsenceRepository{db: db}
}

// ListByBusiness returns every absence event for a business.
func (r *AbsenceRepository) ListByBusiness(ctx context.Context, businessID string) ([]models.AbsenceEvent, error) {
	const query = `SELECT id, business_id, worker_id, worker_name, date, reason, status, created_at FROM absences WHERE business_id = $1 ORDER BY date`
	var events []models.AbsenceEvent
	if err := r.db.SelectContext(ctx, &events, query, businessID); err != nil {
		return nil, err
	}
	return events, nil
}
