package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/shiftwise/shiftwise-api/internal/models"
)

// PreferenceRepository reads raw employee preference documents for a business.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs the repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// ListByBusiness returns every preference document for a business.
func (r *PreferenceRepository) ListByBusiness(ctx context.Context, businessID string) ([]models.PreferenceDocument, error) {
	const query = `SELECT id, business_id, payload, created_at, updated_at FROM employee_preferences WHERE business_id = $1 ORDER BY created_at`
	var docs []models.PreferenceDocument
	if err := r.db.SelectContext(ctx, &docs, query, businessID); err != nil {
		return nil, err
	}
	return docs, nil
}
