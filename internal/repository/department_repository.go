package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/shiftwise/shiftwise-api/internal/models"
)

// DepartmentRepository reads raw department configuration documents. The
// store filters by business id only; all shape handling is downstream.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// ListByBusiness returns every department document for a business.
func (r *DepartmentRepository) ListByBusiness(ctx context.Context, businessID string) ([]models.DepartmentDocument, error) {
	const query = `SELECT id, business_id, payload, created_at, updated_at FROM departments WHERE business_id = $1 ORDER BY created_at`
	var docs []models.DepartmentDocument
	if err := r.db.SelectContext(ctx, &docs, query, businessID); err != nil {
		return nil, err
	}
	return docs, nil
}
