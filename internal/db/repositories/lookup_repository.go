// lookup_repository.go implements LookupRepository for the simple reference
// tables: business units, brands, and carriers.
package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/curiango/curiango/internal/db/models"
)

// LookupRepository handles reference table queries
type LookupRepository struct {
	db *sqlx.DB
}

// NewLookupRepository creates a new LookupRepository
func NewLookupRepository(db *sqlx.DB) *LookupRepository {
	return &LookupRepository{db: db}
}

// ListBusinessUnits retrieves active business units ordered by name
func (r *LookupRepository) ListBusinessUnits(ctx context.Context) ([]*models.BusinessUnit, error) {
	var units []*models.BusinessUnit
	query := `SELECT * FROM business_units WHERE active = TRUE ORDER BY name`
	err := r.db.SelectContext(ctx, &units, query)
	return units, err
}

// ListBrands retrieves all brands ordered by name
func (r *LookupRepository) ListBrands(ctx context.Context) ([]*models.Brand, error) {
	var brands []*models.Brand
	query := `SELECT * FROM brands ORDER BY name`
	err := r.db.SelectContext(ctx, &brands, query)
	return brands, err
}

// ListCarriers retrieves all carriers ordered by name
func (r *LookupRepository) ListCarriers(ctx context.Context) ([]*models.Carrier, error) {
	var carriers []*models.Carrier
	query := `SELECT * FROM carriers ORDER BY name`
	err := r.db.SelectContext(ctx, &carriers, query)
	return carriers, err
}
