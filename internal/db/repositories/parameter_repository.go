// parameter_repository.go implements ParameterRepository, the key/value store
// backing document and email templates.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/curiango/curiango/internal/db/models"
)

// ParameterRepository handles parameter store database operations
type ParameterRepository struct {
	db *sqlx.DB
}

// NewParameterRepository creates a new ParameterRepository
func NewParameterRepository(db *sqlx.DB) *ParameterRepository {
	return &ParameterRepository{db: db}
}

// GetByKey retrieves an active parameter by key. Returns nil when the key is
// absent or inactive, so callers can fall back to built-in defaults.
func (r *ParameterRepository) GetByKey(ctx context.Context, key string) (*models.Parameter, error) {
	var param models.Parameter
	query := `SELECT * FROM parameters WHERE key = $1 AND active = TRUE`
	err := r.db.GetContext(ctx, &param, query, key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &param, nil
}

// List retrieves all parameters ordered by key
func (r *ParameterRepository) List(ctx context.Context) ([]*models.Parameter, error) {
	var params []*models.Parameter
	query := `SELECT * FROM parameters ORDER BY key`
	err := r.db.SelectContext(ctx, &params, query)
	return params, err
}

// Upsert creates or replaces a parameter by key
func (r *ParameterRepository) Upsert(ctx context.Context, p *models.Parameter) error {
	query := `
		INSERT INTO parameters (key, value, kind, description, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			value = $2, kind = $3, description = $4, active = $5, updated_at = $6
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query,
		p.Key, p.Value, p.Kind, p.Description, p.Active, time.Now(),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// SeedDefaults inserts the given parameters where the key does not exist yet.
// Existing values, including operator-edited templates, are left untouched.
func (r *ParameterRepository) SeedDefaults(ctx context.Context, defaults []models.Parameter) error {
	query := `
		INSERT INTO parameters (key, value, kind, description, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO NOTHING
	`
	for _, p := range defaults {
		if _, err := r.db.ExecContext(ctx, query, p.Key, p.Value, p.Kind, p.Description, p.Active); err != nil {
			return err
		}
	}
	return nil
}
