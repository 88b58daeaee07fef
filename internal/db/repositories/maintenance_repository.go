// maintenance_repository.go implements MaintenanceRepository, providing database
// queries for asset service events.
package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/curiango/curiango/internal/db/models"
)

// MaintenanceRepository handles maintenance event database operations
type MaintenanceRepository struct {
	db *sqlx.DB
}

// NewMaintenanceRepository creates a new MaintenanceRepository
func NewMaintenanceRepository(db *sqlx.DB) *MaintenanceRepository {
	return &MaintenanceRepository{db: db}
}

// Create records a new maintenance event
func (r *MaintenanceRepository) Create(ctx context.Context, m *models.Maintenance) error {
	query := `
		INSERT INTO maintenances (asset_id, kind, description, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query, m.AssetID, m.Kind, m.Description, m.Notes).
		Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
}

// ListForAsset retrieves all maintenance events for an asset, newest first
func (r *MaintenanceRepository) ListForAsset(ctx context.Context, assetID int) ([]*models.Maintenance, error) {
	var events []*models.Maintenance
	query := `SELECT * FROM maintenances WHERE asset_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &events, query, assetID)
	return events, err
}
