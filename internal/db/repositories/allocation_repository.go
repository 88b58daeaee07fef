// allocation_repository.go implements AllocationRepository, providing database
// queries for asset custody periods. Methods that run during the allocation
// workflow accept a DBTX so they participate in the engine's transaction.
package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/curiango/curiango/internal/db/models"
)

// AllocationRepository handles allocation database operations
type AllocationRepository struct {
	db *sql.DB
}

// NewAllocationRepository creates a new AllocationRepository
func NewAllocationRepository(db *sql.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

const allocationColumns = `id, asset_id, employee_id, started_at, ended_at, reason, document_generated, created_at`

// GetOpenForAsset retrieves the open allocation for an asset, or nil when the
// asset is unallocated. The partial unique index guarantees at most one row.
func (r *AllocationRepository) GetOpenForAsset(ctx context.Context, q DBTX, assetID int) (*models.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE asset_id = $1 AND ended_at IS NULL`

	alloc := &models.Allocation{}
	err := q.QueryRowContext(ctx, query, assetID).Scan(
		&alloc.ID, &alloc.AssetID, &alloc.EmployeeID, &alloc.StartedAt,
		&alloc.EndedAt, &alloc.Reason, &alloc.DocumentGenerated, &alloc.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return alloc, nil
}

// Create inserts a new open allocation
func (r *AllocationRepository) Create(ctx context.Context, q DBTX, alloc *models.Allocation) error {
	query := `
		INSERT INTO allocations (asset_id, employee_id, started_at, reason, document_generated)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	return q.QueryRowContext(ctx, query,
		alloc.AssetID, alloc.EmployeeID, alloc.StartedAt, alloc.Reason, alloc.DocumentGenerated,
	).Scan(&alloc.ID, &alloc.CreatedAt)
}

// Close stamps the allocation's end time
func (r *AllocationRepository) Close(ctx context.Context, q DBTX, id int, endedAt time.Time) error {
	_, err := q.ExecContext(ctx,
		`UPDATE allocations SET ended_at = $2 WHERE id = $1`, id, endedAt)
	return err
}

// SetDocumentGenerated flips the responsibility document flag
func (r *AllocationRepository) SetDocumentGenerated(ctx context.Context, q DBTX, id int, generated bool) error {
	_, err := q.ExecContext(ctx,
		`UPDATE allocations SET document_generated = $2 WHERE id = $1`, id, generated)
	return err
}

// ListForAsset retrieves all custody periods of an asset with the custodian's
// name joined in, newest first
func (r *AllocationRepository) ListForAsset(ctx context.Context, assetID int) ([]*models.Allocation, error) {
	query := `
		SELECT a.id, a.asset_id, a.employee_id, a.started_at, a.ended_at, a.reason, a.document_generated, a.created_at, e.name
		FROM allocations a
		JOIN employees e ON e.id = a.employee_id
		WHERE a.asset_id = $1
		ORDER BY a.started_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	allocations := make([]*models.Allocation, 0)
	for rows.Next() {
		alloc := &models.Allocation{}
		err := rows.Scan(
			&alloc.ID, &alloc.AssetID, &alloc.EmployeeID, &alloc.StartedAt,
			&alloc.EndedAt, &alloc.Reason, &alloc.DocumentGenerated, &alloc.CreatedAt,
			&alloc.EmployeeName,
		)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}

	return allocations, rows.Err()
}

// ListPendingDocuments retrieves open allocations whose responsibility document
// was never delivered, oldest first. Used by the reconciliation job.
func (r *AllocationRepository) ListPendingDocuments(ctx context.Context, limit int) ([]*models.Allocation, error) {
	query := `
		SELECT ` + allocationColumns + `
		FROM allocations
		WHERE ended_at IS NULL AND document_generated = FALSE
		ORDER BY started_at
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	allocations := make([]*models.Allocation, 0)
	for rows.Next() {
		alloc := &models.Allocation{}
		err := rows.Scan(
			&alloc.ID, &alloc.AssetID, &alloc.EmployeeID, &alloc.StartedAt,
			&alloc.EndedAt, &alloc.Reason, &alloc.DocumentGenerated, &alloc.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, alloc)
	}

	return allocations, rows.Err()
}
