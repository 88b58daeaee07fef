// asset_repository.go implements AssetRepository, providing database queries for
// assets and their per-category detail records (phones, computers, SIM cards).
package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/curiango/curiango/internal/db/models"
)

// ErrAssetNotFound is returned when an asset does not exist.
var ErrAssetNotFound = errors.New("asset not found")

// ErrAssetAllocated is returned when an operation requires the asset to have no
// open allocation (e.g. deletion).
var ErrAssetAllocated = errors.New("asset has an open allocation")

// ErrDuplicateField is returned when an insert violates a unique constraint
// (IMEI, asset tag, serial number, phone number). Callers surface it as a
// client error, not a server failure.
var ErrDuplicateField = errors.New("duplicate unique field")

// wrapInsertError converts Postgres unique violations into ErrDuplicateField,
// carrying the violated constraint name; other errors get the given context.
func wrapInsertError(what string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicateField, pqErr.Constraint)
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}

// AssetRepository handles asset database operations
type AssetRepository struct {
	db *sql.DB
}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository(db *sql.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// AssetFilters contains filters for listing assets
type AssetFilters struct {
	Category   *string
	Condition  *string
	EmployeeID *int
}

const assetColumns = `id, category, condition, current_employee_id, business_unit_id, value, allocated_at, created_at, updated_at`

// Create inserts an asset and its category detail record in one transaction.
// SIM card assets never carry a business unit; the field is cleared regardless
// of what the caller supplied.
func (r *AssetRepository) Create(ctx context.Context, asset *models.Asset) error {
	if !models.ValidCategory(asset.Category) {
		return fmt.Errorf("invalid asset category: %s", asset.Category)
	}
	if asset.Condition == "" {
		asset.Condition = models.ConditionNew
	}
	if asset.Category == models.CategorySIMCard {
		asset.BusinessUnitID = nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO assets (category, condition, current_employee_id, business_unit_id, value, allocated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRowContext(ctx, query,
		asset.Category, asset.Condition, asset.CurrentEmployeeID,
		asset.BusinessUnitID, asset.Value, asset.AllocatedAt,
	).Scan(&asset.ID, &asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return wrapInsertError("asset", err)
	}

	if err := r.insertDetails(ctx, tx, asset); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *AssetRepository) insertDetails(ctx context.Context, q DBTX, asset *models.Asset) error {
	switch asset.Category {
	case models.CategorySmartphone:
		d := asset.Details.Phone
		if d == nil {
			d = &models.PhoneDetails{}
		}
		d.AssetID = asset.ID
		_, err := q.ExecContext(ctx,
			`INSERT INTO phones (asset_id, brand_id, model, imei, accessories) VALUES ($1, $2, $3, $4, $5)`,
			d.AssetID, d.BrandID, d.Model, d.IMEI, d.Accessories)
		if err != nil {
			return wrapInsertError("phone details", err)
		}
		asset.Details.Phone = d

	case models.CategoryNotebook, models.CategoryDesktop:
		d := asset.Details.Computer
		if d == nil {
			d = &models.ComputerDetails{}
		}
		d.AssetID = asset.ID
		d.Kind = asset.Category
		_, err := q.ExecContext(ctx,
			`INSERT INTO computers (asset_id, kind, asset_tag, brand_id, model, serial_number, os_version, cpu, memory, storage, accessories)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			d.AssetID, d.Kind, d.AssetTag, d.BrandID, d.Model, d.SerialNumber,
			d.OSVersion, d.CPU, d.Memory, d.Storage, d.Accessories)
		if err != nil {
			return wrapInsertError("computer details", err)
		}
		asset.Details.Computer = d

	case models.CategorySIMCard:
		d := asset.Details.SIMCard
		if d == nil {
			d = &models.SIMCardDetails{}
		}
		d.AssetID = asset.ID
		_, err := q.ExecContext(ctx,
			`INSERT INTO sim_cards (asset_id, phone_number, carrier_id, line_type) VALUES ($1, $2, $3, $4)`,
			d.AssetID, d.PhoneNumber, d.CarrierID, d.LineType)
		if err != nil {
			return wrapInsertError("sim card details", err)
		}
		asset.Details.SIMCard = d
	}

	return nil
}

// Get retrieves an asset with its category detail record
func (r *AssetRepository) Get(ctx context.Context, id int) (*models.Asset, error) {
	asset, err := r.getBase(ctx, r.db, id, false)
	if err != nil {
		return nil, err
	}
	if err := r.loadDetails(ctx, r.db, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// GetForUpdate retrieves an asset's base row inside the caller's transaction
// with SELECT ... FOR UPDATE, serializing concurrent allocation operations on
// the same asset. Details are not loaded.
func (r *AssetRepository) GetForUpdate(ctx context.Context, q DBTX, id int) (*models.Asset, error) {
	return r.getBase(ctx, q, id, true)
}

func (r *AssetRepository) getBase(ctx context.Context, q DBTX, id int, forUpdate bool) (*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	asset := &models.Asset{}
	err := q.QueryRowContext(ctx, query, id).Scan(
		&asset.ID, &asset.Category, &asset.Condition,
		&asset.CurrentEmployeeID, &asset.BusinessUnitID, &asset.Value,
		&asset.AllocatedAt, &asset.CreatedAt, &asset.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// LoadDetails populates asset.Details from the category side table.
func (r *AssetRepository) LoadDetails(ctx context.Context, asset *models.Asset) error {
	return r.loadDetails(ctx, r.db, asset)
}

func (r *AssetRepository) loadDetails(ctx context.Context, q DBTX, asset *models.Asset) error {
	switch asset.Category {
	case models.CategorySmartphone:
		d := &models.PhoneDetails{}
		err := q.QueryRowContext(ctx, `
			SELECT p.asset_id, p.brand_id, b.name, p.model, p.imei, p.accessories
			FROM phones p LEFT JOIN brands b ON b.id = p.brand_id
			WHERE p.asset_id = $1`, asset.ID).Scan(
			&d.AssetID, &d.BrandID, &d.BrandName, &d.Model, &d.IMEI, &d.Accessories)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if err == nil {
			asset.Details.Phone = d
		}

	case models.CategoryNotebook, models.CategoryDesktop:
		d := &models.ComputerDetails{}
		err := q.QueryRowContext(ctx, `
			SELECT c.asset_id, c.kind, c.asset_tag, c.brand_id, b.name, c.model, c.serial_number,
			       c.os_version, c.cpu, c.memory, c.storage, c.accessories
			FROM computers c LEFT JOIN brands b ON b.id = c.brand_id
			WHERE c.asset_id = $1`, asset.ID).Scan(
			&d.AssetID, &d.Kind, &d.AssetTag, &d.BrandID, &d.BrandName, &d.Model,
			&d.SerialNumber, &d.OSVersion, &d.CPU, &d.Memory, &d.Storage, &d.Accessories)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if err == nil {
			asset.Details.Computer = d
		}

	case models.CategorySIMCard:
		d := &models.SIMCardDetails{}
		err := q.QueryRowContext(ctx, `
			SELECT s.asset_id, s.phone_number, s.carrier_id, ca.name, s.line_type
			FROM sim_cards s LEFT JOIN carriers ca ON ca.id = s.carrier_id
			WHERE s.asset_id = $1`, asset.ID).Scan(
			&d.AssetID, &d.PhoneNumber, &d.CarrierID, &d.CarrierName, &d.LineType)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		if err == nil {
			asset.Details.SIMCard = d
		}
	}

	return nil
}

// List retrieves assets matching the filters, newest first. Details are not
// loaded; use Get for a single asset with its detail record.
func (r *AssetRepository) List(ctx context.Context, filters AssetFilters, limit, offset int) ([]*models.Asset, int, error) {
	countQuery := `SELECT COUNT(*) FROM assets WHERE 1=1`
	query := `SELECT ` + assetColumns + ` FROM assets WHERE 1=1`

	args := make([]interface{}, 0)
	paramIndex := 1

	if filters.Category != nil {
		cond := fmt.Sprintf(` AND category = $%d`, paramIndex)
		countQuery += cond
		query += cond
		args = append(args, *filters.Category)
		paramIndex++
	}
	if filters.Condition != nil {
		cond := fmt.Sprintf(` AND condition = $%d`, paramIndex)
		countQuery += cond
		query += cond
		args = append(args, *filters.Condition)
		paramIndex++
	}
	if filters.EmployeeID != nil {
		cond := fmt.Sprintf(` AND current_employee_id = $%d`, paramIndex)
		countQuery += cond
		query += cond
		args = append(args, *filters.EmployeeID)
		paramIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	assets := make([]*models.Asset, 0)
	for rows.Next() {
		asset := &models.Asset{}
		err := rows.Scan(
			&asset.ID, &asset.Category, &asset.Condition,
			&asset.CurrentEmployeeID, &asset.BusinessUnitID, &asset.Value,
			&asset.AllocatedAt, &asset.CreatedAt, &asset.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		assets = append(assets, asset)
	}

	return assets, total, rows.Err()
}

// UpdateCustodian sets (or clears) the asset's current custodian and allocation
// timestamp. Runs inside the caller's transaction during transfers and returns.
func (r *AssetRepository) UpdateCustodian(ctx context.Context, q DBTX, assetID int, employeeID *int, allocatedAt *time.Time) error {
	result, err := q.ExecContext(ctx,
		`UPDATE assets SET current_employee_id = $2, allocated_at = $3, updated_at = NOW() WHERE id = $1`,
		assetID, employeeID, allocatedAt)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAssetNotFound
	}
	return nil
}

// Delete removes an asset. Assets with an open allocation cannot be deleted.
func (r *AssetRepository) Delete(ctx context.Context, id int) error {
	var openCount int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM allocations WHERE asset_id = $1 AND ended_at IS NULL`, id).Scan(&openCount)
	if err != nil {
		return err
	}
	if openCount > 0 {
		return ErrAssetAllocated
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAssetNotFound
	}
	return nil
}
