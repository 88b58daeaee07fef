// employee_repository.go implements EmployeeRepository, providing database queries
// for asset custodians and their sectors.
package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/curiango/curiango/internal/db/models"
)

// ErrEmployeeNotFound is returned when an employee does not exist.
var ErrEmployeeNotFound = errors.New("employee not found")

// EmployeeRepository handles employee database operations
type EmployeeRepository struct {
	db *sql.DB
}

// NewEmployeeRepository creates a new EmployeeRepository
func NewEmployeeRepository(db *sql.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, name, badge_number, tax_id, email, role, sector_id, status, created_at, updated_at`

// Get retrieves an employee by ID
func (r *EmployeeRepository) Get(ctx context.Context, id int) (*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id = $1`

	emp := &models.Employee{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&emp.ID, &emp.Name, &emp.BadgeNumber, &emp.TaxID, &emp.Email,
		&emp.Role, &emp.SectorID, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, err
	}
	return emp, nil
}

// GetWithSector retrieves an employee together with their sector, if any.
// The sector is nil when the employee has none or the sector row is gone.
func (r *EmployeeRepository) GetWithSector(ctx context.Context, id int) (*models.Employee, *models.Sector, error) {
	query := `
		SELECT e.id, e.name, e.badge_number, e.tax_id, e.email, e.role, e.sector_id, e.status, e.created_at, e.updated_at,
		       s.id, s.name, s.responsible_email, s.active, s.created_at, s.updated_at
		FROM employees e
		LEFT JOIN sectors s ON s.id = e.sector_id
		WHERE e.id = $1
	`

	emp := &models.Employee{}
	var (
		sectorID     *int
		sectorName   *string
		sectorEmail  *string
		sectorActive *bool
		sectorCT     *sql.NullTime
		sectorUT     *sql.NullTime
	)
	sectorCT = &sql.NullTime{}
	sectorUT = &sql.NullTime{}

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&emp.ID, &emp.Name, &emp.BadgeNumber, &emp.TaxID, &emp.Email,
		&emp.Role, &emp.SectorID, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt,
		&sectorID, &sectorName, &sectorEmail, &sectorActive, sectorCT, sectorUT,
	)
	if err == sql.ErrNoRows {
		return nil, nil, ErrEmployeeNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var sector *models.Sector
	if sectorID != nil {
		sector = &models.Sector{
			ID:               *sectorID,
			Name:             *sectorName,
			ResponsibleEmail: sectorEmail,
			Active:           sectorActive != nil && *sectorActive,
		}
		if sectorCT.Valid {
			sector.CreatedAt = sectorCT.Time
		}
		if sectorUT.Valid {
			sector.UpdatedAt = sectorUT.Time
		}
	}

	return emp, sector, nil
}

// List retrieves employees, optionally filtered by status, ordered by name
func (r *EmployeeRepository) List(ctx context.Context, status *string) ([]*models.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	args := make([]interface{}, 0)
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]*models.Employee, 0)
	for rows.Next() {
		emp := &models.Employee{}
		err := rows.Scan(
			&emp.ID, &emp.Name, &emp.BadgeNumber, &emp.TaxID, &emp.Email,
			&emp.Role, &emp.SectorID, &emp.Status, &emp.CreatedAt, &emp.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}

	return employees, rows.Err()
}
