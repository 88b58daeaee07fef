package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

// ---------------------------------------------------------------------------
// Column definitions
// ---------------------------------------------------------------------------

var employeeCols = []string{
	"id", "name", "badge_number", "tax_id", "email", "role",
	"sector_id", "status", "created_at", "updated_at",
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newEmployeeRepo(t *testing.T) (*EmployeeRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewEmployeeRepository(db), mock
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestEmployeeGet_Found(t *testing.T) {
	repo, mock := newEmployeeRepo(t)
	mock.ExpectQuery("SELECT id.*FROM employees WHERE id").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(employeeCols).
			AddRow(7, "Alice Jones", "B-1001", "12345678900", "alice@example.com",
				"Analyst", 2, "active", time.Now(), time.Now()))

	emp, err := repo.Get(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emp.Name != "Alice Jones" {
		t.Errorf("Name = %q, want Alice Jones", emp.Name)
	}
}

func TestEmployeeGet_NotFound(t *testing.T) {
	repo, mock := newEmployeeRepo(t)
	mock.ExpectQuery("SELECT id.*FROM employees WHERE id").
		WillReturnRows(sqlmock.NewRows(employeeCols))

	_, err := repo.Get(context.Background(), 999)
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("err = %v, want ErrEmployeeNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// GetWithSector
// ---------------------------------------------------------------------------

var employeeSectorCols = []string{
	"id", "name", "badge_number", "tax_id", "email", "role",
	"sector_id", "status", "created_at", "updated_at",
	"s_id", "s_name", "s_responsible_email", "s_active", "s_created_at", "s_updated_at",
}

func TestEmployeeGetWithSector_Found(t *testing.T) {
	repo, mock := newEmployeeRepo(t)
	mock.ExpectQuery("SELECT e.id.*FROM employees e.*LEFT JOIN sectors").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows(employeeSectorCols).
			AddRow(7, "Alice Jones", nil, nil, "alice@example.com", nil,
				2, "active", time.Now(), time.Now(),
				2, "Finance", "finance-lead@example.com", true, time.Now(), time.Now()))

	emp, sector, err := repo.GetWithSector(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emp.Name != "Alice Jones" {
		t.Errorf("Name = %q, want Alice Jones", emp.Name)
	}
	if sector == nil {
		t.Fatal("expected sector, got nil")
	}
	if *sector.ResponsibleEmail != "finance-lead@example.com" {
		t.Errorf("ResponsibleEmail = %q, want finance-lead@example.com", *sector.ResponsibleEmail)
	}
	if !sector.Active {
		t.Error("expected active sector")
	}
}

func TestEmployeeGetWithSector_NoSector(t *testing.T) {
	repo, mock := newEmployeeRepo(t)
	mock.ExpectQuery("SELECT e.id.*FROM employees e.*LEFT JOIN sectors").
		WithArgs(8).
		WillReturnRows(sqlmock.NewRows(employeeSectorCols).
			AddRow(8, "Bob Smith", nil, nil, nil, nil,
				nil, "active", time.Now(), time.Now(),
				nil, nil, nil, nil, nil, nil))

	emp, sector, err := repo.GetWithSector(context.Background(), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emp.Name != "Bob Smith" {
		t.Errorf("Name = %q, want Bob Smith", emp.Name)
	}
	if sector != nil {
		t.Errorf("expected nil sector, got %+v", sector)
	}
}

func TestEmployeeGetWithSector_NotFound(t *testing.T) {
	repo, mock := newEmployeeRepo(t)
	mock.ExpectQuery("SELECT e.id.*FROM employees e.*LEFT JOIN sectors").
		WillReturnRows(sqlmock.NewRows(employeeSectorCols))

	_, _, err := repo.GetWithSector(context.Background(), 999)
	if !errors.Is(err, ErrEmployeeNotFound) {
		t.Errorf("err = %v, want ErrEmployeeNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestEmployeeList_FilteredByStatus(t *testing.T) {
	repo, mock := newEmployeeRepo(t)
	status := "active"
	mock.ExpectQuery("SELECT id.*FROM employees WHERE status").
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows(employeeCols).
			AddRow(7, "Alice Jones", nil, nil, nil, nil, nil, "active", time.Now(), time.Now()))

	employees, err := repo.List(context.Background(), &status)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(employees) != 1 {
		t.Errorf("len(employees) = %d, want 1", len(employees))
	}
}
