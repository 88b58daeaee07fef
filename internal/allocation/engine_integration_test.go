//go:build integration

// Concurrency tests against a real Postgres instance. The sqlmock tests assert
// that Transfer takes the row lock; these assert what the lock plus the partial
// unique index actually guarantee under simultaneous callers. Run with:
//
//	CUR_TEST_DATABASE_DSN="postgres://..." go test -tags integration ./internal/allocation/
package allocation

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/curiango/curiango/internal/audit"
	"github.com/curiango/curiango/internal/db"
	"github.com/curiango/curiango/internal/db/repositories"
)

func integrationDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("CUR_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("CUR_TEST_DATABASE_DSN not set")
	}
	conn, err := db.Connect(dsn, 20, 4)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := db.RunMigrations(conn, "up"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedEmployee(t *testing.T, conn *sql.DB, name string) int {
	t.Helper()
	var id int
	err := conn.QueryRow(
		`INSERT INTO employees (name, status) VALUES ($1, 'active') RETURNING id`, name,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed employee: %v", err)
	}
	t.Cleanup(func() { conn.Exec(`DELETE FROM employees WHERE id = $1`, id) })
	return id
}

func seedAsset(t *testing.T, conn *sql.DB) int {
	t.Helper()
	var id int
	err := conn.QueryRow(
		`INSERT INTO assets (category, condition) VALUES ('notebook', 'new') RETURNING id`,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seed asset: %v", err)
	}
	t.Cleanup(func() {
		conn.Exec(`UPDATE assets SET current_employee_id = NULL WHERE id = $1`, id)
		conn.Exec(`DELETE FROM assets WHERE id = $1`, id)
	})
	return id
}

func newIntegrationEngine(conn *sql.DB) *Engine {
	sqlxDB := sqlx.NewDb(conn, "postgres")
	auditRepo := repositories.NewAuditRepository(conn)
	return NewEngine(Params{
		DB:           conn,
		Assets:       repositories.NewAssetRepository(conn),
		Employees:    repositories.NewEmployeeRepository(conn),
		Allocations:  repositories.NewAllocationRepository(conn),
		Maintenances: repositories.NewMaintenanceRepository(sqlxDB),
		AuditLog:     auditRepo,
		Recorder:     audit.NewRecorder(auditRepo, nil),
	})
}

func TestTransfer_ConcurrentCallersLeaveOneOpenAllocation(t *testing.T) {
	conn := integrationDB(t)
	assetID := seedAsset(t, conn)

	const callers = 8
	employees := make([]int, callers)
	for i := range employees {
		employees[i] = seedEmployee(t, conn, fmt.Sprintf("Caller %d", i))
	}

	engine := newIntegrationEngine(conn)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Transfer(context.Background(), assetID, employees[i], "stress")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		if err != nil {
			t.Errorf("transfer %d: %v", i, err)
			continue
		}
		succeeded++
	}
	if succeeded != callers {
		t.Fatalf("succeeded = %d, want %d", succeeded, callers)
	}

	var open, total int
	if err := conn.QueryRow(
		`SELECT COUNT(*) FROM allocations WHERE asset_id = $1 AND ended_at IS NULL`, assetID,
	).Scan(&open); err != nil {
		t.Fatalf("count open: %v", err)
	}
	if err := conn.QueryRow(
		`SELECT COUNT(*) FROM allocations WHERE asset_id = $1`, assetID,
	).Scan(&total); err != nil {
		t.Fatalf("count total: %v", err)
	}
	if open != 1 {
		t.Errorf("open allocations = %d, want exactly 1", open)
	}
	if total != callers {
		t.Errorf("total allocations = %d, want %d (each transfer closes its predecessor)", total, callers)
	}

	// The custodian pointer must agree with the surviving open allocation.
	var currentEmployee sql.NullInt64
	var openEmployee int
	if err := conn.QueryRow(
		`SELECT current_employee_id FROM assets WHERE id = $1`, assetID,
	).Scan(&currentEmployee); err != nil {
		t.Fatalf("read custodian: %v", err)
	}
	if err := conn.QueryRow(
		`SELECT employee_id FROM allocations WHERE asset_id = $1 AND ended_at IS NULL`, assetID,
	).Scan(&openEmployee); err != nil {
		t.Fatalf("read open allocation: %v", err)
	}
	if !currentEmployee.Valid || int(currentEmployee.Int64) != openEmployee {
		t.Errorf("custodian pointer = %v, open allocation employee = %d", currentEmployee, openEmployee)
	}
}

func TestTransferAndReturn_ConcurrentMixSettles(t *testing.T) {
	conn := integrationDB(t)
	assetID := seedAsset(t, conn)
	employeeID := seedEmployee(t, conn, "Mixed Caller")

	engine := newIntegrationEngine(conn)

	const rounds = 6
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			engine.Transfer(context.Background(), assetID, employeeID, "mix")
		}()
		go func() {
			defer wg.Done()
			engine.Return(context.Background(), assetID)
		}()
	}
	wg.Wait()

	var open int
	if err := conn.QueryRow(
		`SELECT COUNT(*) FROM allocations WHERE asset_id = $1 AND ended_at IS NULL`, assetID,
	).Scan(&open); err != nil {
		t.Fatalf("count open: %v", err)
	}
	if open > 1 {
		t.Errorf("open allocations = %d, invariant allows at most 1", open)
	}

	// Whatever interleaving happened, the custodian pointer and the open
	// allocation must agree: both set or both clear.
	var currentEmployee sql.NullInt64
	if err := conn.QueryRow(
		`SELECT current_employee_id FROM assets WHERE id = $1`, assetID,
	).Scan(&currentEmployee); err != nil {
		t.Fatalf("read custodian: %v", err)
	}
	if currentEmployee.Valid != (open == 1) {
		t.Errorf("custodian set = %v but open allocations = %d", currentEmployee.Valid, open)
	}
}
