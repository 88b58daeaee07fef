// queryer.go defines the DBTX interface satisfied by both *sql.DB and *sql.Tx.
// Repository methods that must run inside a caller-owned transaction (the
// allocation workflow locks the asset row and mutates several tables
// atomically) accept a DBTX instead of binding to the repository's own pool.
package repositories

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database operations shared by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
