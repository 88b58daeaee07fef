// audit_repository.go implements AuditRepository, providing database queries for writing
// and retrieving audit trail entries with support for filtered queries across actors,
// actions, tables, and date ranges.
package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/curiango/curiango/internal/db/models"
)

// ErrAuditNotFound is returned when an audit entry does not exist.
var ErrAuditNotFound = errors.New("audit entry not found")

// Query result caps. Callers asking for more than MaxAuditLimit get MaxAuditLimit.
const (
	DefaultAuditLimit = 100
	MaxAuditLimit     = 500
)

// AuditRepository handles audit trail database operations
type AuditRepository struct {
	db *sql.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditFilters contains filters for querying the audit trail.
// Actor and Description match as case-insensitive substrings; Action and
// TableName match exactly. EndDate is inclusive of the whole day.
type AuditFilters struct {
	Actor       *string
	Action      *string
	TableName   *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Limit       int
	Offset      int
}

// Create appends a new audit entry. Unlike other repositories this never
// participates in a caller's transaction: the trail must survive rollbacks of
// the operation it describes.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.Level == "" {
		entry.Level = models.LevelInfo
	}

	oldJSON, err := marshalSnapshot(entry.OldData)
	if err != nil {
		return fmt.Errorf("failed to marshal old data: %w", err)
	}
	newJSON, err := marshalSnapshot(entry.NewData)
	if err != nil {
		return fmt.Errorf("failed to marshal new data: %w", err)
	}

	query := `
		INSERT INTO audit_log (actor, level, action, table_name, record_id, description, old_data, new_data, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`

	return r.db.QueryRowContext(ctx, query,
		entry.Actor,
		entry.Level,
		entry.Action,
		entry.TableName,
		entry.RecordID,
		entry.Description,
		oldJSON,
		newJSON,
		entry.IPAddress,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// List retrieves audit entries matching the filters, newest first.
// The limit defaults to DefaultAuditLimit and is capped at MaxAuditLimit.
func (r *AuditRepository) List(ctx context.Context, filters AuditFilters) ([]*models.AuditLog, int, error) {
	countQuery := `SELECT COUNT(*) FROM audit_log WHERE 1=1`
	query := `
		SELECT id, actor, level, action, table_name, record_id, description, old_data, new_data, ip_address, created_at
		FROM audit_log
		WHERE 1=1
	`

	args := make([]interface{}, 0)
	paramIndex := 1

	if filters.Actor != nil {
		cond := fmt.Sprintf(` AND actor ILIKE $%d`, paramIndex)
		countQuery += cond
		query += cond
		args = append(args, "%"+*filters.Actor+"%")
		paramIndex++
	}

	if filters.Action != nil {
		cond := fmt.Sprintf(` AND action = $%d`, paramIndex)
		countQuery += cond
		query += cond
		args = append(args, *filters.Action)
		paramIndex++
	}

	if filters.TableName != nil {
		cond := fmt.Sprintf(` AND table_name = $%d`, paramIndex)
		countQuery += cond
		query += cond
		args = append(args, *filters.TableName)
		paramIndex++
	}

	if filters.Description != nil {
		cond := fmt.Sprintf(` AND description ILIKE $%d`, paramIndex)
		countQuery += cond
		query += cond
		args = append(args, "%"+*filters.Description+"%")
		paramIndex++
	}

	if filters.StartDate != nil {
		cond := fmt.Sprintf(` AND created_at >= $%d`, paramIndex)
		countQuery += cond
		query += cond
		args = append(args, *filters.StartDate)
		paramIndex++
	}

	if filters.EndDate != nil {
		// Inclusive of the whole end day
		endOfDay := time.Date(filters.EndDate.Year(), filters.EndDate.Month(), filters.EndDate.Day(),
			23, 59, 59, 0, filters.EndDate.Location())
		cond := fmt.Sprintf(` AND created_at <= $%d`, paramIndex)
		countQuery += cond
		query += cond
		args = append(args, endOfDay)
		paramIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultAuditLimit
	}
	if limit > MaxAuditLimit {
		limit = MaxAuditLimit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := make([]*models.AuditLog, 0)
	for rows.Next() {
		entry, err := scanAuditRow(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}

	return entries, total, rows.Err()
}

// Get retrieves a single audit entry by ID
func (r *AuditRepository) Get(ctx context.Context, id int) (*models.AuditLog, error) {
	query := `
		SELECT id, actor, level, action, table_name, record_id, description, old_data, new_data, ip_address, created_at
		FROM audit_log
		WHERE id = $1
	`

	entry, err := scanAuditRow(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrAuditNotFound
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListForRecord retrieves all audit entries referencing a given table and record,
// newest first. Used when composing an asset's event history.
func (r *AuditRepository) ListForRecord(ctx context.Context, tableName string, recordID int) ([]*models.AuditLog, error) {
	query := `
		SELECT id, actor, level, action, table_name, record_id, description, old_data, new_data, ip_address, created_at
		FROM audit_log
		WHERE table_name = $1 AND record_id = $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, tableName, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.AuditLog, 0)
	for rows.Next() {
		entry, err := scanAuditRow(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAuditRow(s scanner) (*models.AuditLog, error) {
	entry := &models.AuditLog{}
	var oldJSON, newJSON []byte

	err := s.Scan(
		&entry.ID,
		&entry.Actor,
		&entry.Level,
		&entry.Action,
		&entry.TableName,
		&entry.RecordID,
		&entry.Description,
		&oldJSON,
		&newJSON,
		&entry.IPAddress,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if oldJSON != nil {
		if err := json.Unmarshal(oldJSON, &entry.OldData); err != nil {
			return nil, err
		}
	}
	if newJSON != nil {
		if err := json.Unmarshal(newJSON, &entry.NewData); err != nil {
			return nil, err
		}
	}

	return entry, nil
}

func marshalSnapshot(data map[string]interface{}) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	return json.Marshal(data)
}
