// Package models - audit_log.go defines the AuditLog model for the append-only
// trail, capturing actor, action, affected table and record, before/after
// snapshots, and client IP.
package models

import "time"

// Audit actions.
const (
	ActionCreate           = "CREATE"
	ActionUpdate           = "UPDATE"
	ActionDelete           = "DELETE"
	ActionTransfer         = "TRANSFER"
	ActionRemoveAllocation = "REMOVE_ALLOCATION"
	ActionLogin            = "LOGIN"
	ActionLogout           = "LOGOUT"
	ActionRead             = "READ"
)

// Audit levels.
const (
	LevelInfo    = "INFO"
	LevelWarning = "WARNING"
	LevelError   = "ERROR"
)

// ValidAction reports whether s is one of the known audit actions.
func ValidAction(s string) bool {
	switch s {
	case ActionCreate, ActionUpdate, ActionDelete, ActionTransfer,
		ActionRemoveAllocation, ActionLogin, ActionLogout, ActionRead:
		return true
	}
	return false
}

// AuditLog represents one entry of the append-only audit trail
type AuditLog struct {
	ID          int                    `json:"id"`
	Actor       string                 `json:"actor"` // Display name; "System" for unattributed actions
	Level       string                 `json:"level"`
	Action      string                 `json:"action"`
	TableName   *string                `json:"table_name,omitempty"` // Loose reference: no FK, entries outlive their rows
	RecordID    *int                   `json:"record_id,omitempty"`  // Loose reference
	Description string                 `json:"description"`          // Human-readable summary
	OldData     map[string]interface{} `json:"old_data,omitempty"`   // JSONB: state before the change
	NewData     map[string]interface{} `json:"new_data,omitempty"`   // JSONB: state after the change
	IPAddress   *string                `json:"ip_address,omitempty"` // Client IP
	CreatedAt   time.Time              `json:"created_at"`
}
