// Package models - allocation.go defines the Allocation model: one custody
// period of an asset by an employee. An allocation with a nil EndedAt is open;
// the schema guarantees at most one open allocation per asset.
package models

import "time"

// Allocation represents a custody period of an asset
type Allocation struct {
	ID                int        `json:"id"`
	AssetID           int        `json:"asset_id"`
	EmployeeID        int        `json:"employee_id"`
	StartedAt         time.Time  `json:"started_at"`
	EndedAt           *time.Time `json:"ended_at,omitempty"` // nil while the allocation is open
	Reason            *string    `json:"reason,omitempty"`
	DocumentGenerated bool       `json:"document_generated"` // True once the responsibility document was delivered
	CreatedAt         time.Time  `json:"created_at"`

	EmployeeName *string `json:"employee_name,omitempty"` // Joined from employees for history composition
}

// IsOpen reports whether the allocation is still active.
func (a *Allocation) IsOpen() bool {
	return a.EndedAt == nil
}
