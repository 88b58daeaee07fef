// Package models - employee.go defines the Employee and Sector models. Employees
// are asset custodians; sectors carry the responsible email copied on allocation
// notifications.
package models

import "time"

// Employee statuses.
const (
	EmployeeActive     = "active"
	EmployeeTerminated = "terminated"
)

// Employee represents an asset custodian
type Employee struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	BadgeNumber *string   `json:"badge_number,omitempty"`
	TaxID       *string   `json:"tax_id,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Role        *string   `json:"role,omitempty"`
	SectorID    *int      `json:"sector_id,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Sector represents an organizational unit with a responsible contact
type Sector struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	ResponsibleEmail *string   `json:"responsible_email,omitempty"`
	Active           bool      `json:"active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
