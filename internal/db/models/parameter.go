// Package models - parameter.go defines the Parameter model backing the
// key/value store for document and email templates. Tagged for sqlx scanning.
package models

import "time"

// Parameter kinds.
const (
	ParameterText  = "text"
	ParameterHTML  = "html"
	ParameterEmail = "email"
)

// Well-known parameter keys seeded on startup.
const (
	ParamTermSmartphone    = "term_template_smartphone"
	ParamTermNotebook      = "term_template_notebook"
	ParamTermSIMCard       = "term_template_chip_sim"
	ParamAllocationSubject = "email_allocation_subject"
	ParamAllocationBody    = "email_allocation_body"
	ParamReturnSubject     = "email_return_subject"
	ParamReturnBody        = "email_return_body"
)

// Parameter represents a configurable key/value entry
type Parameter struct {
	ID          int       `json:"id" db:"id"`
	Key         string    `json:"key" db:"key"`
	Value       *string   `json:"value,omitempty" db:"value"`
	Kind        string    `json:"kind" db:"kind"`
	Description *string   `json:"description,omitempty" db:"description"`
	Active      bool      `json:"active" db:"active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
