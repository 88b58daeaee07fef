// Package models - lookups.go defines the simple reference tables: business
// units, brands, and carriers.
package models

import "time"

// BusinessUnit represents a cost center an asset can be attached to
type BusinessUnit struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Brand represents an equipment manufacturer
type Brand struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Carrier represents a mobile network operator for SIM cards
type Carrier struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
