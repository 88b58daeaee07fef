// Package models - maintenance.go defines the Maintenance model for repair and
// service events. Tagged for sqlx scanning.
package models

import "time"

// Maintenance represents a service event on an asset
type Maintenance struct {
	ID          int       `json:"id" db:"id"`
	AssetID     int       `json:"asset_id" db:"asset_id"`
	Kind        string    `json:"kind" db:"kind"`
	Description string    `json:"description" db:"description"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
