// Package models - asset_note.go defines free-form notes attached to assets.
// Tagged for sqlx scanning.
package models

import "time"

// AssetNote represents a free-form note attached to an asset
type AssetNote struct {
	ID        int       `json:"id" db:"id"`
	AssetID   int       `json:"asset_id" db:"asset_id"`
	Content   string    `json:"content" db:"content"`
	Author    *string   `json:"author,omitempty" db:"author"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
