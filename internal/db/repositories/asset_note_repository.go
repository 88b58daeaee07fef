// asset_note_repository.go implements AssetNoteRepository for free-form notes
// attached to assets.
package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/curiango/curiango/internal/db/models"
)

// AssetNoteRepository handles asset note database operations
type AssetNoteRepository struct {
	db *sqlx.DB
}

// NewAssetNoteRepository creates a new AssetNoteRepository
func NewAssetNoteRepository(db *sqlx.DB) *AssetNoteRepository {
	return &AssetNoteRepository{db: db}
}

// Create attaches a note to an asset
func (r *AssetNoteRepository) Create(ctx context.Context, n *models.AssetNote) error {
	query := `
		INSERT INTO asset_notes (asset_id, content, author)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	return r.db.QueryRowxContext(ctx, query, n.AssetID, n.Content, n.Author).
		Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
}

// ListForAsset retrieves all notes for an asset, newest first
func (r *AssetNoteRepository) ListForAsset(ctx context.Context, assetID int) ([]*models.AssetNote, error) {
	var notes []*models.AssetNote
	query := `SELECT * FROM asset_notes WHERE asset_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &notes, query, assetID)
	return notes, err
}
