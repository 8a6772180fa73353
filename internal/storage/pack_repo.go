package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PackRepo implements PackRepository on postgres.
type PackRepo struct {
	db *sqlx.DB
}

// NewPackRepo creates a pack repository.
func NewPackRepo(db *sqlx.DB) *PackRepo {
	return &PackRepo{db: db}
}

// Record registers a pack for its owner. Re-recording the same name is a
// no-op, so a create-retry after ErrPackNotFound stays idempotent.
func (r *PackRepo) Record(ctx context.Context, userID int64, name, title, format string) error {
	query := `
		INSERT INTO sticker_packs (user_id, name, title, format)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, name, title, format); err != nil {
		return fmt.Errorf("record pack %s: %w", name, err)
	}
	return nil
}

// List returns the user's packs, newest first.
func (r *PackRepo) List(ctx context.Context, userID int64) ([]Pack, error) {
	query := `
		SELECT id, user_id, name, title, format, created_at
		FROM sticker_packs
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	var packs []Pack
	if err := r.db.SelectContext(ctx, &packs, query, userID); err != nil {
		return nil, fmt.Errorf("list packs: %w", err)
	}
	return packs, nil
}

// Has reports whether the user already recorded a pack with this name.
func (r *PackRepo) Has(ctx context.Context, userID int64, name string) (bool, error) {
	query := `SELECT COUNT(1) FROM sticker_packs WHERE user_id = $1 AND name = $2`
	var n int
	if err := r.db.GetContext(ctx, &n, query, userID, name); err != nil {
		return false, fmt.Errorf("check pack %s: %w", name, err)
	}
	return n > 0, nil
}
