// Package storage persists the pack registry and conversion counters.
// Telegram offers no API to list a user's sticker sets, so every pack this
// bot creates is recorded here.
package storage

import (
	"context"
	"time"
)

// Pack is one sticker set created through this bot.
type Pack struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Name      string    `db:"name"`
	Title     string    `db:"title"`
	Format    string    `db:"format"`
	CreatedAt time.Time `db:"created_at"`
}

// OperationCount is one row of the conversion counters.
type OperationCount struct {
	Operation string `db:"operation"`
	Count     int64  `db:"count"`
}

// PackRepository records and lists the packs a user owns.
type PackRepository interface {
	Record(ctx context.Context, userID int64, name, title, format string) error
	List(ctx context.Context, userID int64) ([]Pack, error)
	Has(ctx context.Context, userID int64, name string) (bool, error)
}

// StatsRepository tracks how often each conversion ran.
type StatsRepository interface {
	Increment(ctx context.Context, operation string) error
	Totals(ctx context.Context) ([]OperationCount, error)
}
