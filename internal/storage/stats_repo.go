package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// StatsRepo implements StatsRepository on postgres.
type StatsRepo struct {
	db *sqlx.DB
}

// NewStatsRepo creates a stats repository.
func NewStatsRepo(db *sqlx.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// Increment bumps the counter for one conversion operation.
func (r *StatsRepo) Increment(ctx context.Context, operation string) error {
	query := `
		INSERT INTO conversion_stats (operation, count)
		VALUES ($1, 1)
		ON CONFLICT (operation)
		DO UPDATE SET count = conversion_stats.count + 1
	`
	if _, err := r.db.ExecContext(ctx, query, operation); err != nil {
		return fmt.Errorf("increment %s: %w", operation, err)
	}
	return nil
}

// Totals returns all counters, busiest first.
func (r *StatsRepo) Totals(ctx context.Context) ([]OperationCount, error) {
	query := `SELECT operation, count FROM conversion_stats ORDER BY count DESC`
	var out []OperationCount
	if err := r.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("load stats: %w", err)
	}
	return out, nil
}
