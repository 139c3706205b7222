package data

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DevRickLin/wingman/internal/biz/repo"
)

// statsRepo implements repo.StatsRepo on SQLite
type statsRepo struct {
	db *sql.DB
}

// NewStatsRepo creates a stats repository
func NewStatsRepo(db *sql.DB) repo.StatsRepo {
	return &statsRepo{db: db}
}

// Increment adds delta to a named counter
func (r *statsRepo) Increment(ctx context.Context, name string, delta int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stats (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = value + excluded.value
	`, name, delta)
	if err != nil {
		return fmt.Errorf("failed to increment %s: %w", name, err)
	}
	return nil
}

// All returns every counter
func (r *statsRepo) All(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, value FROM stats`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("failed to scan stats: %w", err)
		}
		out[name] = value
	}
	return out, rows.Err()
}
