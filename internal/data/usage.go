package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/repo"
)

// usageRepo implements repo.UsageRepo on SQLite
type usageRepo struct {
	db *sql.DB
}

// NewUsageRepo creates a usage repository
func NewUsageRepo(db *sql.DB) repo.UsageRepo {
	return &usageRepo{db: db}
}

// Load reads the cumulative usage record
func (r *usageRepo) Load(ctx context.Context) (domain.UsageRecord, error) {
	rec := domain.UsageRecord{ByModel: make(map[string]int64)}

	err := r.db.QueryRowContext(ctx, `SELECT total_tokens FROM usage_total WHERE id = 1`).Scan(&rec.TotalTokens)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return domain.UsageRecord{}, fmt.Errorf("failed to query usage total: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT model, tokens FROM usage_by_model`)
	if err != nil {
		return domain.UsageRecord{}, fmt.Errorf("failed to query usage by model: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var model string
		var tokens int64
		if err := rows.Scan(&model, &tokens); err != nil {
			return domain.UsageRecord{}, fmt.Errorf("failed to scan usage: %w", err)
		}
		rec.ByModel[model] = tokens
	}
	return rec, rows.Err()
}

// Save replaces the stored record in a single transaction
func (r *usageRepo) Save(ctx context.Context, rec domain.UsageRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin usage tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO usage_total (id, total_tokens) VALUES (1, ?)`, rec.TotalTokens); err != nil {
		return fmt.Errorf("failed to save usage total: %w", err)
	}
	for model, tokens := range rec.ByModel {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO usage_by_model (model, tokens) VALUES (?, ?)`, model, tokens); err != nil {
			return fmt.Errorf("failed to save usage for %s: %w", model, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit usage: %w", err)
	}
	return nil
}
