package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/DevRickLin/wingman/internal/biz/repo"
)

// ledgerRepo implements repo.LedgerRepo and repo.OutreachRepo on SQLite
type ledgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo creates a ledger repository
func NewLedgerRepo(db *sql.DB) repo.LedgerRepo {
	return &ledgerRepo{db: db}
}

// NewOutreachRepo creates an outreach repository sharing the ledger tables' database
func NewOutreachRepo(db *sql.DB) repo.OutreachRepo {
	return &ledgerRepo{db: db}
}

// LoadReplied loads every replied entry
func (r *ledgerRepo) LoadReplied(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT conversation_id, last_timestamp FROM replied`)
	if err != nil {
		return nil, fmt.Errorf("failed to query replied: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var id, ts string
		if err := rows.Scan(&id, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan replied: %w", err)
		}
		out[id] = ts
	}
	return out, rows.Err()
}

// SaveReplied upserts the last replied timestamp
func (r *ledgerRepo) SaveReplied(ctx context.Context, conversationID, timestamp string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO replied (conversation_id, last_timestamp, updated_at)
		VALUES (?, ?, ?)
	`, conversationID, timestamp, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save replied: %w", err)
	}
	return nil
}

// LoadRejected loads the rejected set
func (r *ledgerRepo) LoadRejected(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT conversation_id FROM rejected ORDER BY conversation_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rejected: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan rejected: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AddRejected adds a conversation to the rejected set
func (r *ledgerRepo) AddRejected(ctx context.Context, conversationID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO rejected (conversation_id, created_at) VALUES (?, ?)
	`, conversationID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to add rejected: %w", err)
	}
	return nil
}

// RemoveRejected removes a conversation from the rejected set
func (r *ledgerRepo) RemoveRejected(ctx context.Context, conversationID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM rejected WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return fmt.Errorf("failed to remove rejected: %w", err)
	}
	return nil
}

// HasOpener reports whether an opener was already sent
func (r *ledgerRepo) HasOpener(ctx context.Context, conversationID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM outreach WHERE conversation_id = ?`, conversationID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query outreach: %w", err)
	}
	return n > 0, nil
}

// RecordOpener stores a sent opener
func (r *ledgerRepo) RecordOpener(ctx context.Context, conversationID, text string, sentAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO outreach (conversation_id, text, sent_at) VALUES (?, ?, ?)
	`, conversationID, text, sentAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record opener: %w", err)
	}
	return nil
}
