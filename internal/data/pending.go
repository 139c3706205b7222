package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/repo"
)

// pendingRepo implements repo.PendingRepo on SQLite
type pendingRepo struct {
	db *sql.DB
}

// NewPendingRepo creates a pending reply repository
func NewPendingRepo(db *sql.DB) repo.PendingRepo {
	return &pendingRepo{db: db}
}

const pendingColumns = `id, conversation_id, name, inbound_text, inbound_timestamp, reply, personality, fallback, created_at`

// Add stores a draft; duplicates for the same inbound message are ignored
func (r *pendingRepo) Add(ctx context.Context, p *domain.PendingReply) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO pending (`+pendingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.ID,
		p.ConversationID,
		p.DisplayName,
		p.InboundText,
		p.InboundTimestamp,
		p.Reply,
		p.Personality,
		boolToInt(p.Fallback),
		p.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to add pending reply: %w", err)
	}
	return nil
}

// Get returns a draft by ID
func (r *pendingRepo) Get(ctx context.Context, id string) (*domain.PendingReply, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+pendingColumns+` FROM pending WHERE id = ?`, id)
	p, err := scanPending(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPendingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pending reply: %w", err)
	}
	return p, nil
}

// Exists reports whether a draft for the inbound message exists
func (r *pendingRepo) Exists(ctx context.Context, conversationID, inboundTimestamp string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM pending WHERE conversation_id = ? AND inbound_timestamp = ?
	`, conversationID, inboundTimestamp).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query pending reply: %w", err)
	}
	return n > 0, nil
}

// List returns every draft, oldest first
func (r *pendingRepo) List(ctx context.Context) ([]*domain.PendingReply, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+pendingColumns+` FROM pending ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending replies: %w", err)
	}
	defer rows.Close()

	var out []*domain.PendingReply
	for rows.Next() {
		p, err := scanPending(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending reply: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete removes a draft
func (r *pendingRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending reply: %w", err)
	}
	return nil
}

// DeleteSuperseded drops a conversation's drafts answering older inbound messages
func (r *pendingRepo) DeleteSuperseded(ctx context.Context, conversationID, keepTimestamp string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM pending WHERE conversation_id = ? AND inbound_timestamp <> ?`,
		conversationID, keepTimestamp)
	if err != nil {
		return 0, fmt.Errorf("failed to drop superseded pending replies: %w", err)
	}
	return result.RowsAffected()
}

// DeleteBefore drops drafts older than the cutoff
func (r *pendingRepo) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM pending WHERE created_at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune pending replies: %w", err)
	}
	return result.RowsAffected()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPending(row rowScanner) (*domain.PendingReply, error) {
	var p domain.PendingReply
	var createdAt, fallback int64
	err := row.Scan(
		&p.ID,
		&p.ConversationID,
		&p.DisplayName,
		&p.InboundText,
		&p.InboundTimestamp,
		&p.Reply,
		&p.Personality,
		&fallback,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	p.Fallback = fallback != 0
	p.CreatedAt = time.Unix(createdAt, 0)
	return &p, nil
}
