package repo

import (
	"context"
	"time"
)

// LedgerRepo persists the replied ledger and the rejected set (SQLite)
type LedgerRepo interface {
	// LoadReplied returns conversation_id -> last replied inbound timestamp
	LoadReplied(ctx context.Context) (map[string]string, error)

	// SaveReplied upserts one ledger entry
	SaveReplied(ctx context.Context, conversationID, timestamp string) error

	// LoadRejected returns every rejected conversation ID
	LoadRejected(ctx context.Context) ([]string, error)

	// AddRejected adds a conversation to the rejected set
	AddRejected(ctx context.Context, conversationID string) error

	// RemoveRejected removes a conversation from the rejected set
	RemoveRejected(ctx context.Context, conversationID string) error
}

// OutreachRepo remembers which conversations already received an opener
type OutreachRepo interface {
	HasOpener(ctx context.Context, conversationID string) (bool, error)
	RecordOpener(ctx context.Context, conversationID, text string, sentAt time.Time) error
}
