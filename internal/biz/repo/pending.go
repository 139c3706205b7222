package repo

import (
	"context"
	"time"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// PendingRepo stores drafts awaiting operator approval
type PendingRepo interface {
	// Add stores a draft. Adding a second draft for the same inbound message is a no-op.
	Add(ctx context.Context, p *domain.PendingReply) error

	// Get returns a draft by ID, or domain.ErrPendingNotFound
	Get(ctx context.Context, id string) (*domain.PendingReply, error)

	// Exists reports whether a draft for the inbound message already exists
	Exists(ctx context.Context, conversationID, inboundTimestamp string) (bool, error)

	// List returns drafts oldest first
	List(ctx context.Context) ([]*domain.PendingReply, error)

	// Delete removes a draft
	Delete(ctx context.Context, id string) error

	// DeleteSuperseded drops a conversation's drafts for any inbound message
	// other than keepTimestamp
	DeleteSuperseded(ctx context.Context, conversationID, keepTimestamp string) (int64, error)

	// DeleteBefore drops drafts created before the cutoff
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
