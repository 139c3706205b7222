package repo

import (
	"context"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// DecisionLog is the append-only record of pipeline decisions
type DecisionLog interface {
	Append(d domain.Decision) error

	// Recent returns up to n of the newest records, newest last
	Recent(n int) ([]domain.Decision, error)
}

// Notifier tells the operator about drafts that need approval
type Notifier interface {
	NotifyPending(ctx context.Context, p *domain.PendingReply) error
}
