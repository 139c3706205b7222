package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// ListPending returns drafts awaiting approval, oldest first
func (p *Pipeline) ListPending(ctx context.Context) ([]*domain.PendingReply, error) {
	return p.deps.Pending.List(ctx)
}

// Approve sends a pending draft, optionally with operator-edited text.
// A failed send keeps the draft so it can be retried.
func (p *Pipeline) Approve(ctx context.Context, id, text string) (*domain.PendingReply, error) {
	draft, err := p.deps.Pending.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if edited := strings.TrimSpace(text); edited != "" {
		draft.Reply = edited
	}
	log := p.log.With().Str("pending_id", id).Str("conversation_id", draft.ConversationID).Logger()

	release := p.deps.Ledger.Guard(draft.ConversationID)
	defer release()

	if p.deps.Ledger.HasReplied(ctx, draft.ConversationID, draft.InboundTimestamp) {
		if err := p.deps.Pending.Delete(ctx, id); err != nil {
			log.Warn().Err(err).Msg("Failed to drop stale draft")
		}
		return draft, domain.ErrAlreadyReplied
	}

	rec := domain.Decision{
		ConversationID: draft.ConversationID,
		Name:           draft.DisplayName,
		InboundText:    draft.InboundText,
		ReplyText:      draft.Reply,
		Timestamp:      draft.InboundTimestamp,
		Personality:    draft.Personality,
		Fallback:       draft.Fallback,
	}

	if err := p.send(ctx, draft.ConversationID, draft.Reply, "approval"); err != nil {
		rec.Outcome = domain.DecisionFailed
		rec.Error = err.Error()
		p.record(rec)
		p.bump(ctx, domain.StatSendFailures, 1)
		log.Warn().Err(err).Msg("Approved draft not sent")
		return draft, err
	}

	// A disconnecting caller must not lose the mark for a delivered reply
	persist := context.WithoutCancel(ctx)
	if err := p.deps.Ledger.MarkReplied(persist, draft.ConversationID, draft.InboundTimestamp); err != nil {
		log.Error().Err(err).Msg("Draft sent but ledger write failed")
	}
	if err := p.deps.Pending.Delete(persist, id); err != nil {
		log.Warn().Err(err).Msg("Failed to delete approved draft")
	}
	p.dropSuperseded(persist, draft.ConversationID, draft.InboundTimestamp, log)

	rec.Outcome = domain.DecisionApproved
	p.record(rec)
	p.bump(persist, domain.StatApproved, 1)
	p.bump(persist, domain.StatRepliesSent, 1)
	log.Info().Msg("Draft approved and sent")
	return draft, nil
}

// Discard drops a draft and marks its inbound message as handled without sending
func (p *Pipeline) Discard(ctx context.Context, id string) (*domain.PendingReply, error) {
	draft, err := p.deps.Pending.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	release := p.deps.Ledger.Guard(draft.ConversationID)
	defer release()

	persist := context.WithoutCancel(ctx)
	if err := p.deps.Ledger.MarkReplied(persist, draft.ConversationID, draft.InboundTimestamp); err != nil {
		return nil, fmt.Errorf("failed to mark discarded message: %w", err)
	}
	if err := p.deps.Pending.Delete(persist, id); err != nil {
		return nil, fmt.Errorf("failed to delete draft: %w", err)
	}

	p.record(domain.Decision{
		ConversationID: draft.ConversationID,
		Name:           draft.DisplayName,
		InboundText:    draft.InboundText,
		ReplyText:      draft.Reply,
		Timestamp:      draft.InboundTimestamp,
		Personality:    draft.Personality,
		Outcome:        domain.DecisionDiscarded,
	})
	p.bump(persist, domain.StatDiscarded, 1)
	p.log.Info().Str("pending_id", id).Str("conversation_id", draft.ConversationID).Msg("Draft discarded")
	return draft, nil
}

// PrunePending removes drafts older than retention
func (p *Pipeline) PrunePending(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := p.deps.Pending.DeleteBefore(ctx, p.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to prune drafts: %w", err)
	}
	return n, nil
}
