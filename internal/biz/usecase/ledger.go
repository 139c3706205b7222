package usecase

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/DevRickLin/wingman/internal/biz/repo"
)

// Ledger remembers which inbound message each conversation was last answered at,
// and which conversations the operator excluded.
//
// State is loaded on first use; every mutation writes through before returning. A failed
// write keeps the in-memory update so the running process does not answer twice.
type Ledger struct {
	repo repo.LedgerRepo
	log  zerolog.Logger

	mu       sync.Mutex
	loaded   bool
	replied  map[string]string
	rejected map[string]struct{}
	guards   map[string]*conversationGuard
}

type conversationGuard struct {
	mu   sync.Mutex
	refs int
}

// NewLedger creates a ledger backed by ledgerRepo
func NewLedger(ledgerRepo repo.LedgerRepo, log zerolog.Logger) *Ledger {
	return &Ledger{
		repo:   ledgerRepo,
		log:    log.With().Str("component", "ledger").Logger(),
		guards: make(map[string]*conversationGuard),
	}
}

// HasReplied reports whether the inbound message at timestamp was already answered
func (l *Ledger) HasReplied(ctx context.Context, conversationID, timestamp string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	last, ok := l.replied[conversationID]
	return ok && last == timestamp
}

// HasEverReplied reports whether any reply was ever recorded for the conversation
func (l *Ledger) HasEverReplied(ctx context.Context, conversationID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	_, ok := l.replied[conversationID]
	return ok
}

// MarkReplied records a confirmed reply to the inbound message at timestamp.
// The write is not abandoned when ctx is cancelled since the reply already went out.
func (l *Ledger) MarkReplied(ctx context.Context, conversationID, timestamp string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	l.replied[conversationID] = timestamp
	if err := l.repo.SaveReplied(context.WithoutCancel(ctx), conversationID, timestamp); err != nil {
		l.log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to persist reply mark")
		return err
	}
	return nil
}

// IsRejected reports whether the operator excluded the conversation
func (l *Ledger) IsRejected(ctx context.Context, conversationID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	_, ok := l.rejected[conversationID]
	return ok
}

// MarkRejected excludes a conversation from automation
func (l *Ledger) MarkRejected(ctx context.Context, conversationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	l.rejected[conversationID] = struct{}{}
	if err := l.repo.AddRejected(context.WithoutCancel(ctx), conversationID); err != nil {
		l.log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to persist rejection")
		return err
	}
	return nil
}

// UnmarkRejected re-includes a conversation
func (l *Ledger) UnmarkRejected(ctx context.Context, conversationID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	delete(l.rejected, conversationID)
	if err := l.repo.RemoveRejected(context.WithoutCancel(ctx), conversationID); err != nil {
		l.log.Error().Err(err).Str("conversation_id", conversationID).Msg("Failed to persist un-rejection")
		return err
	}
	return nil
}

// Rejected lists excluded conversation IDs, sorted
func (l *Ledger) Rejected(ctx context.Context) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)

	ids := make([]string, 0, len(l.rejected))
	for id := range l.rejected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RepliedCount returns the number of conversations with a recorded reply
func (l *Ledger) RepliedCount(ctx context.Context) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ensureLoaded(ctx)
	return len(l.replied)
}

// Guard locks a conversation for a check, send, mark sequence.
// The returned func releases it and must be called exactly once.
func (l *Ledger) Guard(conversationID string) func() {
	l.mu.Lock()
	g, ok := l.guards[conversationID]
	if !ok {
		g = &conversationGuard{}
		l.guards[conversationID] = g
	}
	g.refs++
	l.mu.Unlock()

	g.mu.Lock()
	return func() {
		g.mu.Unlock()

		l.mu.Lock()
		g.refs--
		if g.refs == 0 {
			delete(l.guards, conversationID)
		}
		l.mu.Unlock()
	}
}

// ensureLoaded reads persisted state until one read succeeds. Until then the
// ledger runs from its in-memory state, and marks made meanwhile win over the
// store once it loads. Caller must hold l.mu.
func (l *Ledger) ensureLoaded(ctx context.Context) {
	if l.loaded {
		return
	}
	if l.replied == nil {
		l.replied = make(map[string]string)
		l.rejected = make(map[string]struct{})
	}

	// A caller's deadline must not leave the process with an empty ledger
	ctx = context.WithoutCancel(ctx)

	replied, err := l.repo.LoadReplied(ctx)
	if err != nil {
		l.log.Warn().Err(err).Msg("Failed to load replied ledger, will retry")
		return
	}
	rejected, err := l.repo.LoadRejected(ctx)
	if err != nil {
		l.log.Warn().Err(err).Msg("Failed to load rejected set, will retry")
		return
	}

	for id, ts := range replied {
		if _, ok := l.replied[id]; !ok {
			l.replied[id] = ts
		}
	}
	for _, id := range rejected {
		l.rejected[id] = struct{}{}
	}
	l.loaded = true
}
