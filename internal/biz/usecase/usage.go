package usecase

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/repo"
	"github.com/DevRickLin/wingman/internal/infra/metrics"
)

// UsageTracker accumulates token usage and persists it after every record
type UsageTracker struct {
	repo repo.UsageRepo
	log  zerolog.Logger

	mu     sync.Mutex
	loaded bool
	record domain.UsageRecord
}

// NewUsageTracker creates a usage tracker
func NewUsageTracker(usageRepo repo.UsageRepo, log zerolog.Logger) *UsageTracker {
	return &UsageTracker{
		repo: usageRepo,
		log:  log.With().Str("component", "usage").Logger(),
	}
}

// Record adds tokens for model. Persistence failures are logged, never returned.
func (t *UsageTracker) Record(ctx context.Context, model string, tokens int64) {
	if tokens < 0 {
		tokens = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	loaded := t.ensureLoaded(ctx)
	t.record.TotalTokens += tokens
	t.record.ByModel[model] += tokens
	metrics.TokensTotal.WithLabelValues(model).Add(float64(tokens))

	// Saving before the stored totals are read would overwrite them
	if !loaded {
		return
	}
	if err := t.repo.Save(context.WithoutCancel(ctx), t.record); err != nil {
		t.log.Error().Err(err).Str("model", model).Int64("tokens", tokens).Msg("Failed to persist usage")
	}
}

// Totals returns a snapshot of cumulative usage
func (t *UsageTracker) Totals(ctx context.Context) domain.UsageRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ensureLoaded(ctx)
	return t.record.Clone()
}

// ensureLoaded reads persisted usage until one read succeeds and reports
// whether it has. Tokens recorded before that are added onto the stored totals.
// Caller must hold t.mu.
func (t *UsageTracker) ensureLoaded(ctx context.Context) bool {
	if t.loaded {
		return true
	}
	if t.record.ByModel == nil {
		t.record.ByModel = make(map[string]int64)
	}

	rec, err := t.repo.Load(context.WithoutCancel(ctx))
	if err != nil {
		t.log.Warn().Err(err).Msg("Failed to load usage, counting from zero until it loads")
		return false
	}
	if rec.ByModel == nil {
		rec.ByModel = make(map[string]int64)
	}
	rec.TotalTokens += t.record.TotalTokens
	for model, n := range t.record.ByModel {
		rec.ByModel[model] += n
	}
	t.record = rec
	t.loaded = true
	return true
}
