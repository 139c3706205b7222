package service

import (
	"context"
	"fmt"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// SwipeSession runs one swipe session on the client. limit <= 0 uses the settings' swipe limit.
func (p *Pipeline) SwipeSession(ctx context.Context, limit int) (domain.SwipeResult, error) {
	if !p.runMu.TryLock() {
		return domain.SwipeResult{}, domain.ErrPassInProgress
	}
	defer p.runMu.Unlock()

	if limit <= 0 {
		limit = p.deps.Settings.Get().SwipeLimit
	}
	res, err := p.deps.Client.Swipe(ctx, limit)
	if err != nil {
		return res, fmt.Errorf("swipe session failed: %w", err)
	}

	p.bump(ctx, domain.StatLikes, int64(res.Likes))
	p.bump(ctx, domain.StatPasses, int64(res.Passes))
	p.bump(ctx, domain.StatMatches, int64(res.Matches))
	p.log.Info().Int("likes", res.Likes).Int("passes", res.Passes).Int("matches", res.Matches).Msg("Swipe session finished")
	return res, nil
}
