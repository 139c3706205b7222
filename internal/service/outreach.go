package service

import (
	"context"
	"fmt"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// OutreachResult summarises one outreach run
type OutreachResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// RunOutreach sends openers to up to count matches that have never been messaged.
// count <= 0 uses the settings' outreach count.
func (p *Pipeline) RunOutreach(ctx context.Context, count int) (OutreachResult, error) {
	if !p.runMu.TryLock() {
		return OutreachResult{}, domain.ErrPassInProgress
	}
	defer p.runMu.Unlock()

	settings := p.deps.Settings.Get()
	if count <= 0 {
		count = settings.OutreachCount
	}
	log := p.log.With().Str("run", "outreach").Logger()

	convs, err := p.deps.Client.ListConversations(ctx, settings.MatchLimit)
	if err != nil {
		return OutreachResult{}, fmt.Errorf("failed to fetch conversations: %w", err)
	}

	targets := p.outreachTargets(ctx, convs, count)
	res := OutreachResult{Total: len(targets)}
	log.Info().Int("targets", len(targets)).Msg("Outreach started")

	for i, conv := range targets {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			if d := p.delay(p.cfg.OutreachDelayMin, p.cfg.OutreachDelayMax); d > 0 {
				if err := p.sleep(ctx, d); err != nil {
					break
				}
			}
		}

		text := p.deps.Openers.Opener(conv.Name(), conv.Biography, settings.Personality)
		rec := domain.Decision{
			ConversationID: conv.ID,
			Name:           conv.Name(),
			ReplyText:      text,
			Personality:    settings.Personality,
			AutoSent:       true,
		}

		if err := p.send(ctx, conv.ID, text, "opener"); err != nil {
			res.Failed++
			rec.Outcome = domain.DecisionFailed
			rec.Error = err.Error()
			p.record(rec)
			p.bump(ctx, domain.StatOpenersFailed, 1)
			log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("Opener not sent")
			continue
		}

		res.Sent++
		if err := p.deps.Outreach.RecordOpener(context.WithoutCancel(ctx), conv.ID, text, p.now()); err != nil {
			log.Error().Err(err).Str("conversation_id", conv.ID).Msg("Opener sent but not recorded")
		}
		rec.Outcome = domain.DecisionOpener
		p.record(rec)
		p.bump(context.WithoutCancel(ctx), domain.StatOpenersSent, 1)
	}

	log.Info().Int("sent", res.Sent).Int("failed", res.Failed).Int("total", res.Total).Msg("Outreach finished")
	return res, nil
}

// outreachTargets picks silent, unrejected, never-contacted conversations
func (p *Pipeline) outreachTargets(ctx context.Context, convs []domain.Conversation, count int) []domain.Conversation {
	var targets []domain.Conversation
	for _, conv := range convs {
		if len(targets) >= count {
			break
		}
		if conv.ID == "" || conv.HasMessages() {
			continue
		}
		if p.deps.Ledger.IsRejected(ctx, conv.ID) || p.deps.Ledger.HasEverReplied(ctx, conv.ID) {
			continue
		}
		sent, err := p.deps.Outreach.HasOpener(ctx, conv.ID)
		if err != nil {
			p.log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("Failed to check opener history, skipping")
			continue
		}
		if sent {
			continue
		}
		targets = append(targets, conv)
	}
	return targets
}
