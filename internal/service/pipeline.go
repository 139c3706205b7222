package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/repo"
	"github.com/DevRickLin/wingman/internal/biz/usecase"
	"github.com/DevRickLin/wingman/internal/infra/metrics"
)

// Conversation decisions recorded per pass
const (
	decisionSent       = "sent"
	decisionFailed     = "send_failed"
	decisionQueued     = "queued"
	decisionRejected   = "skipped_rejected"
	decisionMalformed  = "skipped_malformed"
	decisionNoInbound  = "skipped_no_inbound"
	decisionReplied    = "skipped_replied"
	decisionHasPending = "skipped_pending"
	decisionAbandoned  = "abandoned"
)

// ReplyWriter produces a reply for a conversation. It never fails.
type ReplyWriter interface {
	Generate(ctx context.Context, req domain.ReplyRequest) domain.Reply
}

// OpenerSource writes first messages for silent matches
type OpenerSource interface {
	Opener(name, bio, personality string) string
}

// SettingsSource provides the current runtime settings snapshot
type SettingsSource interface {
	Get() domain.Settings
}

// PipelineConfig holds process-level pipeline tuning
type PipelineConfig struct {
	PassTimeout      time.Duration
	Concurrency      int
	OutreachDelayMin time.Duration
	OutreachDelayMax time.Duration
}

// PipelineDeps are the collaborators of a Pipeline
type PipelineDeps struct {
	Client    repo.Client
	Writer    ReplyWriter
	Openers   OpenerSource
	Ledger    *usecase.Ledger
	Pending   repo.PendingRepo
	Outreach  repo.OutreachRepo
	Stats     repo.StatsRepo
	Decisions repo.DecisionLog
	Notifier  repo.Notifier
	Settings  SettingsSource
}

// PassResult summarises one pipeline pass
type PassResult struct {
	ID         string        `json:"id"`
	Trigger    string        `json:"trigger"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Seen       int           `json:"seen"`
	Sent       int           `json:"sent"`
	Queued     int           `json:"queued"`
	Failed     int           `json:"failed"`
	Skipped    int           `json:"skipped"`
	Abandoned  int           `json:"abandoned"`
	Fallbacks  int           `json:"fallbacks"`
	TimedOut   bool          `json:"timed_out"`
	FetchError string        `json:"fetch_error,omitempty"`
}

// Status reports whether a pass is running and how the last one went
type Status struct {
	Running  bool        `json:"running"`
	LastPass *PassResult `json:"last_pass,omitempty"`
}

// Pipeline drives the fetch, filter, generate, dispatch cycle over the client's conversations.
// Passes, outreach runs and swipe sessions are serialised by one lock.
type Pipeline struct {
	deps PipelineDeps
	cfg  PipelineConfig
	log  zerolog.Logger

	runMu   sync.Mutex
	running atomic.Bool
	last    atomic.Pointer[PassResult]

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	delay func(min, max time.Duration) time.Duration
	newID func() string
}

// NewPipeline creates a new pipeline
func NewPipeline(deps PipelineDeps, cfg PipelineConfig, log zerolog.Logger) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pipeline{
		deps:  deps,
		cfg:   cfg,
		log:   log.With().Str("component", "pipeline").Logger(),
		now:   time.Now,
		sleep: sleepCtx,
		delay: uniformDelay,
		newID: uuid.NewString,
	}
}

// Status returns the current pass status
func (p *Pipeline) Status() Status {
	return Status{Running: p.running.Load(), LastPass: p.last.Load()}
}

// RunPass processes every fetched conversation once.
// It returns domain.ErrPassInProgress if another run holds the lock.
func (p *Pipeline) RunPass(ctx context.Context, trigger string) (PassResult, error) {
	if !p.runMu.TryLock() {
		return PassResult{}, domain.ErrPassInProgress
	}
	defer p.runMu.Unlock()
	p.running.Store(true)
	defer p.running.Store(false)

	res := PassResult{ID: p.newID(), Trigger: trigger, StartedAt: p.now()}
	log := p.log.With().Str("pass_id", res.ID).Str("trigger", trigger).Logger()

	if p.cfg.PassTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.PassTimeout)
		defer cancel()
	}

	settings := p.deps.Settings.Get()
	p.bump(ctx, domain.StatPipelineRuns, 1)

	convs, err := p.deps.Client.ListConversations(ctx, settings.MatchLimit)
	if err != nil {
		res.FetchError = err.Error()
		p.finish(&res, "fetch_error")
		log.Error().Err(err).Msg("Failed to fetch conversations")
		return res, fmt.Errorf("failed to fetch conversations: %w", err)
	}
	res.Seen = len(convs)
	log.Info().Int("conversations", len(convs)).Bool("auto_approve", settings.AutoApprove).Msg("Pass started")

	var mu sync.Mutex
	tally := func(decision string, fallback bool) {
		metrics.ConversationsTotal.WithLabelValues(decision).Inc()
		mu.Lock()
		defer mu.Unlock()
		switch decision {
		case decisionSent:
			res.Sent++
		case decisionQueued:
			res.Queued++
		case decisionFailed:
			res.Failed++
		case decisionAbandoned:
			res.Abandoned++
		default:
			res.Skipped++
		}
		if fallback {
			res.Fallbacks++
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Concurrency)
	for i := range convs {
		conv := convs[i]
		if ctx.Err() != nil {
			tally(decisionAbandoned, false)
			continue
		}
		g.Go(func() error {
			decision, fallback := p.handle(ctx, conv, settings, log)
			tally(decision, fallback)
			return nil
		})
	}
	_ = g.Wait()

	res.TimedOut = ctx.Err() != nil
	result := "ok"
	if res.TimedOut {
		result = "timeout"
	}
	p.finish(&res, result)

	log.Info().
		Int("sent", res.Sent).
		Int("queued", res.Queued).
		Int("failed", res.Failed).
		Int("skipped", res.Skipped).
		Int("abandoned", res.Abandoned).
		Dur("duration", res.Duration).
		Msg("Pass finished")
	return res, nil
}

func (p *Pipeline) finish(res *PassResult, result string) {
	res.Duration = p.now().Sub(res.StartedAt)
	metrics.PassesTotal.WithLabelValues(res.Trigger, result).Inc()
	metrics.PassDuration.Observe(res.Duration.Seconds())
	snapshot := *res
	p.last.Store(&snapshot)
}

// handle runs one conversation through filter, dedup, generate and dispatch
func (p *Pipeline) handle(ctx context.Context, conv domain.Conversation, settings domain.Settings, log zerolog.Logger) (string, bool) {
	log = log.With().Str("conversation_id", conv.ID).Logger()

	if err := conv.Validate(); err != nil {
		log.Warn().Err(err).Msg("Skipping malformed conversation")
		return decisionMalformed, false
	}
	if p.deps.Ledger.IsRejected(ctx, conv.ID) {
		return decisionRejected, false
	}
	inbound, ok := conv.LatestInbound()
	if !ok {
		return decisionNoInbound, false
	}

	release := p.deps.Ledger.Guard(conv.ID)
	defer release()

	if p.deps.Ledger.HasReplied(ctx, conv.ID, inbound.Timestamp) {
		return decisionReplied, false
	}
	if !settings.AutoApprove {
		exists, err := p.deps.Pending.Exists(ctx, conv.ID, inbound.Timestamp)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to check pending drafts")
		}
		if exists {
			return decisionHasPending, false
		}
	}
	if ctx.Err() != nil {
		return decisionAbandoned, false
	}

	reply := p.deps.Writer.Generate(ctx, domain.ReplyRequest{
		Name:        conv.Name(),
		Biography:   conv.Biography,
		History:     conv.Messages,
		Personality: settings.Personality,
		MaxTokens:   settings.MaxTokens,
		Temperature: settings.Temperature,
	})
	if ctx.Err() != nil {
		log.Warn().Msg("Pass deadline reached after generation, leaving conversation for the next pass")
		return decisionAbandoned, false
	}
	if reply.Fallback {
		p.bump(ctx, domain.StatFallbacks, 1)
	}

	rec := domain.Decision{
		ConversationID: conv.ID,
		Name:           conv.Name(),
		InboundText:    inbound.Content,
		ReplyText:      reply.Text,
		Timestamp:      inbound.Timestamp,
		Personality:    reply.Personality,
		Fallback:       reply.Fallback,
	}

	if !settings.AutoApprove {
		return p.queue(ctx, conv, inbound, reply, rec, log), reply.Fallback
	}

	rec.AutoSent = true
	if err := p.send(ctx, conv.ID, reply.Text, "reply"); err != nil {
		log.Warn().Err(err).Msg("Reply not sent, ledger unchanged")
		rec.Outcome = domain.DecisionFailed
		rec.Error = err.Error()
		p.record(rec)
		p.bump(ctx, domain.StatSendFailures, 1)
		p.pace(ctx, settings)
		return decisionFailed, reply.Fallback
	}

	// The reply is out, so its bookkeeping outlives the pass deadline
	persist := context.WithoutCancel(ctx)
	if err := p.deps.Ledger.MarkReplied(persist, conv.ID, inbound.Timestamp); err != nil {
		log.Error().Err(err).Msg("Reply sent but ledger write failed")
	}
	p.dropSuperseded(persist, conv.ID, inbound.Timestamp, log)
	rec.Outcome = domain.DecisionSent
	p.record(rec)
	p.bump(persist, domain.StatRepliesSent, 1)
	log.Info().Bool("fallback", reply.Fallback).Msg("Reply sent")

	p.pace(ctx, settings)
	return decisionSent, reply.Fallback
}

// queue stores a draft for operator approval
func (p *Pipeline) queue(ctx context.Context, conv domain.Conversation, inbound domain.Message, reply domain.Reply, rec domain.Decision, log zerolog.Logger) string {
	draft := &domain.PendingReply{
		ID:               p.newID(),
		ConversationID:   conv.ID,
		DisplayName:      conv.Name(),
		InboundText:      inbound.Content,
		InboundTimestamp: inbound.Timestamp,
		Reply:            reply.Text,
		Personality:      reply.Personality,
		Fallback:         reply.Fallback,
		CreatedAt:        p.now(),
	}
	if err := p.deps.Pending.Add(ctx, draft); err != nil {
		log.Error().Err(err).Msg("Failed to queue draft")
		rec.Outcome = domain.DecisionFailed
		rec.Error = err.Error()
		p.record(rec)
		return decisionFailed
	}
	p.dropSuperseded(ctx, conv.ID, inbound.Timestamp, log)
	if err := p.deps.Notifier.NotifyPending(ctx, draft); err != nil {
		log.Warn().Err(err).Msg("Failed to notify operator of draft")
	}

	rec.Outcome = domain.DecisionQueued
	p.record(rec)
	p.bump(ctx, domain.StatRepliesQueued, 1)
	log.Info().Str("pending_id", draft.ID).Msg("Draft queued for approval")
	return decisionQueued
}

// send delivers text through the client. A send already started is not cut
// short by the pass deadline. (false, nil) counts as a failure.
func (p *Pipeline) send(ctx context.Context, conversationID, text, kind string) error {
	ok, err := p.deps.Client.Send(context.WithoutCancel(ctx), conversationID, text)
	switch {
	case err != nil:
		metrics.SendsTotal.WithLabelValues(kind, "error").Inc()
		return fmt.Errorf("send to %s: %w", conversationID, err)
	case !ok:
		metrics.SendsTotal.WithLabelValues(kind, "rejected").Inc()
		return fmt.Errorf("send to %s: %w", conversationID, domain.ErrSendRejected)
	}
	metrics.SendsTotal.WithLabelValues(kind, "ok").Inc()
	return nil
}

// dropSuperseded removes a conversation's drafts for messages older than the
// one at timestamp. Approving one of those would answer a stale message and
// move the ledger backwards.
func (p *Pipeline) dropSuperseded(ctx context.Context, conversationID, timestamp string, log zerolog.Logger) {
	n, err := p.deps.Pending.DeleteSuperseded(ctx, conversationID, timestamp)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to drop superseded drafts")
		return
	}
	if n > 0 {
		log.Info().Int64("dropped", n).Msg("Dropped drafts for older messages")
	}
}

// pace waits a random interval from the settings' delay range
func (p *Pipeline) pace(ctx context.Context, settings domain.Settings) {
	min, max := settings.DelayRange()
	if d := p.delay(min, max); d > 0 {
		_ = p.sleep(ctx, d)
	}
}

func (p *Pipeline) bump(ctx context.Context, name string, delta int64) {
	if delta == 0 {
		return
	}
	if err := p.deps.Stats.Increment(ctx, name, delta); err != nil {
		p.log.Warn().Err(err).Str("stat", name).Msg("Failed to update stats")
	}
}

func (p *Pipeline) record(d domain.Decision) {
	if err := p.deps.Decisions.Append(d); err != nil {
		p.log.Warn().Err(err).Str("conversation_id", d.ConversationID).Msg("Failed to append decision log")
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// uniformDelay picks a duration uniformly from [min, max]
func uniformDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min+1)
}
