package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// Scheduler runs pipeline passes on a fixed interval and prunes stale drafts
type Scheduler struct {
	pipeline *Pipeline
	settings SettingsSource
	log      zerolog.Logger

	interval        time.Duration
	retention       time.Duration
	cleanupInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(pipeline *Pipeline, settings SettingsSource, interval, retention time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		pipeline:        pipeline,
		settings:        settings,
		log:             log.With().Str("component", "scheduler").Logger(),
		interval:        interval,
		retention:       retention,
		cleanupInterval: time.Hour,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(2)
	go s.passLoop()
	go s.cleanupLoop()

	s.log.Info().Dur("interval", s.interval).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for a running pass to return
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.log.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) passLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick(s.ctx)
		}
	}
}

func (s *Scheduler) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.cleanup(s.ctx)
		}
	}
}

// tick runs one scheduled pass if the bot is enabled, then an optional swipe session
func (s *Scheduler) tick(ctx context.Context) {
	settings := s.settings.Get()
	if !settings.BotEnabled {
		s.log.Debug().Msg("Bot disabled, skipping scheduled pass")
		return
	}

	if _, err := s.pipeline.RunPass(ctx, "scheduled"); err != nil {
		if errors.Is(err, domain.ErrPassInProgress) {
			s.log.Debug().Msg("Pass already running, skipping tick")
			return
		}
		s.log.Error().Err(err).Msg("Scheduled pass failed")
	}

	if settings.AutoSwipe && ctx.Err() == nil {
		if _, err := s.pipeline.SwipeSession(ctx, settings.SwipeLimit); err != nil && !errors.Is(err, domain.ErrPassInProgress) {
			s.log.Error().Err(err).Msg("Scheduled swipe failed")
		}
	}
}

func (s *Scheduler) cleanup(ctx context.Context) {
	if s.retention <= 0 {
		return
	}
	n, err := s.pipeline.PrunePending(ctx, s.retention)
	if err != nil {
		s.log.Error().Err(err).Msg("Draft cleanup failed")
		return
	}
	if n > 0 {
		s.log.Info().Int64("count", n).Msg("Pruned stale drafts")
	}
}
