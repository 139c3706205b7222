package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

func TestSchedulerRunsPassesWhenEnabled(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(aliceConversation(inbound("hi", "T1")))
	h.settings.Set(func(s *domain.Settings) { s.AutoSwipe = true })
	h.client.swipe = domain.SwipeResult{Likes: 1}

	s := NewScheduler(h.pipeline, h.settings, 10*time.Millisecond, time.Hour, zerolog.Nop())
	s.Start(context.Background())

	require.Eventually(t, func() bool { return len(h.client.Sent()) == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return h.stats.Get(domain.StatLikes) > 0 }, 2*time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, "scheduled", h.pipeline.Status().LastPass.Trigger)
}

func TestSchedulerSkipsWhenDisabled(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness(aliceConversation(inbound("hi", "T1")))
	h.settings.Set(func(s *domain.Settings) { s.BotEnabled = false })

	s := NewScheduler(h.pipeline, h.settings, 5*time.Millisecond, time.Hour, zerolog.Nop())
	s.Start(context.Background())
	time.Sleep(50 * time.Millisecond)
	s.Stop()

	assert.Empty(t, h.client.Sent())
	assert.Nil(t, h.pipeline.Status().LastPass)
}

func TestSchedulerCleanupPrunesDrafts(t *testing.T) {
	defer goleak.VerifyNone(t)

	h := newHarness()
	h.settings.Set(func(s *domain.Settings) { s.BotEnabled = false })
	ctx := context.Background()
	require.NoError(t, h.pending.Add(ctx, &domain.PendingReply{
		ID: "stale", ConversationID: "C1", InboundTimestamp: "T1", CreatedAt: time.Now().Add(-2 * time.Hour),
	}))

	s := NewScheduler(h.pipeline, h.settings, time.Hour, time.Hour, zerolog.Nop())
	s.cleanupInterval = 5 * time.Millisecond
	s.Start(ctx)

	require.Eventually(t, func() bool {
		drafts, _ := h.pending.List(ctx)
		return len(drafts) == 0
	}, 2*time.Second, 5*time.Millisecond)
	s.Stop()
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	h := newHarness()
	s := NewScheduler(h.pipeline, h.settings, time.Second, time.Hour, zerolog.Nop())
	s.Stop()
}
