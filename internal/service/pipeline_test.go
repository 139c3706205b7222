package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/usecase"
	"github.com/DevRickLin/wingman/internal/data"
)

func aliceConversation(msgs ...domain.Message) domain.Conversation {
	return domain.Conversation{ID: "C1", DisplayName: "Alice", Messages: msgs}
}

func TestRunPassSendsReplyAndMarksLedger(t *testing.T) {
	h := newHarness(aliceConversation(inbound("hi there", "T1")))
	ctx := context.Background()

	res, err := h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Seen)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, []sentText{{ConversationID: "C1", Text: "Hey Alice!"}}, h.client.Sent())
	assert.True(t, h.ledger.HasReplied(ctx, "C1", "T1"))
	assert.Equal(t, "T1", h.ledgerDB.replied["C1"])
	assert.Equal(t, []string{domain.DecisionSent}, h.decisions.Outcomes())
	assert.True(t, h.decisions.recs[0].AutoSent)
	assert.Equal(t, int64(1), h.stats.Get(domain.StatRepliesSent))
	assert.Equal(t, int64(1), h.stats.Get(domain.StatPipelineRuns))

	require.Len(t, h.writer.calls, 1)
	assert.Equal(t, "Alice", h.writer.calls[0].Name)
	assert.Equal(t, "default", h.writer.calls[0].Personality)
	assert.Equal(t, 300, h.writer.calls[0].MaxTokens)

	sleeps := h.Sleeps()
	require.Len(t, sleeps, 1)
	assert.GreaterOrEqual(t, sleeps[0], 30*time.Second)
	assert.LessOrEqual(t, sleeps[0], 120*time.Second)
}

func TestRunPassIsIdempotent(t *testing.T) {
	h := newHarness(aliceConversation(inbound("hi there", "T1")))
	ctx := context.Background()

	_, err := h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)
	res, err := h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)

	assert.Equal(t, 0, res.Sent)
	assert.Equal(t, 1, res.Skipped)
	assert.Len(t, h.client.Sent(), 1)
	assert.Equal(t, 1, h.writer.Calls())
}

func TestRunPassRepliesToNewInbound(t *testing.T) {
	h := newHarness(aliceConversation(inbound("hi there", "T1")))
	ctx := context.Background()

	_, err := h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)

	h.client.mu.Lock()
	h.client.convs[0].Messages = append(h.client.convs[0].Messages,
		outbound("Hey Alice!", "T1b"),
		inbound("how was your day?", "T2"),
	)
	h.client.mu.Unlock()

	res, err := h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.True(t, h.ledger.HasReplied(ctx, "C1", "T2"))
	assert.Len(t, h.client.Sent(), 2)
}

func TestRunPassSkipsWhenLatestMessageIsOutbound(t *testing.T) {
	h := newHarness(aliceConversation(inbound("hi", "T1"), outbound("hello!", "T2")))
	ctx := context.Background()
	require.NoError(t, h.ledger.MarkReplied(ctx, "C1", "T1"))

	res, err := h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
	assert.Empty(t, h.client.Sent())
}

func TestRunPassSkipsRejected(t *testing.T) {
	h := newHarness(
		aliceConversation(inbound("hi", "T1")),
		domain.Conversation{ID: "C2", DisplayName: "Bea", Messages: []domain.Message{inbound("yo", "T1")}},
	)
	ctx := context.Background()
	require.NoError(t, h.ledger.MarkRejected(ctx, "C1"))

	res, err := h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []sentText{{ConversationID: "C2", Text: "Hey Bea!"}}, h.client.Sent())
	assert.False(t, h.ledger.HasReplied(ctx, "C1", "T1"))
}

func TestRunPassSkipsMalformedAndSilent(t *testing.T) {
	h := newHarness(
		domain.Conversation{ID: "", Messages: []domain.Message{inbound("hi", "T1")}},
		domain.Conversation{ID: "C2", Messages: []domain.Message{inbound("no time", "")}},
		domain.Conversation{ID: "C3"},
		domain.Conversation{ID: "C4", Messages: []domain.Message{outbound("hello?", "T1")}},
		aliceConversation(inbound("hi", "T1")),
	)

	res, err := h.pipeline.RunPass(context.Background(), "manual")
	require.NoError(t, err)

	assert.Equal(t, 5, res.Seen)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 4, res.Skipped)
	assert.Equal(t, 1, h.writer.Calls())
}

func TestRunPassSendRejectedLeavesLedgerUntouched(t *testing.T) {
	h := newHarness(aliceConversation(inbound("hi", "T1")))
	h.client.failSend["C1"] = true
	ctx := context.Background()

	res, err := h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.False(t, h.ledger.HasReplied(ctx, "C1", "T1"))
	assert.Empty(t, h.ledgerDB.replied)
	assert.Equal(t, []string{domain.DecisionFailed}, h.decisions.Outcomes())
	assert.Contains(t, h.decisions.recs[0].Error, domain.ErrSendRejected.Error())
	assert.Equal(t, int64(1), h.stats.Get(domain.StatSendFailures))
	assert.Len(t, h.Sleeps(), 1, "failed sends are paced like successful ones")

	// Next pass retries once the sink recovers
	h.client.mu.Lock()
	h.client.failSend["C1"] = false
	h.client.mu.Unlock()

	res, err = h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.True(t, h.ledger.HasReplied(ctx, "C1", "T1"))
}

func TestRunPassSendErrorCountsAsFailure(t *testing.T) {
	h := newHarness(aliceConversation(inbound("hi", "T1")))
	h.client.sendErr = errSinkDown

	res, err := h.pipeline.RunPass(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Contains(t, h.decisions.recs[0].Error, "sink unavailable")
}

func TestRunPassLedgerWriteFailureStillBlocksResend(t *testing.T) {
	h := newHarness(aliceConversation(inbound("hi", "T1")))
	h.ledgerDB.saveErr = fmt.Errorf("disk full")
	ctx := context.Background()

	res, err := h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Sent)

	res, err = h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)
	assert.Equal(t, 0, res.Sent)
	assert.Len(t, h.client.Sent(), 1)
}

func TestRunPassFetchError(t *testing.T) {
	h := newHarness()
	h.client.listErr = errSinkDown

	res, err := h.pipeline.RunPass(context.Background(), "manual")
	require.Error(t, err)
	assert.ErrorIs(t, err, errSinkDown)
	assert.Equal(t, "sink unavailable", res.FetchError)
	require.NotNil(t, h.pipeline.Status().LastPass)
	assert.Equal(t, "sink unavailable", h.pipeline.Status().LastPass.FetchError)
}

func TestRunPassRejectsConcurrentRun(t *testing.T) {
	h := newHarness(aliceConversation(inbound("hi", "T1")))
	h.pipeline.runMu.Lock()
	defer h.pipeline.runMu.Unlock()

	_, err := h.pipeline.RunPass(context.Background(), "manual")
	assert.ErrorIs(t, err, domain.ErrPassInProgress)

	_, err = h.pipeline.RunOutreach(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrPassInProgress)

	_, err = h.pipeline.SwipeSession(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrPassInProgress)
}

func TestRunPassStatusReportsRunning(t *testing.T) {
	h := newHarness(aliceConversation(inbound("hi", "T1")))
	var during Status
	h.client.onSend = func() { during = h.pipeline.Status() }

	_, err := h.pipeline.RunPass(context.Background(), "manual")
	require.NoError(t, err)

	assert.True(t, during.Running)
	status := h.pipeline.Status()
	assert.False(t, status.Running)
	require.NotNil(t, status.LastPass)
	assert.Equal(t, 1, status.LastPass.Sent)
	assert.Equal(t, "manual", status.LastPass.Trigger)
}

func TestRunPassAbandonsAfterDeadline(t *testing.T) {
	h := newHarness(
		aliceConversation(inbound("hi", "T1")),
		domain.Conversation{ID: "C2", DisplayName: "Bea", Messages: []domain.Message{inbound("yo", "T1")}},
	)
	ctx, cancel := context.WithCancel(context.Background())
	h.writer.onCall = cancel

	res, err := h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.Equal(t, 2, res.Abandoned)
	assert.Empty(t, h.client.Sent())
	assert.False(t, h.ledger.HasReplied(context.Background(), "C1", "T1"))
	assert.Equal(t, 1, h.writer.Calls())
}

func TestRunPassPassTimeout(t *testing.T) {
	h := newHarness(aliceConversation(inbound("hi", "T1")))
	h.pipeline.cfg.PassTimeout = time.Nanosecond
	h.client.mu.Lock()
	h.client.convs = append(h.client.convs, domain.Conversation{ID: "C2", Messages: []domain.Message{inbound("yo", "T1")}})
	h.client.mu.Unlock()

	res, err := h.pipeline.RunPass(context.Background(), "scheduled")
	require.NoError(t, err)
	assert.True(t, res.TimedOut)
	assert.Empty(t, h.client.Sent())
}

func TestRunPassConcurrentConversations(t *testing.T) {
	var convs []domain.Conversation
	for i := 0; i < 12; i++ {
		convs = append(convs, domain.Conversation{
			ID:          fmt.Sprintf("C%d", i),
			DisplayName: fmt.Sprintf("Match %d", i),
			Messages:    []domain.Message{inbound("hi", "T1")},
		})
	}
	h := newHarness(convs...)
	h.pipeline.cfg.Concurrency = 4

	res, err := h.pipeline.RunPass(context.Background(), "manual")
	require.NoError(t, err)

	assert.Equal(t, 12, res.Sent)
	seen := map[string]int{}
	for _, s := range h.client.Sent() {
		seen[s.ConversationID]++
	}
	assert.Len(t, seen, 12)
	for id, n := range seen {
		assert.Equal(t, 1, n, id)
	}
	assert.Equal(t, 12, h.ledger.RepliedCount(context.Background()))
}

func TestRunPassHonoursMatchLimit(t *testing.T) {
	h := newHarness(
		aliceConversation(inbound("hi", "T1")),
		domain.Conversation{ID: "C2", Messages: []domain.Message{inbound("yo", "T1")}},
	)
	h.settings.Set(func(s *domain.Settings) { s.MatchLimit = 1 })

	res, err := h.pipeline.RunPass(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Seen)
}

func TestRunPassCountsFallbacks(t *testing.T) {
	h := newHarness(aliceConversation(inbound("hi", "T1")))
	h.writer.fallback = true
	h.writer.text = "Hey Alice! How's your week going?"

	res, err := h.pipeline.RunPass(context.Background(), "manual")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Fallbacks)
	assert.Equal(t, int64(1), h.stats.Get(domain.StatFallbacks))
	assert.True(t, h.decisions.recs[0].Fallback)
}

func TestUniformDelay(t *testing.T) {
	assert.Equal(t, 5*time.Second, uniformDelay(5*time.Second, 5*time.Second))
	assert.Equal(t, 5*time.Second, uniformDelay(5*time.Second, time.Second))
	for i := 0; i < 100; i++ {
		d := uniformDelay(time.Second, 2*time.Second)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.LessOrEqual(t, d, 2*time.Second)
	}
}

func TestRunPassSendErrorIsPaced(t *testing.T) {
	h := newHarness(
		aliceConversation(inbound("hi", "T1")),
		domain.Conversation{ID: "C2", DisplayName: "Bea", Messages: []domain.Message{inbound("yo", "T1")}},
	)
	h.client.sendErr = errSinkDown

	res, err := h.pipeline.RunPass(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Len(t, h.Sleeps(), 2)
}

// withSQLiteLedger swaps the harness ledger for one on a real database
func withSQLiteLedger(t *testing.T, h *harness) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wingman.db")
	db, err := data.OpenDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h.ledger = usecase.NewLedger(data.NewLedgerRepo(db), zerolog.Nop())
	h.pipeline.deps.Ledger = h.ledger
	return path
}

func reopenLedger(t *testing.T, path string) *usecase.Ledger {
	t.Helper()
	db, err := data.OpenDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return usecase.NewLedger(data.NewLedgerRepo(db), zerolog.Nop())
}

func TestRunPassMarkPersistsWhenCancelledDuringSend(t *testing.T) {
	h := newHarness(aliceConversation(inbound("hey!", "T1")))
	path := withSQLiteLedger(t, h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.client.onSend = cancel

	res, err := h.pipeline.RunPass(ctx, "manual")
	require.NoError(t, err)
	require.Equal(t, 1, res.Sent)
	require.Len(t, h.client.Sent(), 1)

	restarted := reopenLedger(t, path)
	assert.True(t, restarted.HasReplied(context.Background(), "C1", "T1"))
}
