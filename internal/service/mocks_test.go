package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/usecase"
)

// Mock implementations

type sentText struct {
	ConversationID string
	Text           string
}

type mockClient struct {
	mu       sync.Mutex
	convs    []domain.Conversation
	listErr  error
	failSend map[string]bool
	sendErr  error
	sent     []sentText
	swipe    domain.SwipeResult
	swipeErr error
	onSend   func()
}

func (m *mockClient) ListConversations(ctx context.Context, limit int) ([]domain.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := m.convs
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]domain.Conversation(nil), out...), nil
}

func (m *mockClient) Send(ctx context.Context, conversationID, text string) (bool, error) {
	if m.onSend != nil {
		m.onSend()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return false, m.sendErr
	}
	if m.failSend[conversationID] {
		return false, nil
	}
	m.sent = append(m.sent, sentText{ConversationID: conversationID, Text: text})
	return true, nil
}

func (m *mockClient) Swipe(ctx context.Context, limit int) (domain.SwipeResult, error) {
	return m.swipe, m.swipeErr
}

func (m *mockClient) Sent() []sentText {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentText(nil), m.sent...)
}

type mockWriter struct {
	mu       sync.Mutex
	text     string
	fallback bool
	calls    []domain.ReplyRequest
	onCall   func()
}

func (m *mockWriter) Generate(ctx context.Context, req domain.ReplyRequest) domain.Reply {
	if m.onCall != nil {
		m.onCall()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	text := m.text
	if text == "" {
		text = "Hey " + req.Name + "!"
	}
	return domain.Reply{Text: text, Personality: req.Personality, Fallback: m.fallback, Outcome: domain.OutcomeOK}
}

func (m *mockWriter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type mockOpeners struct{}

func (mockOpeners) Opener(name, bio, personality string) string {
	return "Hi " + name
}

type memLedgerRepo struct {
	mu       sync.Mutex
	replied  map[string]string
	rejected map[string]bool
	saveErr  error
}

func newMemLedgerRepo() *memLedgerRepo {
	return &memLedgerRepo{replied: map[string]string{}, rejected: map[string]bool{}}
}

func (m *memLedgerRepo) LoadReplied(ctx context.Context) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.replied))
	for k, v := range m.replied {
		out[k] = v
	}
	return out, nil
}

func (m *memLedgerRepo) SaveReplied(ctx context.Context, conversationID, timestamp string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.replied[conversationID] = timestamp
	return nil
}

func (m *memLedgerRepo) LoadRejected(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.rejected {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memLedgerRepo) AddRejected(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[conversationID] = true
	return nil
}

func (m *memLedgerRepo) RemoveRejected(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rejected, conversationID)
	return nil
}

type memPending struct {
	mu     sync.Mutex
	drafts map[string]*domain.PendingReply
}

func newMemPending() *memPending {
	return &memPending{drafts: map[string]*domain.PendingReply{}}
}

func (m *memPending) Add(ctx context.Context, p *domain.PendingReply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.drafts {
		if d.ConversationID == p.ConversationID && d.InboundTimestamp == p.InboundTimestamp {
			return nil
		}
	}
	cp := *p
	m.drafts[p.ID] = &cp
	return nil
}

func (m *memPending) Get(ctx context.Context, id string) (*domain.PendingReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, domain.ErrPendingNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memPending) Exists(ctx context.Context, conversationID, inboundTimestamp string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.drafts {
		if d.ConversationID == conversationID && d.InboundTimestamp == inboundTimestamp {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPending) List(ctx context.Context) ([]*domain.PendingReply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.PendingReply
	for _, d := range m.drafts {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memPending) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

func (m *memPending) DeleteSuperseded(ctx context.Context, conversationID, keepTimestamp string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.drafts {
		if d.ConversationID == conversationID && d.InboundTimestamp != keepTimestamp {
			delete(m.drafts, id)
			n++
		}
	}
	return n, nil
}

func (m *memPending) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, d := range m.drafts {
		if d.CreatedAt.Before(before) {
			delete(m.drafts, id)
			n++
		}
	}
	return n, nil
}

type memOutreach struct {
	mu      sync.Mutex
	openers map[string]string
}

func (m *memOutreach) HasOpener(ctx context.Context, conversationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.openers[conversationID]
	return ok, nil
}

func (m *memOutreach) RecordOpener(ctx context.Context, conversationID, text string, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openers == nil {
		m.openers = map[string]string{}
	}
	m.openers[conversationID] = text
	return nil
}

type memStats struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *memStats) Increment(ctx context.Context, name string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[name] += delta
	return nil
}

func (m *memStats) All(ctx context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out, nil
}

func (m *memStats) Get(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[name]
}

type memDecisions struct {
	mu   sync.Mutex
	recs []domain.Decision
}

func (m *memDecisions) Append(d domain.Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recs = append(m.recs, d)
	return nil
}

func (m *memDecisions) Recent(n int) ([]domain.Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > len(m.recs) {
		n = len(m.recs)
	}
	return append([]domain.Decision(nil), m.recs[len(m.recs)-n:]...), nil
}

func (m *memDecisions) Outcomes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.recs {
		out = append(out, r.Outcome)
	}
	return out
}

type mockNotifier struct {
	mu       sync.Mutex
	notified []string
	err      error
}

func (m *mockNotifier) NotifyPending(ctx context.Context, p *domain.PendingReply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notified = append(m.notified, p.ID)
	return m.err
}

type staticSettings struct {
	mu sync.Mutex
	s  domain.Settings
}

func (s *staticSettings) Get() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s
}

func (s *staticSettings) Set(fn func(*domain.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.s)
}

func testSettings() domain.Settings {
	return domain.Settings{
		BotEnabled:      true,
		AutoApprove:     true,
		Personality:     "default",
		MatchLimit:      100,
		MaxTokens:       300,
		Temperature:     0.8,
		MessageDelayMin: 30,
		MessageDelayMax: 120,
		OutreachCount:   5,
		SwipeLimit:      20,
	}
}

// harness wires a pipeline over in-memory collaborators
type harness struct {
	client    *mockClient
	writer    *mockWriter
	ledgerDB  *memLedgerRepo
	ledger    *usecase.Ledger
	pending   *memPending
	outreach  *memOutreach
	stats     *memStats
	decisions *memDecisions
	notifier  *mockNotifier
	settings  *staticSettings
	pipeline  *Pipeline
	sleeps    []time.Duration
	sleepMu   sync.Mutex
}

func newHarness(convs ...domain.Conversation) *harness {
	h := &harness{
		client:    &mockClient{convs: convs, failSend: map[string]bool{}},
		writer:    &mockWriter{},
		ledgerDB:  newMemLedgerRepo(),
		pending:   newMemPending(),
		outreach:  &memOutreach{},
		stats:     &memStats{},
		decisions: &memDecisions{},
		notifier:  &mockNotifier{},
		settings:  &staticSettings{s: testSettings()},
	}
	h.ledger = usecase.NewLedger(h.ledgerDB, zerolog.Nop())
	h.pipeline = NewPipeline(PipelineDeps{
		Client:    h.client,
		Writer:    h.writer,
		Openers:   mockOpeners{},
		Ledger:    h.ledger,
		Pending:   h.pending,
		Outreach:  h.outreach,
		Stats:     h.stats,
		Decisions: h.decisions,
		Notifier:  h.notifier,
		Settings:  h.settings,
	}, PipelineConfig{OutreachDelayMin: 5 * time.Second, OutreachDelayMax: 10 * time.Second}, zerolog.Nop())

	var seq atomic.Int64
	h.pipeline.newID = func() string {
		return fmt.Sprintf("id-%d", seq.Add(1))
	}
	h.pipeline.sleep = func(ctx context.Context, d time.Duration) error {
		h.sleepMu.Lock()
		defer h.sleepMu.Unlock()
		h.sleeps = append(h.sleeps, d)
		return ctx.Err()
	}
	return h
}

func (h *harness) Sleeps() []time.Duration {
	h.sleepMu.Lock()
	defer h.sleepMu.Unlock()
	return append([]time.Duration(nil), h.sleeps...)
}

func inbound(content, ts string) domain.Message {
	return domain.Message{Role: domain.RoleInbound, Content: content, Timestamp: ts}
}

func outbound(content, ts string) domain.Message {
	return domain.Message{Role: domain.RoleOutbound, Content: content, Timestamp: ts}
}

var errSinkDown = errors.New("sink unavailable")
