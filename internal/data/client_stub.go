package data

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

var stubNames = []string{"Alex", "Jordan", "Sam", "Taylor", "Riley", "Morgan", "Casey", "Jamie", "Avery", "Quinn"}

var stubBios = []string{
	"",
	"Coffee first, adventures second.",
	"Weekend hiker and amateur baker.",
	"Will travel for good food.",
	"Dog person. Ask me about my dog.",
}

// SentMessage is a message delivered through the stub client
type SentMessage struct {
	ConversationID string
	Text           string
}

// StubClient is an in-memory client for development and tests.
// Swipes produce matches with probability MatchRate; matches become empty conversations.
type StubClient struct {
	mu        sync.Mutex
	convs     []domain.Conversation
	sent      []SentMessage
	failing   map[string]bool
	matchRate float64
	likeRate  float64
	rng       *rand.Rand
	now       func() time.Time
	nextID    int
}

// NewStubClient creates a stub client seeded with conversations
func NewStubClient(matchRate float64, seed int64, convs ...domain.Conversation) *StubClient {
	return &StubClient{
		convs:     append([]domain.Conversation(nil), convs...),
		failing:   make(map[string]bool),
		matchRate: matchRate,
		likeRate:  0.7,
		rng:       rand.New(rand.NewSource(seed)),
		now:       time.Now,
	}
}

// ListConversations returns copies of up to limit conversations
func (c *StubClient) ListConversations(ctx context.Context, limit int) ([]domain.Conversation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.convs)
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]domain.Conversation, n)
	for i := 0; i < n; i++ {
		out[i] = c.convs[i]
		out[i].Messages = append([]domain.Message(nil), c.convs[i].Messages...)
	}
	return out, nil
}

// Send records the message and appends it to the conversation
func (c *StubClient) Send(ctx context.Context, conversationID, text string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failing[conversationID] {
		return false, nil
	}
	for i := range c.convs {
		if c.convs[i].ID == conversationID {
			c.convs[i].Messages = append(c.convs[i].Messages, domain.Message{
				Role:      domain.RoleOutbound,
				Content:   text,
				Timestamp: c.now().UTC().Format(time.RFC3339Nano),
			})
			c.sent = append(c.sent, SentMessage{ConversationID: conversationID, Text: text})
			return true, nil
		}
	}
	return false, fmt.Errorf("unknown conversation %s", conversationID)
}

// Swipe simulates a swipe session
func (c *StubClient) Swipe(ctx context.Context, limit int) (domain.SwipeResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var res domain.SwipeResult
	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if c.rng.Float64() >= c.likeRate {
			res.Passes++
			continue
		}
		res.Likes++
		if c.rng.Float64() < c.matchRate {
			res.Matches++
			c.nextID++
			c.convs = append(c.convs, domain.Conversation{
				ID:          fmt.Sprintf("stub-match-%d", c.nextID),
				DisplayName: stubNames[c.rng.Intn(len(stubNames))],
				Biography:   stubBios[c.rng.Intn(len(stubBios))],
			})
		}
	}
	return res, nil
}

// AddInbound appends an inbound message to a conversation, creating it if needed
func (c *StubClient) AddInbound(conversationID, name, text, timestamp string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := domain.Message{Role: domain.RoleInbound, Content: text, Timestamp: timestamp}
	for i := range c.convs {
		if c.convs[i].ID == conversationID {
			c.convs[i].Messages = append(c.convs[i].Messages, msg)
			return
		}
	}
	c.convs = append(c.convs, domain.Conversation{ID: conversationID, DisplayName: name, Messages: []domain.Message{msg}})
}

// FailSends makes sends to conversationID report failure
func (c *StubClient) FailSends(conversationID string, fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failing[conversationID] = fail
}

// Sent returns every delivered message
func (c *StubClient) Sent() []SentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]SentMessage(nil), c.sent...)
}
