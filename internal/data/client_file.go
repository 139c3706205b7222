package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/biz/repo"
)

var errSwipeUnsupported = errors.New("swipe is not supported by the file client")

// fileClient bridges to an external automation process through files.
// It reads conversation snapshots from an inbox JSON file and appends
// outgoing messages to an outbox JSONL file that the automation drains.
type fileClient struct {
	inboxPath   string
	outboxPath  string
	typingDelay func() time.Duration

	mu sync.Mutex
}

type inboxFile struct {
	Conversations []domain.Conversation `json:"conversations"`
}

type outboxRecord struct {
	ConversationID string `json:"conversation_id"`
	Text           string `json:"text"`
	TypingDelayMS  int64  `json:"typing_delay_ms,omitempty"`
	QueuedAt       string `json:"queued_at"`
}

// NewFileClient creates a file-backed client
func NewFileClient(inboxPath, outboxPath string, typingDelay func() time.Duration) repo.Client {
	return &fileClient{
		inboxPath:   inboxPath,
		outboxPath:  outboxPath,
		typingDelay: typingDelay,
	}
}

// ListConversations reads the current inbox snapshot. A missing inbox means no conversations.
func (c *fileClient) ListConversations(ctx context.Context, limit int) ([]domain.Conversation, error) {
	data, err := os.ReadFile(c.inboxPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox: %w", err)
	}

	var inbox inboxFile
	if err := json.Unmarshal(data, &inbox); err != nil {
		return nil, fmt.Errorf("failed to parse inbox: %w", err)
	}

	convs := inbox.Conversations
	if limit > 0 && len(convs) > limit {
		convs = convs[:limit]
	}
	return convs, nil
}

// Send appends the message to the outbox. The write is the delivery confirmation.
func (c *fileClient) Send(ctx context.Context, conversationID, text string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	rec := outboxRecord{
		ConversationID: conversationID,
		Text:           text,
		QueuedAt:       time.Now().UTC().Format(time.RFC3339),
	}
	if c.typingDelay != nil {
		rec.TypingDelayMS = c.typingDelay().Milliseconds()
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("failed to encode outbox record: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.outboxPath), 0755); err != nil {
		return false, fmt.Errorf("failed to create outbox directory: %w", err)
	}
	f, err := os.OpenFile(c.outboxPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return false, fmt.Errorf("failed to open outbox: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return false, fmt.Errorf("failed to write outbox: %w", err)
	}
	if err := f.Sync(); err != nil {
		return false, fmt.Errorf("failed to sync outbox: %w", err)
	}
	return true, nil
}

// Swipe is left to the external automation
func (c *fileClient) Swipe(ctx context.Context, limit int) (domain.SwipeResult, error) {
	return domain.SwipeResult{}, errSwipeUnsupported
}
