package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/DevRickLin/wingman/internal/biz/domain"
	"github.com/DevRickLin/wingman/internal/infra/feishu"
	"github.com/DevRickLin/wingman/internal/service"
)

const seenTTL = 5 * time.Minute

const helpText = `Commands:
pending
approve <id> [edited text]
discard <id>
reject <conversation-id>
unreject <conversation-id>
status`

// Operations is the pipeline surface the chat commands drive
type Operations interface {
	Status() service.Status
	ListPending(ctx context.Context) ([]*domain.PendingReply, error)
	Approve(ctx context.Context, id, text string) (*domain.PendingReply, error)
	Discard(ctx context.Context, id string) (*domain.PendingReply, error)
}

// Rejections edits the rejected list
type Rejections interface {
	MarkRejected(ctx context.Context, conversationID string) error
	UnmarkRejected(ctx context.Context, conversationID string) error
}

// Listener receives chat messages
type Listener interface {
	Listen(ctx context.Context, onMessage func(ctx context.Context, msg feishu.Message)) error
}

// Replier answers in a chat
type Replier interface {
	SendText(ctx context.Context, chatID, text string) error
}

// FeishuServer handles operator commands sent to the approval chat
type FeishuServer struct {
	listener Listener
	replier  Replier
	ops      Operations
	rejected Rejections
	chatID   string
	log      zerolog.Logger
	now      func() time.Time

	// Message deduplication cache
	seenMsgsMu sync.Mutex
	seenMsgs   map[string]time.Time // msgID -> first seen
}

// NewFeishuServer creates a command server bound to one chat
func NewFeishuServer(listener Listener, replier Replier, ops Operations, rejected Rejections, chatID string, log zerolog.Logger) *FeishuServer {
	return &FeishuServer{
		listener: listener,
		replier:  replier,
		ops:      ops,
		rejected: rejected,
		chatID:   chatID,
		log:      log.With().Str("component", "feishu").Logger(),
		now:      time.Now,
		seenMsgs: make(map[string]time.Time),
	}
}

// Run listens until ctx is done
func (s *FeishuServer) Run(ctx context.Context) error {
	s.log.Info().Str("chat_id", s.chatID).Msg("Listening for approval commands")
	return s.listener.Listen(ctx, s.handleMessage)
}

func (s *FeishuServer) handleMessage(ctx context.Context, msg feishu.Message) {
	if msg.ChatID != s.chatID {
		return
	}
	if msg.MsgID != "" && s.markSeen(msg.MsgID) {
		s.log.Debug().Str("msg_id", msg.MsgID).Msg("Duplicate message ignored")
		return
	}

	reply := s.execute(ctx, msg.Text)
	if reply == "" {
		return
	}
	if err := s.replier.SendText(ctx, msg.ChatID, reply); err != nil {
		s.log.Warn().Err(err).Msg("Failed to answer command")
	}
}

// execute runs one command line and returns the chat answer.
// Text that is not a command returns "".
func (s *FeishuServer) execute(ctx context.Context, line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	cmd := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	args := fields[1:]

	switch cmd {
	case "help":
		return helpText
	case "status":
		st := s.ops.Status()
		if st.LastPass == nil {
			return fmt.Sprintf("running=%t, no pass yet", st.Running)
		}
		lp := st.LastPass
		return fmt.Sprintf("running=%t, last pass %s: seen=%d sent=%d queued=%d failed=%d",
			st.Running, lp.StartedAt.Format(time.RFC3339), lp.Seen, lp.Sent, lp.Queued, lp.Failed)
	case "pending":
		return s.pending(ctx)
	case "approve":
		if len(args) == 0 {
			return "usage: approve <id> [edited text]"
		}
		p, err := s.ops.Approve(ctx, args[0], afterFields(line, 2))
		if err != nil {
			return describeError("approve", args[0], err)
		}
		return fmt.Sprintf("Sent reply to %s", p.DisplayName)
	case "discard":
		if len(args) != 1 {
			return "usage: discard <id>"
		}
		p, err := s.ops.Discard(ctx, args[0])
		if err != nil {
			return describeError("discard", args[0], err)
		}
		return fmt.Sprintf("Discarded reply to %s", p.DisplayName)
	case "reject":
		if len(args) != 1 {
			return "usage: reject <conversation-id>"
		}
		if err := s.rejected.MarkRejected(ctx, args[0]); err != nil {
			return describeError("reject", args[0], err)
		}
		return "Rejected " + args[0]
	case "unreject":
		if len(args) != 1 {
			return "usage: unreject <conversation-id>"
		}
		if err := s.rejected.UnmarkRejected(ctx, args[0]); err != nil {
			return describeError("unreject", args[0], err)
		}
		return "Unrejected " + args[0]
	default:
		return ""
	}
}

func (s *FeishuServer) pending(ctx context.Context) string {
	items, err := s.ops.ListPending(ctx)
	if err != nil {
		return describeError("list", "pending", err)
	}
	if len(items) == 0 {
		return "No pending replies"
	}
	var b strings.Builder
	for i, p := range items {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s | %s: %s\n  -> %s", p.ID, p.DisplayName, truncate(p.InboundText, 60), truncate(p.Reply, 120))
	}
	return b.String()
}

func describeError(action, target string, err error) string {
	switch {
	case errors.Is(err, domain.ErrPendingNotFound):
		return fmt.Sprintf("No pending reply %s", target)
	case errors.Is(err, domain.ErrAlreadyReplied):
		return fmt.Sprintf("%s was already answered, draft dropped", target)
	default:
		return fmt.Sprintf("Failed to %s %s: %v", action, target, err)
	}
}

// afterFields returns line with its first n whitespace-separated fields removed
func afterFields(line string, n int) string {
	s := strings.TrimSpace(line)
	for i := 0; i < n; i++ {
		idx := strings.IndexFunc(s, unicode.IsSpace)
		if idx < 0 {
			return ""
		}
		s = strings.TrimSpace(s[idx:])
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// markSeen records msgID and reports whether it was already seen
func (s *FeishuServer) markSeen(msgID string) bool {
	s.seenMsgsMu.Lock()
	defer s.seenMsgsMu.Unlock()

	now := s.now()
	if _, ok := s.seenMsgs[msgID]; ok {
		return true
	}
	s.seenMsgs[msgID] = now

	cutoff := now.Add(-seenTTL)
	for id, ts := range s.seenMsgs {
		if ts.Before(cutoff) {
			delete(s.seenMsgs, id)
		}
	}
	return false
}
