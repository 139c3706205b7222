package repo

import (
	"context"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// ConversationSource lists conversation snapshots from the dating app
type ConversationSource interface {
	// ListConversations returns at most limit conversations, newest activity first
	ListConversations(ctx context.Context, limit int) ([]domain.Conversation, error)
}

// MessageSink delivers outgoing messages
type MessageSink interface {
	// Send delivers text to a conversation.
	// A nil error with false means the client could not confirm delivery.
	Send(ctx context.Context, conversationID, text string) (bool, error)
}

// Swiper runs a swipe session on the discovery deck
type Swiper interface {
	Swipe(ctx context.Context, limit int) (domain.SwipeResult, error)
}

// Client is the full capability set of an app client
type Client interface {
	ConversationSource
	MessageSink
	Swiper
}
