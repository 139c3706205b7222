package domain

import "strings"

// Role identifies who authored a message
type Role string

const (
	RoleInbound  Role = "inbound"  // Written by the match
	RoleOutbound Role = "outbound" // Written by us
)

// Message represents a single chat message
type Message struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"` // ISO-8601, compared only for equality
}

// IsInbound reports whether the match wrote the message
func (m Message) IsInbound() bool {
	return m.Role == RoleInbound
}

// Conversation is a read-only snapshot of a chat with one match
type Conversation struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"name"`
	Biography   string    `json:"bio,omitempty"`
	Messages    []Message `json:"messages"`
}

// LatestInbound returns the newest inbound message, if any
func (c *Conversation) LatestInbound() (Message, bool) {
	for i := len(c.Messages) - 1; i >= 0; i-- {
		if c.Messages[i].IsInbound() {
			return c.Messages[i], true
		}
	}
	return Message{}, false
}

// HasMessages reports whether any message exists in either direction
func (c *Conversation) HasMessages() bool {
	return len(c.Messages) > 0
}

// Validate checks the invariants the pipeline relies on.
// A conversation without an ID, or with an inbound message lacking a timestamp, is malformed.
func (c *Conversation) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrMalformedConversation
	}
	for _, m := range c.Messages {
		if m.IsInbound() && strings.TrimSpace(m.Timestamp) == "" {
			return ErrMalformedConversation
		}
	}
	return nil
}

// Name returns the display name, or a neutral placeholder
func (c *Conversation) Name() string {
	if name := strings.TrimSpace(c.DisplayName); name != "" {
		return name
	}
	return "there"
}
