package domain

import "time"

// PendingReply is a drafted reply waiting for operator approval
type PendingReply struct {
	ID               string    `json:"id"`
	ConversationID   string    `json:"conversation_id"`
	DisplayName      string    `json:"name"`
	InboundText      string    `json:"inbound_text"`
	InboundTimestamp string    `json:"inbound_timestamp"`
	Reply            string    `json:"reply"`
	Personality      string    `json:"personality"`
	Fallback         bool      `json:"fallback"`
	CreatedAt        time.Time `json:"created_at"`
}
