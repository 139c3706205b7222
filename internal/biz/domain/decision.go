package domain

// Decision outcomes written to the decision log
const (
	DecisionSent      = "sent"
	DecisionFailed    = "send_failed"
	DecisionQueued    = "queued"
	DecisionApproved  = "approved"
	DecisionDiscarded = "discarded"
	DecisionOpener    = "opener"
)

// Decision is one record of the append-only decision log
type Decision struct {
	ConversationID string `json:"conversation_id"`
	Name           string `json:"name"`
	InboundText    string `json:"inbound_text"`
	ReplyText      string `json:"reply_text"`
	Timestamp      string `json:"timestamp"` // Inbound message timestamp
	Personality    string `json:"personality"`
	AutoSent       bool   `json:"auto_sent"`
	Outcome        string `json:"outcome"`
	Fallback       bool   `json:"fallback,omitempty"`
	Error          string `json:"error,omitempty"`
	LoggedAt       string `json:"logged_at,omitempty"`
}
