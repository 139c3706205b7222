package domain

// Outcome classifies how a generation attempt ended
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeTransient Outcome = "transient"
	OutcomeRefusal   Outcome = "refusal"
	OutcomeFatal     Outcome = "fatal"
)

// ChatTurn is one turn of the prompt sent to a completion backend
type ChatTurn struct {
	Role    string // "user" or "assistant"
	Content string
}

const (
	TurnUser      = "user"
	TurnAssistant = "assistant"
)

// CompletionRequest is a single backend call
type CompletionRequest struct {
	System      string
	Turns       []ChatTurn
	MaxTokens   int
	Temperature float32
}

// Completion is the raw backend answer
type Completion struct {
	Text   string
	Model  string
	Tokens int // 0 when the backend did not report usage
}

// ReplyRequest asks the generator for a reply to a conversation
type ReplyRequest struct {
	Name        string
	Biography   string
	History     []Message
	Personality string
	MaxTokens   int
	Temperature float32
}

// Reply is the generator's result. Text is never empty.
type Reply struct {
	Text        string
	Personality string
	Model       string
	Tokens      int
	Fallback    bool
	Outcome     Outcome // Last classified outcome before returning
}
