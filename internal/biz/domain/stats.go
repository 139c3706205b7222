package domain

// Stat counter names
const (
	StatRepliesSent   = "replies_sent"
	StatRepliesQueued = "replies_queued"
	StatSendFailures  = "send_failures"
	StatApproved      = "approved"
	StatDiscarded     = "discarded"
	StatFallbacks     = "fallbacks"
	StatOpenersSent   = "openers_sent"
	StatOpenersFailed = "openers_failed"
	StatLikes         = "likes"
	StatPasses        = "passes"
	StatMatches       = "matches"
	StatPipelineRuns  = "pipeline_runs"
)

// SwipeResult summarises one swipe session reported by the client
type SwipeResult struct {
	Likes   int `json:"likes"`
	Passes  int `json:"passes"`
	Matches int `json:"matches"`
}
