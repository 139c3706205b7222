package domain

// UsageRecord holds cumulative token usage
type UsageRecord struct {
	TotalTokens int64            `json:"total_tokens"`
	ByModel     map[string]int64 `json:"by_model"`
}

// Clone returns a deep copy safe to hand to callers
func (u UsageRecord) Clone() UsageRecord {
	byModel := make(map[string]int64, len(u.ByModel))
	for k, v := range u.ByModel {
		byModel[k] = v
	}
	return UsageRecord{TotalTokens: u.TotalTokens, ByModel: byModel}
}
