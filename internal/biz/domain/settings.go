package domain

import (
	"fmt"
	"time"
)

// Settings are the operator-adjustable runtime knobs
type Settings struct {
	BotEnabled      bool    `yaml:"bot_enabled" json:"bot_enabled"`
	AutoApprove     bool    `yaml:"auto_approve" json:"auto_approve"`
	AutoSwipe       bool    `yaml:"auto_swipe" json:"auto_swipe"`
	Personality     string  `yaml:"personality" json:"personality"`
	MatchLimit      int     `yaml:"match_limit" json:"match_limit"`
	TypingDelay     float64 `yaml:"typing_delay" json:"typing_delay"` // Seconds, passed to the client
	MaxTokens       int     `yaml:"max_tokens" json:"max_tokens"`
	Temperature     float32 `yaml:"temperature" json:"temperature"`
	MessageDelayMin int     `yaml:"message_delay_min" json:"message_delay_min"` // Seconds
	MessageDelayMax int     `yaml:"message_delay_max" json:"message_delay_max"` // Seconds
	OutreachCount   int     `yaml:"outreach_count" json:"outreach_count"`
	SwipeLimit      int     `yaml:"swipe_limit" json:"swipe_limit"`
}

// Validate rejects settings the pipeline cannot honour
func (s Settings) Validate() error {
	switch {
	case s.MatchLimit <= 0:
		return fmt.Errorf("match_limit must be positive")
	case s.MaxTokens <= 0:
		return fmt.Errorf("max_tokens must be positive")
	case s.Temperature < 0 || s.Temperature > 2:
		return fmt.Errorf("temperature must be within [0, 2]")
	case s.MessageDelayMin < 0 || s.MessageDelayMax < s.MessageDelayMin:
		return fmt.Errorf("message delay range [%d, %d] is invalid", s.MessageDelayMin, s.MessageDelayMax)
	case s.TypingDelay < 0:
		return fmt.Errorf("typing_delay must not be negative")
	}
	return nil
}

// TypingPause returns the typing delay as a duration, keeping fractional seconds
func (s Settings) TypingPause() time.Duration {
	return time.Duration(s.TypingDelay * float64(time.Second))
}

// DelayRange returns the pacing bounds as durations
func (s Settings) DelayRange() (time.Duration, time.Duration) {
	return time.Duration(s.MessageDelayMin) * time.Second, time.Duration(s.MessageDelayMax) * time.Second
}
