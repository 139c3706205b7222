package usecase

import "strings"

var fallbackTemplates = []string{
	"Hey {name}! How's your evening going?",
	"Well hello there {name}. What brings you here?",
	"{name}! Love the vibe of your profile. What's been the highlight of your week?",
	"Hi {name}! You seem interesting. Tell me something random about yourself?",
	"Hey {name}, fancy a chat? What's your idea of a perfect Friday night?",
}

// FallbackTemplates returns a copy of the fallback pool
func FallbackTemplates() []string {
	return append([]string(nil), fallbackTemplates...)
}

func renderFallback(tmpl, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}
	return strings.ReplaceAll(tmpl, "{name}", name)
}
