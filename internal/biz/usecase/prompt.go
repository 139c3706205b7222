package usecase

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// PromptConfig controls how generation prompts are assembled
type PromptConfig struct {
	HistoryTurns   int            // Turns kept from the end of the conversation
	OpenerMaxTurns int            // Histories this short get an opening-message instruction
	Location       *time.Location // Reference timezone for {{current_date}} / {{current_time}}
}

// DefaultPromptConfig is the default prompt configuration
var DefaultPromptConfig = PromptConfig{
	HistoryTurns:   10,
	OpenerMaxTurns: 2,
	Location:       time.UTC,
}

var mediaWords = regexp.MustCompile(`(?i)\b(photo|picture|image|selfie|gif)s?\b`)

// RenderSystemPrompt fills the profile template placeholders.
// A modifier is appended when the template has no {{modifier}} slot.
func RenderSystemPrompt(p domain.Profile, name string, now time.Time) string {
	r := strings.NewReplacer(
		"{{current_date}}", now.Format("January 02, 2006"),
		"{{current_time}}", now.Format("15:04"),
		"{{name}}", name,
		"{{traits}}", strings.Join(p.Traits, ", "),
		"{{modifier}}", p.Modifier,
	)
	out := r.Replace(p.Template)
	if p.Modifier != "" && !strings.Contains(p.Template, "{{modifier}}") {
		out = strings.TrimRight(out, "\n") + "\n\n" + p.Modifier
	}
	return out
}

// BuildTurns converts conversation history into prompt turns
func BuildTurns(cfg PromptConfig, name, bio string, history []domain.Message) []domain.ChatTurn {
	if cfg.HistoryTurns > 0 && len(history) > cfg.HistoryTurns {
		history = history[len(history)-cfg.HistoryTurns:]
	}

	turns := make([]domain.ChatTurn, 0, len(history)+2)
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := domain.TurnAssistant
		if m.IsInbound() {
			role = domain.TurnUser
		}
		turns = append(turns, domain.ChatTurn{Role: role, Content: m.Content})
	}

	if len(turns) <= cfg.OpenerMaxTurns {
		turns = append(turns, domain.ChatTurn{Role: domain.TurnUser, Content: openerInstruction(name, bio)})
	}

	if n := len(history); n > 0 && history[n-1].IsInbound() && MentionsMedia(history[n-1].Content) {
		turns = append(turns, domain.ChatTurn{
			Role:    domain.TurnUser,
			Content: fmt.Sprintf("%s just sent a photo or GIF. React to it warmly and naturally.", name),
		})
	}
	return turns
}

// MentionsMedia reports whether text refers to a photo, picture, image, selfie or gif
func MentionsMedia(text string) bool {
	return mediaWords.MatchString(text)
}

func openerInstruction(name, bio string) string {
	about := "No bio provided."
	if b := strings.TrimSpace(bio); b != "" {
		about = "Their bio says: " + b
	}
	return fmt.Sprintf("You matched with %s. %s Write an engaging opening message that will get a response.", name, about)
}
