package usecase

import (
	"math/rand"
	"strings"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

var openerTemplates = map[string][]string{
	domain.DefaultPersonality: {
		"Hey {name}! How's your day going?",
		"Hi {name}! Nice to match with you.",
		"Hey there {name}! What are you up to today?",
	},
	"playful": {
		"Hey {name}, you caught my eye!",
		"Well hello there {name}.",
		"Hi {name}! Your smile is absolutely captivating.",
	},
	"funny": {
		"Hey {name}! On a scale of 1-10, how's your day? I'm at a solid 7.5.",
		"Hi {name}! Quick question: pineapple on pizza, yes or no?",
		"Hey {name}! I was going to use a pickup line, but I figured just saying hi might work better.",
	},
	"gentle": {
		"Hi {name}, hope you're having a lovely day.",
		"Hello {name}! Your profile really resonated with me.",
		"Hey {name}, would love to get to know you better.",
	},
}

var bioOpeners = []struct {
	keywords []string
	template string
}{
	{[]string{"coffee"}, "Hey {name}! I see you're into coffee, what's your go-to order?"},
	{[]string{"travel"}, "Hi {name}! Where's your favorite place you've traveled to?"},
	{[]string{"dog", "cat"}, "Hey {name}! Your pet is adorable! What's their name?"},
}

// OpenerWriter picks templated opening messages for empty conversations
type OpenerWriter struct {
	pick func(n int) int
}

// NewOpenerWriter creates an opener writer
func NewOpenerWriter() *OpenerWriter {
	return &OpenerWriter{pick: rand.Intn}
}

// Opener returns an opener for name in the given personality.
// Biography keywords add topical candidates to the default pool.
func (w *OpenerWriter) Opener(name, bio, personality string) string {
	key := strings.ToLower(strings.TrimSpace(personality))
	pool, ok := openerTemplates[key]
	if !ok {
		key = domain.DefaultPersonality
		pool = openerTemplates[key]
	}
	pool = append([]string(nil), pool...)

	if key == domain.DefaultPersonality && bio != "" {
		lower := strings.ToLower(bio)
		for _, b := range bioOpeners {
			for _, kw := range b.keywords {
				if strings.Contains(lower, kw) {
					pool = append(pool, b.template)
					break
				}
			}
		}
	}
	return renderFallback(pool[w.pick(len(pool))], name)
}
