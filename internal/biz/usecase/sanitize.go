package usecase

import (
	"regexp"
	"strings"
)

var refusalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`i do not feel comfortable`),
	regexp.MustCompile(`i'm sorry`),
	regexp.MustCompile(`unable to`),
	regexp.MustCompile(`cannot continue`),
	regexp.MustCompile(`i do not actually have the ability`),
	regexp.MustCompile(`i should have been more direct`),
	regexp.MustCompile(`i do not engage in roleplay`),
	regexp.MustCompile(`i'm not actually a real person`),
	regexp.MustCompile(`i cannot send real messages`),
	regexp.MustCompile(`i cannot make real phone calls`),
	regexp.MustCompile(`i am an ai program`),
	regexp.MustCompile(`as an ai`),
	regexp.MustCompile(`language model`),
}

var (
	asteriskSpan = regexp.MustCompile(`\*[^*]+\*`)
	bracketSpan  = regexp.MustCompile(`\[[^\]]*\]`)
)

// IsRefusal reports whether a completion declines to write the reply
func IsRefusal(text string) bool {
	lower := strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	for _, p := range refusalPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	return false
}

// Sanitize strips stage directions, collapses whitespace and ensures terminal punctuation.
// It returns "" when nothing is left.
func Sanitize(text string) string {
	text = asteriskSpan.ReplaceAllString(text, "")
	text = bracketSpan.ReplaceAllString(text, "")
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}
	if !strings.ContainsAny(text[len(text)-1:], ".!?") {
		text += "."
	}
	return text
}
