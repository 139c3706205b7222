package conf

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DevRickLin/wingman/internal/biz/domain"
)

// PersonalitiesFile is the YAML layout of personalities.yaml
type PersonalitiesFile struct {
	Bases     map[string]domain.BaseProfile `yaml:"bases"`
	Modifiers map[string]domain.Modifier    `yaml:"modifiers"`
}

// LoadPersonalities loads the personality catalog from YAML.
// An empty path or a missing file yields the built-in catalog.
func LoadPersonalities(path string) (*domain.Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultCatalog(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read personalities: %w", err)
	}
	return ParsePersonalities(data)
}

// ParsePersonalities parses a personalities document and fills in defaults
func ParsePersonalities(data []byte) (*domain.Catalog, error) {
	var file PersonalitiesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse personalities: %w", err)
	}

	catalog := &domain.Catalog{
		Bases:     make(map[string]domain.BaseProfile, len(file.Bases)+1),
		Modifiers: make(map[string]domain.Modifier, len(file.Modifiers)),
	}
	for name, b := range file.Bases {
		key := strings.ToLower(name)
		b.Name = key
		if strings.TrimSpace(b.Template) == "" {
			return nil, fmt.Errorf("personality %q: template is required", name)
		}
		catalog.Bases[key] = b
	}
	if _, ok := catalog.Bases[domain.DefaultPersonality]; !ok {
		catalog.Bases[domain.DefaultPersonality] = DefaultCatalog().Bases[domain.DefaultPersonality]
	}
	for name, m := range file.Modifiers {
		key := strings.ToLower(name)
		m.Name = key
		m.Base = strings.ToLower(m.Base)
		if m.Base != "" {
			if _, ok := catalog.Bases[m.Base]; !ok {
				return nil, fmt.Errorf("modifier %q: unknown base %q", name, m.Base)
			}
		}
		catalog.Modifiers[key] = m
	}
	return catalog, nil
}

const defaultTemplate = `You are chatting on a dating app on behalf of the account owner. Write the next message to {{name}}.
Today is {{current_date}} and the local time is {{current_time}}.
Personality traits: {{traits}}.

Guidelines:
- Keep it short: one to three sentences in a casual texting style.
- Be warm, respectful and curious. Pick up on details they mention.
- Never write stage directions, asterisk actions or bracketed notes.
- Never share phone numbers, addresses or other contact details.
- If they suggest meeting, keep it light and suggest a public place.
{{modifier}}`

// DefaultCatalog returns the built-in personalities
func DefaultCatalog() *domain.Catalog {
	return &domain.Catalog{
		Bases: map[string]domain.BaseProfile{
			domain.DefaultPersonality: {
				Name:     domain.DefaultPersonality,
				Template: defaultTemplate,
				Traits:   []string{"friendly", "curious", "confident"},
			},
		},
		Modifiers: map[string]domain.Modifier{
			"playful": {
				Name:   "playful",
				Text:   "Lean into light teasing and compliments. Keep the banter fun and never crude.",
				Traits: []string{"playful", "flirtatious"},
			},
			"funny": {
				Name:   "funny",
				Text:   "Use wit and light jokes. Self-deprecating humour is fine; never mock them.",
				Traits: []string{"witty", "lighthearted"},
			},
			"gentle": {
				Name:   "gentle",
				Text:   "Be soft-spoken and encouraging. Ask thoughtful questions and listen.",
				Traits: []string{"kind", "attentive"},
			},
			"confident": {
				Name:   "confident",
				Text:   "Be direct and decisive. Suggest concrete plans when the conversation is going well.",
				Traits: []string{"direct", "decisive"},
			},
			"casual": {
				Name:   "casual",
				Text:   "Keep it relaxed and low-key, like texting a friend.",
				Traits: []string{"relaxed", "easygoing"},
			},
		},
	}
}
