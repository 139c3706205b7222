package domain

import (
	"sort"
	"strings"
)

// DefaultPersonality is the profile used whenever a lookup misses
const DefaultPersonality = "default"

// BaseProfile is a complete system prompt template
type BaseProfile struct {
	Name     string   `yaml:"name"`
	Template string   `yaml:"template"`
	Traits   []string `yaml:"traits"`
}

// Modifier layers extra guidance and traits on top of a base profile
type Modifier struct {
	Name   string   `yaml:"name"`
	Base   string   `yaml:"base"` // Empty means the default base
	Text   string   `yaml:"text"`
	Traits []string `yaml:"traits"`
}

// Profile is a resolved personality ready for rendering
type Profile struct {
	Name     string
	Template string
	Modifier string
	Traits   []string
}

// Catalog holds every known personality
type Catalog struct {
	Bases     map[string]BaseProfile
	Modifiers map[string]Modifier
}

// Resolve returns the merged profile for name, falling back to the default base.
// Traits are the base traits followed by modifier traits not already present.
func (c *Catalog) Resolve(name string) Profile {
	key := strings.ToLower(strings.TrimSpace(name))
	if base, ok := c.Bases[key]; ok {
		return Profile{Name: key, Template: base.Template, Traits: append([]string(nil), base.Traits...)}
	}
	if mod, ok := c.Modifiers[key]; ok {
		base := c.base(mod.Base)
		traits := append([]string(nil), base.Traits...)
		seen := make(map[string]bool, len(traits))
		for _, t := range traits {
			seen[t] = true
		}
		for _, t := range mod.Traits {
			if !seen[t] {
				traits = append(traits, t)
				seen[t] = true
			}
		}
		return Profile{Name: key, Template: base.Template, Modifier: mod.Text, Traits: traits}
	}
	base := c.base(DefaultPersonality)
	return Profile{Name: DefaultPersonality, Template: base.Template, Traits: append([]string(nil), base.Traits...)}
}

// Has reports whether name is a known base or modifier
func (c *Catalog) Has(name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	_, isBase := c.Bases[key]
	_, isMod := c.Modifiers[key]
	return isBase || isMod
}

// Names lists every selectable personality, sorted
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Bases)+len(c.Modifiers))
	for n := range c.Bases {
		names = append(names, n)
	}
	for n := range c.Modifiers {
		if _, dup := c.Bases[n]; !dup {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) base(name string) BaseProfile {
	if name == "" {
		name = DefaultPersonality
	}
	if b, ok := c.Bases[name]; ok {
		return b
	}
	return c.Bases[DefaultPersonality]
}
