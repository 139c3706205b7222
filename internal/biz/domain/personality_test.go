package domain

import (
	"reflect"
	"testing"
	"time"
)

func testCatalog() *Catalog {
	return &Catalog{
		Bases: map[string]BaseProfile{
			"default": {Name: "default", Template: "base template", Traits: []string{"warm", "curious"}},
			"formal":  {Name: "formal", Template: "formal template", Traits: []string{"polite"}},
		},
		Modifiers: map[string]Modifier{
			"playful": {Name: "playful", Text: "Be teasing.", Traits: []string{"teasing", "warm"}},
			"stiff":   {Name: "stiff", Base: "formal", Text: "Be brief.", Traits: []string{"brief"}},
		},
	}
}

func TestCatalog_ResolveBase(t *testing.T) {
	p := testCatalog().Resolve("formal")
	if p.Template != "formal template" || p.Modifier != "" {
		t.Errorf("Unexpected profile: %+v", p)
	}
}

func TestCatalog_ResolveModifierMergesTraits(t *testing.T) {
	p := testCatalog().Resolve("Playful")
	if p.Name != "playful" {
		t.Errorf("Expected name playful, got %s", p.Name)
	}
	if p.Template != "base template" {
		t.Errorf("Expected default base template, got %s", p.Template)
	}
	want := []string{"warm", "curious", "teasing"}
	if !reflect.DeepEqual(p.Traits, want) {
		t.Errorf("Expected traits %v, got %v", want, p.Traits)
	}
	if p.Modifier != "Be teasing." {
		t.Errorf("Expected modifier text, got %q", p.Modifier)
	}
}

func TestCatalog_ResolveModifierOnOtherBase(t *testing.T) {
	p := testCatalog().Resolve("stiff")
	if p.Template != "formal template" {
		t.Errorf("Expected formal base, got %s", p.Template)
	}
	if !reflect.DeepEqual(p.Traits, []string{"polite", "brief"}) {
		t.Errorf("Unexpected traits %v", p.Traits)
	}
}

func TestCatalog_ResolveUnknownFallsBack(t *testing.T) {
	p := testCatalog().Resolve("nope")
	if p.Name != DefaultPersonality || p.Template != "base template" {
		t.Errorf("Expected default profile, got %+v", p)
	}
}

func TestCatalog_ResolveDoesNotAliasTraits(t *testing.T) {
	c := testCatalog()
	p := c.Resolve("default")
	p.Traits[0] = "changed"
	if c.Bases["default"].Traits[0] != "warm" {
		t.Error("Resolve leaked the catalog's trait slice")
	}
}

func TestCatalog_Names(t *testing.T) {
	got := testCatalog().Names()
	want := []string{"default", "formal", "playful", "stiff"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestSettings_Validate(t *testing.T) {
	ok := Settings{MatchLimit: 10, MaxTokens: 300, Temperature: 0.8, MessageDelayMin: 2, MessageDelayMax: 5}
	if err := ok.Validate(); err != nil {
		t.Errorf("Expected valid settings, got %v", err)
	}

	bad := ok
	bad.MessageDelayMax = 1
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for inverted delay range")
	}

	bad = ok
	bad.Temperature = 3
	if err := bad.Validate(); err == nil {
		t.Error("Expected error for temperature out of range")
	}
}

func TestSettings_TypingPauseKeepsFraction(t *testing.T) {
	cases := map[float64]time.Duration{
		0:   0,
		0.5: 500 * time.Millisecond,
		1.5: 1500 * time.Millisecond,
		3:   3 * time.Second,
	}
	for secs, want := range cases {
		if got := (Settings{TypingDelay: secs}).TypingPause(); got != want {
			t.Errorf("TypingPause(%v) = %v, want %v", secs, got, want)
		}
	}
}
