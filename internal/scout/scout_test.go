package scout

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseResponse(t *testing.T) {
	text := `Here is the report.

STRENGTHS:
• Strong entry fragging: 0.21 first kills per round
- Consistent damage output (148 ADR)
* Wins most gunfights when defending

Weaknesses:
• Dies early on attack (alive 38% of the round)
•missing space is not a bullet
  - Low assist count

OVERVIEW:
An aggressive duelist with high impact.
Needs better trading discipline.
`
	p := ParseResponse(text)

	wantStrengths := []string{
		"Strong entry fragging: 0.21 first kills per round",
		"Consistent damage output (148 ADR)",
		"Wins most gunfights when defending",
	}
	if !reflect.DeepEqual(p.Strengths, wantStrengths) {
		t.Errorf("strengths:\nwant %q\ngot  %q", wantStrengths, p.Strengths)
	}
	wantWeak := []string{"Dies early on attack (alive 38% of the round)", "Low assist count"}
	if !reflect.DeepEqual(p.Weaknesses, wantWeak) {
		t.Errorf("weaknesses:\nwant %q\ngot  %q", wantWeak, p.Weaknesses)
	}
	wantOverview := "An aggressive duelist with high impact.\nNeeds better trading discipline."
	if p.Overview != wantOverview {
		t.Errorf("overview: want %q, got %q", wantOverview, p.Overview)
	}
	if p.Raw != text {
		t.Error("raw text should be kept")
	}
}

func TestParseResponseMissingSections(t *testing.T) {
	p := ParseResponse("OVERVIEW: solid player")
	if len(p.Strengths) != 0 || len(p.Weaknesses) != 0 {
		t.Errorf("expected no bullets, got %+v", p)
	}
	if p.Overview != "solid player" {
		t.Errorf("overview: %q", p.Overview)
	}

	p = ParseResponse("no structure at all")
	if p.Overview != "" || p.Strengths != nil {
		t.Errorf("unstructured text should parse to empty sections: %+v", p)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	if _, err := NewClient("", ""); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-test")
	c, err := NewClient("", "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.Model() != DefaultModel {
		t.Errorf("model: want %s, got %s", DefaultModel, c.Model())
	}
}
