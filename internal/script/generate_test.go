package script

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"lullscript/internal/config"
	"lullscript/internal/gemini"
)

type fakeGenerator struct {
	research  func(prompt string) (string, error)
	structure func(prompt string, v any) error
	narrate   func(prompt string, maxTokens int32) (string, bool, error)
}

func (f *fakeGenerator) Research(_ context.Context, prompt string) (string, error) {
	return f.research(prompt)
}

func (f *fakeGenerator) Structure(_ context.Context, prompt string, v any) error {
	return f.structure(prompt, v)
}

func (f *fakeGenerator) Narrate(_ context.Context, prompt string, maxTokens int32) (string, bool, error) {
	return f.narrate(prompt, maxTokens)
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("calm ", n))
}

func TestGenerateSectionOnTargetSkipsExpansion(t *testing.T) {
	calls := 0
	var gotMaxTokens int32
	gen := &fakeGenerator{narrate: func(prompt string, maxTokens int32) (string, bool, error) {
		calls++
		gotMaxTokens = maxTokens
		return words(280), false, nil
	}}
	sec := Section{Title: "Night", Description: "d", EstimatedMinutes: 2}

	text, err := GenerateSection(context.Background(), gen, Request{Topic: "t"}, sec, "research", 140)
	if err != nil {
		t.Fatalf("GenerateSection() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("narrate called %d times, want 1", calls)
	}
	if want := gemini.MaxTokensForMinutes(2, 140); gotMaxTokens != want {
		t.Errorf("maxTokens = %d, want %d", gotMaxTokens, want)
	}
	if !strings.HasPrefix(text, "Night") {
		t.Errorf("section text not titled: %.40q", text)
	}
}

func TestGenerateSectionExpandsShortText(t *testing.T) {
	responses := []string{words(50), words(280)}
	calls := 0
	gen := &fakeGenerator{narrate: func(prompt string, maxTokens int32) (string, bool, error) {
		text := responses[calls]
		calls++
		return text, false, nil
	}}
	sec := Section{Title: "Night", Description: "d", EstimatedMinutes: 2}

	text, err := GenerateSection(context.Background(), gen, Request{Topic: "t"}, sec, "research", 140)
	if err != nil {
		t.Fatalf("GenerateSection() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("narrate called %d times, want 2", calls)
	}
	if got := WordCount(text); got < 280 {
		t.Errorf("expanded text has %d words, want >= 280", got)
	}
}

func TestGenerateSectionTruncatedFirstCallReturnsEarly(t *testing.T) {
	calls := 0
	gen := &fakeGenerator{narrate: func(prompt string, maxTokens int32) (string, bool, error) {
		calls++
		return words(50), true, nil
	}}
	sec := Section{Title: "Night", Description: "d", EstimatedMinutes: 2}

	text, err := GenerateSection(context.Background(), gen, Request{Topic: "t"}, sec, "research", 140)
	if err != nil {
		t.Fatalf("GenerateSection() error = %v", err)
	}
	// The token cap was spent; expanding would only re-trigger it.
	if calls != 1 {
		t.Errorf("narrate called %d times, want 1", calls)
	}
	if !strings.HasPrefix(text, "Night") {
		t.Errorf("section text not titled: %.40q", text)
	}
}

func TestGenerateSectionStalledExpansionKeepsText(t *testing.T) {
	responses := []string{words(50), words(52)}
	calls := 0
	gen := &fakeGenerator{narrate: func(prompt string, maxTokens int32) (string, bool, error) {
		text := responses[calls]
		calls++
		return text, false, nil
	}}
	sec := Section{Title: "Night", Description: "d", EstimatedMinutes: 2}

	text, err := GenerateSection(context.Background(), gen, Request{Topic: "t"}, sec, "research", 140)
	if err != nil {
		t.Fatalf("GenerateSection() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("narrate called %d times, want 2", calls)
	}
	// An expansion adding almost nothing stops the loop and the
	// pre-expansion text stands.
	if want := "Night\n\n" + words(50); text != want {
		t.Errorf("text = %.60q, want the unexpanded version", text)
	}
}

func TestGenerateSectionExpansionErrorKeepsText(t *testing.T) {
	calls := 0
	gen := &fakeGenerator{narrate: func(prompt string, maxTokens int32) (string, bool, error) {
		calls++
		if calls > 1 {
			return "", false, errors.New("boom")
		}
		return words(50), false, nil
	}}
	sec := Section{Title: "Night", Description: "d", EstimatedMinutes: 2}

	text, err := GenerateSection(context.Background(), gen, Request{Topic: "t"}, sec, "research", 140)
	if err != nil {
		t.Fatalf("GenerateSection() error = %v", err)
	}
	if want := "Night\n\n" + words(50); text != want {
		t.Errorf("text = %.60q, want the pre-failure version", text)
	}
}

func TestGenerateSectionExpansionAttemptCap(t *testing.T) {
	calls := 0
	gen := &fakeGenerator{narrate: func(prompt string, maxTokens int32) (string, bool, error) {
		calls++
		// Each expansion grows the text a little but never near target.
		return words(100 + 30*(calls-1)), false, nil
	}}
	sec := Section{Title: "Night", Description: "d", EstimatedMinutes: 10}

	if _, err := GenerateSection(context.Background(), gen, Request{Topic: "t"}, sec, "research", 140); err != nil {
		t.Fatalf("GenerateSection() error = %v", err)
	}
	if want := 1 + config.MaxExpansionAttempts; calls != want {
		t.Errorf("narrate called %d times, want %d", calls, want)
	}
}

func TestSmoothFallsBackOnError(t *testing.T) {
	gen := &fakeGenerator{narrate: func(prompt string, maxTokens int32) (string, bool, error) {
		return "", false, errors.New("unavailable")
	}}
	raw := words(100)

	got, err := Smooth(context.Background(), gen, Request{Topic: "t", TargetMinutes: 2}, raw, 140)
	if err != nil {
		t.Fatalf("Smooth() error = %v", err)
	}
	if got != raw {
		t.Errorf("Smooth() = %.60q, want the raw script", got)
	}
}

func TestSmoothEmptyOutputFallsBack(t *testing.T) {
	gen := &fakeGenerator{narrate: func(prompt string, maxTokens int32) (string, bool, error) {
		return "", false, nil
	}}
	raw := words(100)

	got, err := Smooth(context.Background(), gen, Request{Topic: "t", TargetMinutes: 2}, raw, 140)
	if err != nil {
		t.Fatalf("Smooth() error = %v", err)
	}
	if got != raw {
		t.Errorf("Smooth() = %.60q, want the raw script", got)
	}
}

func TestSmoothPolishesScript(t *testing.T) {
	polished := "A gentle, continuous narration."
	gen := &fakeGenerator{narrate: func(prompt string, maxTokens int32) (string, bool, error) {
		if !strings.Contains(prompt, "raw sentence") {
			t.Errorf("chunk missing from prompt: %.80q", prompt)
		}
		return polished, false, nil
	}}

	got, err := Smooth(context.Background(), gen, Request{Topic: "t", TargetMinutes: 2}, "A raw sentence.", 140)
	if err != nil {
		t.Fatalf("Smooth() error = %v", err)
	}
	if got != polished {
		t.Errorf("Smooth() = %q, want %q", got, polished)
	}
}

func TestSmoothEmptyScript(t *testing.T) {
	gen := &fakeGenerator{}
	if _, err := Smooth(context.Background(), gen, Request{}, "", 140); err == nil {
		t.Error("Smooth(empty) succeeded, want error")
	}
}

func TestProposeParsesStructurerAnswer(t *testing.T) {
	gen := &fakeGenerator{structure: func(prompt string, v any) error {
		raw := v.(*json.RawMessage)
		*raw = json.RawMessage(`[{"title": "Dawn", "description": "d", "estimated_minutes": 5}]`)
		return nil
	}}

	sections, err := Propose(context.Background(), gen, Request{Topic: "t", TargetMinutes: 5}, "research")
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if len(sections) != 1 || sections[0].Title != "Dawn" {
		t.Errorf("Propose() = %+v", sections)
	}
}

func TestRetoolErrorPropagates(t *testing.T) {
	gen := &fakeGenerator{structure: func(prompt string, v any) error {
		return errors.New("bad json")
	}}

	proposal := []Section{{Title: "Dawn", Description: "d", EstimatedMinutes: 5}}
	if _, err := Retool(context.Background(), gen, Request{TargetMinutes: 5}, proposal, "shorter", "research"); err == nil {
		t.Error("Retool() succeeded, want error")
	}
}

func TestResearchForwardsRequest(t *testing.T) {
	gen := &fakeGenerator{research: func(prompt string) (string, error) {
		if !strings.Contains(prompt, "The quiet sea") {
			t.Errorf("topic missing from research prompt: %.80q", prompt)
		}
		return "notes", nil
	}}

	got, err := Research(context.Background(), gen, Request{Topic: "The quiet sea", TargetMinutes: 30})
	if err != nil {
		t.Fatalf("Research() error = %v", err)
	}
	if got != "notes" {
		t.Errorf("Research() = %q", got)
	}
}
