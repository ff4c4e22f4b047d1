// Package script implements the generation pipeline: topic research,
// section structuring with user feedback, per-section narration with
// iterative expansion, and the final stitching and smoothing pass.
package script

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Generator is the model surface the pipeline consumes: research with
// search grounding, structured JSON answers, and narration under a
// token cap. gemini.Client implements it.
type Generator interface {
	Research(ctx context.Context, prompt string) (string, error)
	Structure(ctx context.Context, prompt string, v any) error
	Narrate(ctx context.Context, prompt string, maxTokens int32) (string, bool, error)
}

// Section is one planned chunk of the narrative, as proposed by the
// structurer model and confirmed by the user.
type Section struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	EstimatedMinutes int    `json:"estimated_minutes"`
}

// Request carries the user's inputs for a run.
type Request struct {
	Topic             string
	Direction         string
	TargetMinutes     int
	ResearchInfluence float64
}

// Summary renders the request the way prompts reference it.
func (r Request) Summary() string {
	direction := strings.TrimSpace(r.Direction)
	if direction == "" {
		direction = "General overview"
	}
	return fmt.Sprintf("Topic: %s\nDirection: %s", r.Topic, direction)
}

// IsWhatIf reports whether the request describes a speculative scenario
// rather than a factual topic, which loosens the invention rules given
// to the narrator.
func (r Request) IsWhatIf() bool {
	s := strings.ToLower(r.Topic + " " + r.Direction)
	for _, marker := range []string{"what if", "if he had", "if she had", "if they had", "had he ", "had she ", "alternate history"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// truncate caps s at n bytes so oversized research never blows the
// model's context window. The cut backs off to a rune boundary so a
// multi-byte character is never split.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
