package script

import (
	"context"
	"fmt"
	"log"
	"strings"

	"lullscript/internal/config"
	"lullscript/internal/gemini"
)

// GenerateSection writes the narration for one confirmed section,
// expanding it iteratively while it falls short of its target length.
func GenerateSection(ctx context.Context, client Generator, req Request, sec Section, research string, wpm int) (string, error) {
	log.Printf("Generating section %q (target ~%d min)", sec.Title, sec.EstimatedMinutes)

	maxTokens := gemini.MaxTokensForMinutes(sec.EstimatedMinutes, wpm)
	text, truncated, err := client.Narrate(ctx, sectionPrompt(req, sec, research), maxTokens)
	if err != nil {
		return "", fmt.Errorf("section %q: %w", sec.Title, err)
	}
	text = withTitle(sec.Title, text)

	if truncated {
		// Truncated output means the budget is spent; expanding would
		// only re-trigger the cap.
		log.Printf("Section %q hit the output token cap on first generation (%.2f min)", sec.Title, EstimateMinutes(text, wpm))
		return text, nil
	}

	return expand(ctx, client, req, sec, research, text, wpm), nil
}

func expand(ctx context.Context, client Generator, req Request, sec Section, research, text string, wpm int) string {
	target := float64(sec.EstimatedMinutes)
	targetWords := sec.EstimatedMinutes * wpm
	current := EstimateMinutes(text, wpm)

	for attempt := 1; attempt <= config.MaxExpansionAttempts; attempt++ {
		if target-current <= config.SectionVarianceMinutes/2 {
			break
		}
		if current >= target*(1+config.TokenBuffer/3) {
			break
		}

		currentWords := int(current * float64(wpm))
		wordsNeeded := max(0, targetWords-currentWords)
		paragraphs := max(1, (wordsNeeded+config.WordsPerParagraph/2)/config.WordsPerParagraph)
		if attempt > 1 && float64(wordsNeeded) < float64(wpm)*config.MinExpansionMinutes/2 {
			log.Printf("Section %q: remaining shortfall (%d words) not worth expanding", sec.Title, wordsNeeded)
			break
		}

		log.Printf("Section %q is %.2f min of %d, expanding by ~%d paragraphs (attempt %d/%d)",
			sec.Title, current, sec.EstimatedMinutes, paragraphs, attempt, config.MaxExpansionAttempts)

		maxTokens := int32(float64(targetWords) * config.TokensPerWord * (1 + config.TokenBuffer*1.5))
		if maxTokens > config.ModelMaxOutputTokens {
			maxTokens = config.ModelMaxOutputTokens
		}

		prompt := expansionPrompt(req, sec, research, text, current, wordsNeeded, paragraphs, targetWords)
		expanded, truncated, err := client.Narrate(ctx, prompt, maxTokens)
		if err != nil {
			log.Printf("Section %q expansion failed, keeping current text: %v", sec.Title, err)
			break
		}
		expanded = withTitle(sec.Title, expanded)

		newLength := EstimateMinutes(expanded, wpm)
		if newLength <= current+0.2 {
			log.Printf("Section %q expansion added no meaningful length (%.2f min)", sec.Title, newLength)
			break
		}
		text, current = expanded, newLength
		log.Printf("Section %q now %.2f min", sec.Title, current)

		if truncated {
			log.Printf("Section %q expansion hit the output token cap", sec.Title)
			if current >= target*0.9 {
				break
			}
		}
	}

	return text
}

// withTitle guarantees the section text opens with its title so the
// saved files and the stitched script read as labeled chapters.
func withTitle(title, text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, title) {
		return text
	}
	return title + "\n\n" + text
}
