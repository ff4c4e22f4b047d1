package script

import (
	"context"
	"fmt"
	"log"
	"strings"

	"lullscript/internal/config"
)

// Stitch concatenates the generated section texts in confirmed order.
func Stitch(sections []Section, texts map[string]string) string {
	var sb strings.Builder
	for _, sec := range sections {
		if text := strings.TrimSpace(texts[sec.Title]); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

// Smooth runs the chunked smoothing pass over the concatenated script,
// polishing transitions and tone while preserving length. Any chunk that
// fails falls back to its raw text; the result is never empty when the
// input was not.
func Smooth(ctx context.Context, client Generator, req Request, script string, wpm int) (string, error) {
	if script == "" {
		return "", fmt.Errorf("no script content to smooth")
	}

	estimated := EstimateMinutes(script, wpm)
	log.Printf("Smoothing %.2f min of narration", estimated)

	var parts []string
	remaining := script
	for iteration := 1; iteration <= config.MaxSmoothingChunks && remaining != ""; iteration++ {
		chunk := truncate(remaining, config.PromptInputCharLimit)
		log.Printf("Smoothing chunk %d (%d chars, %d remaining after)", iteration, len(chunk), len(remaining)-len(chunk))

		// Aim the output cap just above the chunk's own token footprint
		// so the model can add transitions without condensing.
		maxTokens := int32(float64(len(chunk))/3.5) + 300
		if maxTokens > config.ModelMaxOutputTokens {
			maxTokens = config.ModelMaxOutputTokens
		}

		smoothed, truncatedOut, err := client.Narrate(ctx, smoothingPrompt(req, chunk, estimated), maxTokens)
		if err != nil {
			log.Printf("Smoothing chunk %d failed, keeping raw text for the remainder: %v", iteration, err)
			parts = append(parts, remaining)
			remaining = ""
			break
		}
		if truncatedOut {
			log.Printf("Smoothing chunk %d hit the output token cap, chunk may be incomplete", iteration)
		}
		parts = append(parts, smoothed)

		remaining = remaining[len(chunk):]
		if strings.TrimSpace(remaining) == "" {
			remaining = ""
		}
	}
	if remaining != "" {
		log.Printf("Smoothing chunk budget exhausted, appending %d raw chars", len(remaining))
		parts = append(parts, remaining)
	}

	final := strings.TrimSpace(strings.Join(parts, "\n\n"))
	if final == "" {
		log.Printf("Smoothing produced an empty script, reverting to the raw concatenation")
		return script, nil
	}
	return final, nil
}
