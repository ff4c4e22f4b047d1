// Package gemini wraps the Google generative AI SDK with the three model
// roles the pipeline needs: a researcher with search grounding, a
// structurer answering in JSON, and a narrator. Calls retry on transient
// server errors and token usage is accumulated across the run.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"lullscript/internal/config"
)

const (
	maxRetries   = 3
	initialDelay = 5 * time.Second
)

// Usage is the accumulated token consumption of all calls so far.
type Usage struct {
	Prompt     int64
	Candidates int64
	Total      int64
}

type Client struct {
	client     *genai.Client
	researcher *genai.GenerativeModel
	structurer *genai.GenerativeModel
	narrator   *genai.GenerativeModel
	usage      Usage
}

// New builds the client and prepares the three model roles. The narrator
// and structurer carry system instructions; the researcher gets the
// Google Search retrieval tool so research answers are grounded in
// current sources.
func New(ctx context.Context, apiKey, model, narratorInstruction, structurerInstruction string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	researcher := client.GenerativeModel(model)
	researcher.Tools = []*genai.Tool{{GoogleSearchRetrieval: &genai.GoogleSearchRetrieval{}}}
	researcher.SetTemperature(0.2)
	researcher.SetTopP(0.9)
	researcher.SetTopK(40)
	researcher.SetMaxOutputTokens(7000)
	researcher.SafetySettings = permissiveSafety()

	structurer := client.GenerativeModel(model)
	structurer.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(structurerInstruction)}}
	structurer.SetTemperature(0.6)
	structurer.SetTopP(0.9)
	structurer.SetTopK(40)
	structurer.SetMaxOutputTokens(2048)
	structurer.ResponseMIMEType = "application/json"
	structurer.SafetySettings = permissiveSafety()

	narrator := client.GenerativeModel(model)
	narrator.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(narratorInstruction)}}
	narrator.SetTemperature(0.25)
	narrator.SetTopP(0.9)
	narrator.SetTopK(40)
	narrator.SafetySettings = permissiveSafety()

	return &Client{
		client:     client,
		researcher: researcher,
		structurer: structurer,
		narrator:   narrator,
	}, nil
}

// permissiveSafety disables category blocking: historical and "what-if"
// topics routinely trip the default thresholds despite the serene
// narration style.
func permissiveSafety() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
	}
}

func (c *Client) Close() {
	c.client.Close()
}

func (c *Client) Usage() Usage {
	return c.usage
}

// Research runs a single research call and returns the synthesized text.
func (c *Client) Research(ctx context.Context, prompt string) (string, error) {
	text, _, err := c.generate(ctx, c.researcher, prompt)
	return text, err
}

// Structure asks the structurer for a JSON answer and decodes it into v,
// stripping Markdown code fences the model sometimes wraps around JSON.
func (c *Client) Structure(ctx context.Context, prompt string, v any) error {
	text, _, err := c.generate(ctx, c.structurer, prompt)
	if err != nil {
		return err
	}
	cleaned := StripJSONFences(text)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		log.Printf("Unparseable structurer response: %.500s", cleaned)
		return fmt.Errorf("parsing structurer JSON: %w", err)
	}
	return nil
}

// Narrate generates narration text under the given output token cap and
// reports whether the response was truncated at that cap.
func (c *Client) Narrate(ctx context.Context, prompt string, maxTokens int32) (string, bool, error) {
	c.narrator.SetMaxOutputTokens(maxTokens)
	text, reason, err := c.generate(ctx, c.narrator, prompt)
	return text, reason == genai.FinishReasonMaxTokens, err
}

// CountTokens reports the token count of text as the narrator model sees it.
func (c *Client) CountTokens(ctx context.Context, text string) (int32, error) {
	resp, err := c.narrator.CountTokens(ctx, genai.Text(text))
	if err != nil {
		return 0, fmt.Errorf("counting tokens: %w", err)
	}
	return resp.TotalTokens, nil
}

func (c *Client) generate(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, genai.FinishReason, error) {
	log.Printf("Calling Gemini (prompt %d chars)", len(prompt))

	var lastErr error
	delay := initialDelay
	for attempt := 1; attempt <= maxRetries; attempt++ {
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			lastErr = err
			if !retryable(err) {
				return "", genai.FinishReasonUnspecified, fmt.Errorf("gemini generation: %w", err)
			}
			log.Printf("Gemini call failed (attempt %d/%d), retrying in %s: %v", attempt, maxRetries, delay, err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", genai.FinishReasonUnspecified, ctx.Err()
			}
			delay *= 2
			continue
		}

		c.recordUsage(ctx, model, prompt, resp)

		if len(resp.Candidates) == 0 {
			reason := ""
			if resp.PromptFeedback != nil {
				reason = fmt.Sprintf(" (block reason: %v)", resp.PromptFeedback.BlockReason)
			}
			return "", genai.FinishReasonUnspecified, fmt.Errorf("gemini response was blocked or empty%s", reason)
		}

		candidate := resp.Candidates[0]
		text := extractText(candidate)
		if strings.TrimSpace(text) == "" && candidate.FinishReason != genai.FinishReasonStop && candidate.FinishReason != genai.FinishReasonMaxTokens {
			return "", candidate.FinishReason, fmt.Errorf("gemini returned empty text (finish reason %v)", candidate.FinishReason)
		}

		log.Printf("Gemini call finished (%v, %d chars)", candidate.FinishReason, len(text))
		return text, candidate.FinishReason, nil
	}

	return "", genai.FinishReasonUnspecified, fmt.Errorf("gemini call failed after %d attempts: %w", maxRetries, lastErr)
}

func (c *Client) recordUsage(ctx context.Context, model *genai.GenerativeModel, prompt string, resp *genai.GenerateContentResponse) {
	if resp.UsageMetadata != nil {
		c.usage.Prompt += int64(resp.UsageMetadata.PromptTokenCount)
		c.usage.Candidates += int64(resp.UsageMetadata.CandidatesTokenCount)
		c.usage.Total += int64(resp.UsageMetadata.TotalTokenCount)
		return
	}

	// No usage metadata on the response, count manually.
	counted, err := model.CountTokens(ctx, genai.Text(prompt))
	if err != nil {
		log.Printf("Token usage metadata missing and manual count failed: %v", err)
		return
	}
	c.usage.Prompt += int64(counted.TotalTokens)
	c.usage.Total += int64(counted.TotalTokens)
	if len(resp.Candidates) > 0 {
		if text := extractText(resp.Candidates[0]); text != "" {
			if counted, err := model.CountTokens(ctx, genai.Text(text)); err == nil {
				c.usage.Candidates += int64(counted.TotalTokens)
				c.usage.Total += int64(counted.TotalTokens)
			}
		}
	}
}

func extractText(candidate *genai.Candidate) string {
	if candidate.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	return sb.String()
}

// retryable reports whether an API error is a transient server failure
// worth another attempt. Quota exhaustion and missing models never are.
func retryable(err error) bool {
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "ResourceExhausted") || strings.Contains(msg, "quota") {
		return false
	}
	if strings.Contains(msg, "404") {
		return false
	}
	return strings.Contains(msg, "500") || strings.Contains(msg, "503") || strings.Contains(msg, "Unavailable") || strings.Contains(msg, "Internal")
}

// StripJSONFences removes a Markdown ```json code fence around a JSON
// payload, which the model emits despite the JSON response MIME type.
func StripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// MaxTokensForMinutes converts a spoken-minutes target into an output
// token cap, with a safety buffer, clamped to the model's hard limit.
func MaxTokensForMinutes(minutes, wpm int) int32 {
	estimated := int32(float64(minutes) * float64(wpm) * config.TokensPerWord * (1 + config.TokenBuffer))
	if estimated > config.ModelMaxOutputTokens {
		return config.ModelMaxOutputTokens
	}
	if estimated < 1 {
		return 1
	}
	return estimated
}
