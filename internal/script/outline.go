package script

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// Propose asks the structurer model for an initial section plan based on
// the research material.
func Propose(ctx context.Context, client Generator, req Request, research string) ([]Section, error) {
	log.Printf("Proposing section structure for ~%d minutes", req.TargetMinutes)

	var raw json.RawMessage
	if err := client.Structure(ctx, proposalPrompt(req, research), &raw); err != nil {
		return nil, err
	}
	return ParseSections(raw)
}

// Retool asks the structurer to revise a proposal according to the
// user's feedback.
func Retool(ctx context.Context, client Generator, req Request, proposal []Section, feedback, research string) ([]Section, error) {
	log.Printf("Retooling section structure from feedback: %s", feedback)

	proposalJSON, err := json.MarshalIndent(proposal, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding proposal: %w", err)
	}

	var raw json.RawMessage
	if err := client.Structure(ctx, retoolPrompt(req, string(proposalJSON), feedback, research), &raw); err != nil {
		return nil, err
	}
	return ParseSections(raw)
}

// ParseSections extracts a validated section list from the structurer's
// JSON answer. The model usually returns a bare list but sometimes wraps
// it in an object; any list-valued key is accepted. Entries missing a
// field are dropped, estimated minutes are clamped to at least 1, and an
// empty result is an error.
func ParseSections(raw json.RawMessage) ([]Section, error) {
	items, err := findList(raw)
	if err != nil {
		return nil, err
	}

	sections := make([]Section, 0, len(items))
	for _, item := range items {
		var entry struct {
			Title            string      `json:"title"`
			Description      string      `json:"description"`
			EstimatedMinutes json.Number `json:"estimated_minutes"`
		}
		if err := json.Unmarshal(item, &entry); err != nil {
			log.Printf("Skipping malformed section entry: %v", err)
			continue
		}
		if entry.Title == "" || entry.Description == "" || entry.EstimatedMinutes == "" {
			log.Printf("Skipping section entry with missing fields: %s", item)
			continue
		}
		minutes, err := entry.EstimatedMinutes.Float64()
		if err != nil {
			log.Printf("Skipping section entry with bad estimated_minutes: %s", item)
			continue
		}
		sections = append(sections, Section{
			Title:            entry.Title,
			Description:      entry.Description,
			EstimatedMinutes: max(1, int(minutes)),
		})
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("no valid sections in structurer response")
	}
	return sections, nil
}

func findList(raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("structurer response is neither a list nor an object")
	}
	for _, key := range []string{"sections", "data", "items"} {
		if inner, ok := wrapper[key]; ok {
			if err := json.Unmarshal(inner, &items); err == nil {
				return items, nil
			}
		}
	}
	// Fall back to any list-valued key.
	for key, inner := range wrapper {
		if err := json.Unmarshal(inner, &items); err == nil {
			log.Printf("Found section list under non-standard key %q", key)
			return items, nil
		}
	}
	return nil, fmt.Errorf("structurer response object contains no section list")
}

// TotalMinutes sums the estimated minutes of a plan.
func TotalMinutes(sections []Section) int {
	total := 0
	for _, sec := range sections {
		total += sec.EstimatedMinutes
	}
	return total
}
