// Package ui handles the interactive console dialogue: initial inputs,
// the section review loop, and yes/no confirmations. A batch input file
// can stand in for the interactive prompts.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"lullscript/internal/script"
)

type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

func (p *Prompter) readLine(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Inputs collects the run parameters interactively, re-prompting until
// the numeric values are valid.
func (p *Prompter) Inputs() (script.Request, error) {
	fmt.Fprintln(p.out, "\n--- Narration Configuration ---")

	topic, err := p.readLine("Enter the main topic/subject: ")
	if err != nil {
		return script.Request{}, err
	}
	if topic == "" {
		return script.Request{}, fmt.Errorf("topic cannot be empty")
	}

	direction, err := p.readLine("Enter any specific directions or focus areas: ")
	if err != nil {
		return script.Request{}, err
	}

	var minutes int
	for {
		answer, err := p.readLine("Enter TOTAL target script length in minutes (e.g. 30, 60, 120): ")
		if err != nil {
			return script.Request{}, err
		}
		minutes, err = strconv.Atoi(answer)
		if err == nil && minutes > 0 {
			break
		}
		fmt.Fprintln(p.out, "Invalid. Please enter a positive whole number of minutes.")
	}

	var influence float64
	for {
		answer, err := p.readLine("Enter research influence factor (0.0 to 1.0, 1.0 = strictly uses research): ")
		if err != nil {
			return script.Request{}, err
		}
		influence, err = strconv.ParseFloat(answer, 64)
		if err == nil && influence >= 0 && influence <= 1 {
			break
		}
		fmt.Fprintln(p.out, "Invalid. Enter a number between 0.0 and 1.0.")
	}

	req := script.Request{
		Topic:             topic,
		Direction:         direction,
		TargetMinutes:     minutes,
		ResearchInfluence: influence,
	}
	log.Printf("User inputs: %s, length %d min, influence %.2f", strings.ReplaceAll(req.Summary(), "\n", " "), minutes, influence)
	return req, nil
}

// ReadInputFile parses a batch input file: topic, direction, minutes and
// influence on successive lines, plus an optional fifth line deciding
// whether to run text-to-speech. runTTS is nil when the file leaves the
// decision open.
func ReadInputFile(path string) (req script.Request, runTTS *bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return script.Request{}, nil, fmt.Errorf("reading input file: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) < 4 {
		return script.Request{}, nil, fmt.Errorf("input file %s needs at least 4 lines (topic, direction, minutes, influence)", path)
	}

	minutes, err := strconv.Atoi(lines[2])
	if err != nil || minutes <= 0 {
		return script.Request{}, nil, fmt.Errorf("invalid minutes value in input file: %q", lines[2])
	}
	influence, err := strconv.ParseFloat(lines[3], 64)
	if err != nil || influence < 0 || influence > 1 {
		return script.Request{}, nil, fmt.Errorf("invalid research influence value in input file: %q", lines[3])
	}

	if len(lines) >= 5 {
		choice := strings.ToLower(lines[4])
		enabled := choice == "yes" || choice == "y" || choice == "true" || choice == "1"
		runTTS = &enabled
	}

	req = script.Request{
		Topic:             lines[0],
		Direction:         lines[1],
		TargetMinutes:     minutes,
		ResearchInfluence: influence,
	}
	log.Printf("Read inputs from %s: topic %q, %d min, influence %.2f", path, req.Topic, minutes, influence)
	return req, runTTS, nil
}

// ReviewSections shows the proposed plan and collects either a
// confirmation or free-form revision feedback.
func (p *Prompter) ReviewSections(sections []script.Section, targetMinutes int) (feedback string, confirmed bool, err error) {
	fmt.Fprintln(p.out, "\n--- Proposed Section Structure ---")
	for i, sec := range sections {
		fmt.Fprintf(p.out, "%d. %s (%d min)\n   %s\n", i+1, sec.Title, sec.EstimatedMinutes, sec.Description)
	}
	fmt.Fprintf(p.out, "----------------------------------\n")
	fmt.Fprintf(p.out, "Sum of estimated minutes: %d (your target was %d)\n\n", script.TotalMinutes(sections), targetMinutes)
	fmt.Fprintln(p.out, "Review the proposed sections. Type 'confirm' to accept, or describe changes, e.g.:")
	fmt.Fprintln(p.out, "  'keep 1,3, remove 2, title of 1 is New Title, time of 3 is 13'")
	fmt.Fprintln(p.out, "  'reorder to 2,1,3' or 'break up section 2 into Early Years (5 min) and Later Years (7 min)'")

	answer, err := p.readLine("Your feedback (or 'confirm'): ")
	if err != nil {
		return "", false, err
	}
	if strings.EqualFold(answer, "confirm") {
		return "", true, nil
	}
	return answer, false, nil
}

// Confirm asks a yes/no question, defaulting to no.
func (p *Prompter) Confirm(question string) bool {
	answer, err := p.readLine(question + " (y/n): ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
