package ui

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lullscript/internal/script"
)

func TestInputs(t *testing.T) {
	in := strings.NewReader("The quiet forest\nfocus on the seasons\n60\n0.7\n")
	var out bytes.Buffer
	p := NewPrompter(in, &out)

	req, err := p.Inputs()
	if err != nil {
		t.Fatalf("Inputs() error = %v", err)
	}
	if req.Topic != "The quiet forest" {
		t.Errorf("Topic = %q", req.Topic)
	}
	if req.Direction != "focus on the seasons" {
		t.Errorf("Direction = %q", req.Direction)
	}
	if req.TargetMinutes != 60 {
		t.Errorf("TargetMinutes = %d", req.TargetMinutes)
	}
	if req.ResearchInfluence != 0.7 {
		t.Errorf("ResearchInfluence = %v", req.ResearchInfluence)
	}
}

func TestInputsRepromptsOnInvalidNumbers(t *testing.T) {
	in := strings.NewReader("topic\n\nnot-a-number\n-5\n45\n2\n0.5\n")
	var out bytes.Buffer
	p := NewPrompter(in, &out)

	req, err := p.Inputs()
	if err != nil {
		t.Fatalf("Inputs() error = %v", err)
	}
	if req.TargetMinutes != 45 {
		t.Errorf("TargetMinutes = %d, want 45", req.TargetMinutes)
	}
	if req.ResearchInfluence != 0.5 {
		t.Errorf("ResearchInfluence = %v, want 0.5", req.ResearchInfluence)
	}
	if !strings.Contains(out.String(), "Invalid") {
		t.Error("no re-prompt message shown")
	}
}

func TestInputsEmptyTopic(t *testing.T) {
	p := NewPrompter(strings.NewReader("\n"), &bytes.Buffer{})
	if _, err := p.Inputs(); err == nil {
		t.Error("Inputs() accepted empty topic")
	}
}

func TestReadInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.txt")
	content := "The deep sea\ncreatures of the abyss\n90\n0.8\nyes\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	req, runTTS, err := ReadInputFile(path)
	if err != nil {
		t.Fatalf("ReadInputFile() error = %v", err)
	}
	if req.Topic != "The deep sea" || req.TargetMinutes != 90 || req.ResearchInfluence != 0.8 {
		t.Errorf("request = %+v", req)
	}
	if runTTS == nil || !*runTTS {
		t.Errorf("runTTS = %v, want true", runTTS)
	}
}

func TestReadInputFileNoTTSLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs.txt")
	if err := os.WriteFile(path, []byte("topic\ndir\n30\n0.5\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, runTTS, err := ReadInputFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if runTTS != nil {
		t.Errorf("runTTS = %v, want nil", *runTTS)
	}
}

func TestReadInputFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"too few lines", "topic\ndir\n30\n"},
		{"bad minutes", "topic\ndir\nthirty\n0.5\n"},
		{"negative minutes", "topic\ndir\n-10\n0.5\n"},
		{"influence out of range", "topic\ndir\n30\n1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "inputs.txt")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, _, err := ReadInputFile(path); err == nil {
				t.Error("ReadInputFile() accepted invalid file")
			}
		})
	}
}

func TestReviewSectionsConfirm(t *testing.T) {
	sections := []script.Section{
		{Title: "Dawn", Description: "The day begins.", EstimatedMinutes: 10},
		{Title: "Dusk", Description: "The day ends.", EstimatedMinutes: 20},
	}
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("CONFIRM\n"), &out)

	feedback, confirmed, err := p.ReviewSections(sections, 30)
	if err != nil {
		t.Fatalf("ReviewSections() error = %v", err)
	}
	if !confirmed || feedback != "" {
		t.Errorf("confirmed = %v, feedback = %q", confirmed, feedback)
	}
	display := out.String()
	if !strings.Contains(display, "1. Dawn (10 min)") || !strings.Contains(display, "Sum of estimated minutes: 30") {
		t.Errorf("display incomplete:\n%s", display)
	}
}

func TestReviewSectionsFeedback(t *testing.T) {
	p := NewPrompter(strings.NewReader("remove 2, time of 1 is 25\n"), &bytes.Buffer{})
	feedback, confirmed, err := p.ReviewSections([]script.Section{{Title: "A", EstimatedMinutes: 10}}, 25)
	if err != nil {
		t.Fatal(err)
	}
	if confirmed {
		t.Error("feedback treated as confirmation")
	}
	if feedback != "remove 2, time of 1 is 25" {
		t.Errorf("feedback = %q", feedback)
	}
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		answer string
		want   bool
	}{
		{"y\n", true},
		{"yes\n", true},
		{"n\n", false},
		{"\n", false},
		{"maybe\n", false},
	}
	for _, tt := range tests {
		p := NewPrompter(strings.NewReader(tt.answer), &bytes.Buffer{})
		if got := p.Confirm("Generate audio?"); got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", strings.TrimSpace(tt.answer), got, tt.want)
		}
	}
}
