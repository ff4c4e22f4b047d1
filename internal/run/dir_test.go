package run

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"spaces to underscores", "The Fall of Rome", "The_Fall_of_Rome"},
		{"punctuation dropped", "What if: Rome? (alternate!)", "What_if_Rome_alternate"},
		{"trimmed", "  padded topic  ", "padded_topic"},
		{"empty", "", ""},
		{"only punctuation", "?!.,;", ""},
		{"capped at 50", strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.in); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSectionFileName(t *testing.T) {
	tests := []struct {
		index int
		title string
		want  string
	}{
		{1, "Early Years", "01_Early_Years.txt"},
		{12, "The Long Quiet", "12_The_Long_Quiet.txt"},
		{3, "???", "03_section.txt"},
	}
	for _, tt := range tests {
		if got := SectionFileName(tt.index, tt.title); got != tt.want {
			t.Errorf("SectionFileName(%d, %q) = %q, want %q", tt.index, tt.title, got, tt.want)
		}
	}
}

func TestCreateAndSave(t *testing.T) {
	root := t.TempDir()
	d, err := Create(root, "A Gentle History")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer d.Close()

	if !strings.Contains(filepath.Base(d.Path), "A_Gentle_History_") {
		t.Errorf("run dir %q does not carry the topic prefix", d.Path)
	}
	if _, err := os.Stat(d.FilePath(LogFileName)); err != nil {
		t.Errorf("log file missing: %v", err)
	}

	if err := d.SaveText("research.txt", "notes"); err != nil {
		t.Fatalf("SaveText() error = %v", err)
	}
	data, err := os.ReadFile(d.FilePath("research.txt"))
	if err != nil || string(data) != "notes" {
		t.Errorf("saved text = %q, err %v", data, err)
	}

	if err := d.SaveJSON("sections.json", []map[string]int{{"a": 1}}); err != nil {
		t.Fatalf("SaveJSON() error = %v", err)
	}
}

func TestSectionFiles(t *testing.T) {
	d, err := Create(t.TempDir(), "topic")
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()

	for i, title := range []string{"Intro", "Middle", "End"} {
		if err := d.SaveText(SectionFileName(i+1, title), "text"); err != nil {
			t.Fatal(err)
		}
	}
	// Not a section file, must not match.
	if err := d.SaveText("script.txt", "combined"); err != nil {
		t.Fatal(err)
	}

	files, err := d.SectionFiles()
	if err != nil {
		t.Fatalf("SectionFiles() error = %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("SectionFiles() = %d files, want 3", len(files))
	}
	if filepath.Base(files[0]) != "01_Intro.txt" {
		t.Errorf("first section = %q", files[0])
	}
}
