// Package run manages the per-invocation output directory that collects
// every artifact of a generation run: research notes, section proposals,
// numbered section scripts, the combined script, audio and the log file.
package run

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	LogFileName        = "lullscript.log"
	ResearchFileName   = "research.txt"
	ProposalFileName   = "sections_proposed.json"
	ConfirmedFileName  = "sections_confirmed.json"
	LapsedFileName     = "sections_confirmed_lapsed.json"
	ScriptFileName     = "script.txt"
	AudioDirName       = "audio"
	NarrationFileName  = "narration.wav"
	SubtitlesFileName  = "narration.srt"
	sectionFilePattern = "%02d_%s.txt"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

type Dir struct {
	Path string

	logFile *os.File
}

// Create makes a fresh run directory named after the topic and the
// current time under root, and routes the standard logger to both stderr
// and a log file inside it.
func Create(root, topic string) (*Dir, error) {
	name := SanitizeName(topic)
	if name == "" {
		name = "unnamed_topic"
	}
	path := filepath.Join(root, name+"_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("creating run directory %s: %w", path, err)
	}

	d := &Dir{Path: path}
	f, err := os.Create(filepath.Join(path, LogFileName))
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	d.logFile = f
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	log.Printf("Run directory: %s", path)

	return d, nil
}

// Open wraps an existing run directory, for commands that post-process a
// previous run.
func Open(path string) (*Dir, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", path)
	}
	return &Dir{Path: path}, nil
}

func (d *Dir) Close() {
	if d.logFile != nil {
		log.SetOutput(os.Stderr)
		d.logFile.Close()
	}
}

// FilePath returns the absolute location of a file within the run.
func (d *Dir) FilePath(name string) string {
	return filepath.Join(d.Path, name)
}

// SectionFileName builds the numbered script filename for a section,
// 1-indexed and ordered the way the user confirmed the structure.
func SectionFileName(index int, title string) string {
	name := SanitizeName(title)
	if name == "" {
		name = "section"
	}
	return fmt.Sprintf(sectionFilePattern, index, name)
}

// SectionFiles lists the numbered section scripts of a run in order.
func (d *Dir) SectionFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(d.Path, "[0-9][0-9]_*.txt"))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (d *Dir) SaveText(name, content string) error {
	path := d.FilePath(name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Printf("Saved %s", path)
	return nil
}

func (d *Dir) SaveJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	return d.SaveText(name, string(data)+"\n")
}

// AudioDir creates and returns the audio output directory of the run.
func (d *Dir) AudioDir() (string, error) {
	path := filepath.Join(d.Path, AudioDirName)
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", fmt.Errorf("creating audio directory: %w", err)
	}
	return path, nil
}

// SanitizeName reduces free-form text to a filesystem-safe token: spaces
// become underscores, anything outside [a-zA-Z0-9_] is dropped, and the
// result is capped at 50 characters.
func SanitizeName(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "_")
	s = unsafeChars.ReplaceAllString(s, "")
	if len(s) > 50 {
		s = s[:50]
	}
	return strings.Trim(s, "_")
}
