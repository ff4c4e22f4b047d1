package tts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestChunkCues(t *testing.T) {
	chunk := Chunk{
		Text:     "Two words. Four more gentle words.",
		Duration: 6 * time.Second,
	}
	cues := chunkCues(chunk, 10*time.Second)
	if len(cues) != 2 {
		t.Fatalf("chunkCues() = %d cues, want 2", len(cues))
	}
	if cues[0].start != 10*time.Second {
		t.Errorf("first cue starts at %v, want 10s", cues[0].start)
	}
	// 2 of 6 words gives the first cue 2s.
	if cues[0].end <= cues[0].start || cues[0].end >= cues[1].end {
		t.Errorf("cue timings not ordered: %+v", cues)
	}
	if cues[1].end != 16*time.Second {
		t.Errorf("last cue ends at %v, want 16s", cues[1].end)
	}
	if cues[1].start != cues[0].end {
		t.Errorf("cues not contiguous: %v vs %v", cues[0].end, cues[1].start)
	}
}

func TestChunkCuesEmpty(t *testing.T) {
	if cues := chunkCues(Chunk{Text: "   "}, 0); cues != nil {
		t.Errorf("chunkCues(blank) = %+v, want nil", cues)
	}
}

func TestWriteSRT(t *testing.T) {
	path := filepath.Join(t.TempDir(), "narration.srt")
	results := []*Result{
		{
			Name: "01_Intro",
			Chunks: []Chunk{
				{Text: "The evening settles. All is well.", Duration: 4 * time.Second},
			},
		},
		{
			Name: "02_Middle",
			Chunks: []Chunk{
				{Text: "The story continues.", Duration: 2 * time.Second},
			},
		},
	}
	if err := WriteSRT(path, results); err != nil {
		t.Fatalf("WriteSRT() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "The evening settles.") || !strings.Contains(content, "The story continues.") {
		t.Errorf("srt content incomplete:\n%s", content)
	}
	if !strings.Contains(content, "-->") {
		t.Error("srt timing arrows missing")
	}
}

func TestWriteSRTEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "narration.srt")
	if err := WriteSRT(path, nil); err == nil {
		t.Error("WriteSRT(nil) succeeded, want error")
	}
}
