package tts

import (
	"fmt"
	"time"

	"github.com/asticode/go-astisub"
)

// WriteSRT writes a subtitle transcript matching the combined narration
// track. Chunk timings come from the decoded audio; within a chunk,
// sentence timings are interpolated proportionally to their word share.
func WriteSRT(path string, results []*Result) error {
	subs := astisub.NewSubtitles()

	var offset time.Duration
	index := 0
	for _, result := range results {
		for _, chunk := range result.Chunks {
			for _, cue := range chunkCues(chunk, offset) {
				item := &astisub.Item{
					Index:   index + 1,
					StartAt: cue.start,
					EndAt:   cue.end,
					Lines: []astisub.Line{
						{Items: []astisub.LineItem{{Text: cue.text}}},
					},
				}
				subs.Items = append(subs.Items, item)
				index++
			}
			offset += chunk.Duration
		}
	}

	if len(subs.Items) == 0 {
		return fmt.Errorf("no subtitle cues to write")
	}
	return subs.Write(path)
}

type cue struct {
	text       string
	start, end time.Duration
}

func chunkCues(chunk Chunk, offset time.Duration) []cue {
	sentences := SplitSentences(chunk.Text)
	if len(sentences) == 0 {
		return nil
	}

	totalWords := 0
	for _, s := range sentences {
		totalWords += wordCount(s)
	}
	if totalWords == 0 {
		return nil
	}

	var cues []cue
	start := offset
	for _, s := range sentences {
		words := wordCount(s)
		share := time.Duration(float64(chunk.Duration) * float64(words) / float64(totalWords))
		cues = append(cues, cue{text: s, start: start, end: start + share})
		start += share
	}
	// Rounding drift lands on the final cue.
	cues[len(cues)-1].end = offset + chunk.Duration
	return cues
}
