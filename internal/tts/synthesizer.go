// Package tts converts script sections to audio with the ElevenLabs API:
// sections are chunked under the request size limit, synthesized with
// request-ID continuity so chunk boundaries stay seamless, decoded and
// reassembled into one WAV per section plus a combined narration track.
package tts

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/haguro/elevenlabs-go"
)

const (
	requestTimeout = 30 * time.Second
	maxAttempts    = 3
	retryDelay     = 5 * time.Second
	// failedChunkPause is how long to wait before the final retry pass
	// over chunks that kept failing.
	failedChunkPause = 30 * time.Second
	// continuityDepth is how many previous request IDs are passed along
	// for seamless stitching.
	continuityDepth = 3
)

type Options struct {
	Voice      string
	Model      string
	Speed      float32
	ChunkBytes int
}

// Chunk is one synthesized piece of a section.
type Chunk struct {
	Text     string
	Samples  []int
	Rate     int
	Duration time.Duration
}

// Result is the synthesized audio of one section.
type Result struct {
	Name   string
	Chunks []Chunk
}

// Samples concatenates the section's chunk audio.
func (r *Result) Samples() []int {
	var samples []int
	for _, c := range r.Chunks {
		samples = append(samples, c.Samples...)
	}
	return samples
}

// Rate returns the sample rate of the section audio.
func (r *Result) Rate() int {
	for _, c := range r.Chunks {
		if c.Rate > 0 {
			return c.Rate
		}
	}
	return 0
}

// Duration returns the total spoken time of the section.
func (r *Result) Duration() time.Duration {
	var total time.Duration
	for _, c := range r.Chunks {
		total += c.Duration
	}
	return total
}

type Synthesizer struct {
	client *elevenlabs.Client
	opts   Options

	// request IDs of recent chunks, for continuity across calls
	recentIDs []string
}

func NewSynthesizer(ctx context.Context, apiKey string, opts Options) *Synthesizer {
	return &Synthesizer{
		client: elevenlabs.NewClient(ctx, apiKey, requestTimeout),
		opts:   opts,
	}
}

// Voices lists the voices available to the configured API key.
func (s *Synthesizer) Voices() ([]elevenlabs.Voice, error) {
	return s.client.GetVoices()
}

// SynthesizeSection turns one section's text into audio chunks. Chunks
// that fail after their own retries get one more pass after a pause.
// At least one successful chunk is required.
func (s *Synthesizer) SynthesizeSection(name, text string) (*Result, error) {
	chunks := SplitChunks(text, s.opts.ChunkBytes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("section %s has no speakable text", name)
	}
	log.Printf("Synthesizing %s (%d chunks)", name, len(chunks))

	results := make([]*Chunk, len(chunks))
	var failed []int
	for i, chunk := range chunks {
		next := ""
		if i+1 < len(chunks) {
			next = chunks[i+1]
		}
		result, err := s.speak(chunk, next)
		if err != nil {
			log.Printf("Chunk %d/%d of %s failed: %v", i+1, len(chunks), name, err)
			failed = append(failed, i)
			continue
		}
		results[i] = result
	}

	if len(failed) > 0 {
		log.Printf("Retrying %d failed chunks of %s after %s", len(failed), name, failedChunkPause)
		time.Sleep(failedChunkPause)
		remaining := failed[:0]
		for _, i := range failed {
			next := ""
			if i+1 < len(chunks) {
				next = chunks[i+1]
			}
			result, err := s.speak(chunks[i], next)
			if err != nil {
				log.Printf("Chunk %d of %s failed again: %v", i+1, name, err)
				remaining = append(remaining, i)
				continue
			}
			results[i] = result
		}
		failed = remaining
	}

	section := &Result{Name: name}
	for _, result := range results {
		if result != nil {
			section.Chunks = append(section.Chunks, *result)
		}
	}
	if len(section.Chunks) == 0 {
		return nil, fmt.Errorf("no audio generated for section %s", name)
	}
	if len(failed) > 0 {
		log.Printf("Section %s audio is missing %d of %d chunks", name, len(failed), len(chunks))
	}
	return section, nil
}

func (s *Synthesizer) speak(text, nextText string) (*Chunk, error) {
	req := elevenlabs.TextToSpeechRequest{
		VoiceSettings: &elevenlabs.VoiceSettings{
			SpeakerBoost: true,
			Speed:        s.opts.Speed,
		},
		Text:               text,
		ModelID:            s.opts.Model,
		PreviousRequestIds: s.recentIDs,
		NextText:           nextText,
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		speech, id, err := s.client.TextToSpeechWithRequestID(s.opts.Voice, req)
		if err != nil {
			lastErr = err
			if !transient(err) {
				return nil, err
			}
			log.Printf("TTS request failed (attempt %d/%d), retrying in %s: %v", attempt, maxAttempts, retryDelay, err)
			time.Sleep(retryDelay)
			continue
		}

		s.recentIDs = append(s.recentIDs, id)
		if len(s.recentIDs) > continuityDepth {
			s.recentIDs = s.recentIDs[len(s.recentIDs)-continuityDepth:]
		}

		samples, rate, err := decodeMP3(speech)
		if err != nil {
			return nil, err
		}
		return &Chunk{
			Text:     text,
			Samples:  samples,
			Rate:     rate,
			Duration: SampleDuration(len(samples), rate),
		}, nil
	}
	return nil, fmt.Errorf("tts failed after %d attempts: %w", maxAttempts, lastErr)
}

func transient(err error) bool {
	msg := err.Error()
	for _, code := range []string{"502", "503", "504", "500"} {
		if strings.Contains(msg, code) {
			return true
		}
	}
	return false
}

// Combine joins the audio of all sections into one track.
func Combine(results []*Result) (samples []int, rate int) {
	for _, r := range results {
		samples = append(samples, r.Samples()...)
		if rate == 0 {
			rate = r.Rate()
		}
	}
	return samples, rate
}
