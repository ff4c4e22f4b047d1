package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/symfony-cli/console"
	"lullscript/internal/config"
	"lullscript/internal/run"
	"lullscript/internal/tts"
)

var SynthesizeCmd = &console.Command{
	Name:        "synthesize",
	Aliases:     []*console.Alias{{Name: "s"}},
	Usage:       "Synthesize audio for the section scripts of an existing run",
	Description: "Re-runs text-to-speech over the numbered section files of a previous run directory, for example after editing the scripts by hand or after a run with --skip-tts. Produces one WAV per section, the combined narration track and an SRT transcript.",
	Args: console.ArgDefinition{
		{Name: "run-dir", Description: "Path to the run directory holding the numbered section scripts"},
	},
	Action: runSynthesize,
}

func runSynthesize(c *console.Context) error {
	if c.NArg() < 1 {
		return console.Exit("Error: path to a run directory is required", 1)
	}

	cfg, err := config.Read(c.String("config"))
	if err != nil {
		return console.Exit(fmt.Sprintf("Error reading config: %v", err), 1)
	}

	dir, err := run.Open(c.Args().Slice()[0])
	if err != nil {
		return console.Exit(fmt.Sprintf("Error opening run directory: %v", err), 1)
	}

	if err := synthesizeRun(c, cfg, dir); err != nil {
		return console.Exit(fmt.Sprintf("Audio synthesis failed: %v", err), 1)
	}
	return nil
}

// synthesizeRun converts every numbered section script of a run into
// audio. Per-section failures are reported but do not stop the rest.
func synthesizeRun(c *console.Context, cfg *config.Config, dir *run.Dir) error {
	if cfg.ElevenLabsKey == "" {
		return fmt.Errorf("ELEVENLABS_API_KEY is not set; put it in a .env file or export it")
	}
	if cfg.Voice == "" {
		return fmt.Errorf("no voice configured; set 'voice' in the config file (run 'lullscript voices' to list options)")
	}

	files, err := dir.SectionFiles()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no section scripts found in %s", dir.Path)
	}

	audioDir, err := dir.AudioDir()
	if err != nil {
		return err
	}

	synth := tts.NewSynthesizer(context.Background(), cfg.ElevenLabsKey, tts.Options{
		Voice:      cfg.Voice,
		Model:      cfg.VoiceModel,
		Speed:      cfg.Speed,
		ChunkBytes: cfg.ChunkBytes,
	})

	fmt.Fprintf(c.App.Writer, "\nSynthesizing audio for %d sections...\n", len(files))
	var results []*tts.Result
	failed := 0
	for i, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		fmt.Fprintf(c.App.Writer, "Processing %d/%d: <info>%s</>\n", i+1, len(files), name)

		text, err := os.ReadFile(file)
		if err != nil {
			log.Printf("Reading %s failed: %v", file, err)
			failed++
			continue
		}

		start := time.Now()
		result, err := synth.SynthesizeSection(name, string(text))
		if err != nil {
			log.Printf("Section %s failed: %v", name, err)
			fmt.Fprintf(c.App.Writer, "<fg=yellow>Failed to generate audio for %s: %v</>\n", name, err)
			failed++
			continue
		}

		wavPath := filepath.Join(audioDir, name+".wav")
		if err := tts.WriteWAV(wavPath, result.Samples(), result.Rate()); err != nil {
			log.Printf("Writing %s failed: %v", wavPath, err)
			failed++
			continue
		}
		fmt.Fprintf(c.App.Writer, "Wrote <info>%s</> (%s of audio, took %s)\n",
			wavPath, result.Duration().Round(time.Second), time.Since(start).Round(time.Second))
		results = append(results, result)
	}

	if len(results) == 0 {
		return fmt.Errorf("no audio was generated")
	}

	samples, rate := tts.Combine(results)
	narrationPath := filepath.Join(audioDir, run.NarrationFileName)
	if err := tts.WriteWAV(narrationPath, samples, rate); err != nil {
		return fmt.Errorf("writing combined narration: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Combined narration written to <info>%s</>\n", narrationPath)

	srtPath := filepath.Join(audioDir, run.SubtitlesFileName)
	if err := tts.WriteSRT(srtPath, results); err != nil {
		log.Printf("Writing subtitles failed: %v", err)
	} else {
		fmt.Fprintf(c.App.Writer, "Transcript written to <info>%s</>\n", srtPath)
	}

	fmt.Fprintf(c.App.Writer, "Completed %d of %d sections.\n", len(results), len(files))
	if failed > 0 {
		fmt.Fprintf(c.App.Writer, "<fg=yellow>%d sections failed; rerun 'lullscript synthesize %s' to retry.</>\n", failed, dir.Path)
	}
	return nil
}
