package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/symfony-cli/console"
	"lullscript/internal/config"
	"lullscript/internal/gemini"
	"lullscript/internal/run"
	"lullscript/internal/script"
	"lullscript/internal/ui"
)

var GenerateCmd = &console.Command{
	Name:        "generate",
	Aliases:     []*console.Alias{{Name: "g"}},
	Usage:       "Research a topic and generate a narrated script, optionally with audio",
	Description: "Runs the full pipeline: collects the topic and target length, researches it with Gemini, proposes a section structure for review, generates each section, smooths the combined script, and optionally synthesizes audio per section.",
	Flags: []console.Flag{
		&console.StringFlag{
			Name:    "input-file",
			Aliases: []string{"i"},
			Usage:   "Read inputs from a file (topic, direction, minutes, influence, optional tts yes/no) instead of prompting",
		},
		&console.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Usage:   "Base directory for run output (overrides config)",
		},
		&console.BoolFlag{
			Name:  "skip-tts",
			Usage: "Generate text only, never synthesize audio",
		},
	},
	Action: runGenerate,
}

// feedbackRounds bounds the section review loop.
const feedbackRounds = config.MaxExpansionAttempts + 3

func runGenerate(c *console.Context) error {
	start := time.Now()

	cfg, err := config.Read(c.String("config"))
	if err != nil {
		return console.Exit(fmt.Sprintf("Error reading config: %v", err), 1)
	}
	if cfg.GeminiKey == "" {
		return console.Exit("GEMINI_API_KEY is not set.\nPut GEMINI_API_KEY=your-key in a .env file next to the binary or export it in your environment.", 1)
	}

	prompter := ui.NewPrompter(os.Stdin, c.App.Writer)

	var req script.Request
	var ttsChoice *bool
	if inputFile := c.String("input-file"); inputFile != "" {
		req, ttsChoice, err = ui.ReadInputFile(inputFile)
	} else {
		req, err = prompter.Inputs()
	}
	if err != nil {
		return console.Exit(fmt.Sprintf("Error collecting inputs: %v", err), 1)
	}

	outputDir := cfg.OutputDir
	if o := c.String("output-dir"); o != "" {
		outputDir = o
	}
	dir, err := run.Create(outputDir, req.Topic)
	if err != nil {
		return console.Exit(fmt.Sprintf("Error creating run directory: %v", err), 1)
	}
	defer dir.Close()
	fmt.Fprintf(c.App.Writer, "Output for this run: <info>%s</>\n", dir.Path)

	ctx := context.Background()
	client, err := gemini.New(ctx, cfg.GeminiKey, cfg.Model, script.NarratorInstruction, script.StructurerInstruction)
	if err != nil {
		return console.Exit(fmt.Sprintf("Error initializing Gemini client: %v", err), 1)
	}
	defer client.Close()

	// Phase 1: research.
	fmt.Fprintf(c.App.Writer, "\n<comment>Phase 1:</> Researching (web search enabled, for a ~%d min script)...\n", req.TargetMinutes)
	research, err := script.Research(ctx, client, req)
	if err != nil {
		return console.Exit(fmt.Sprintf("Research failed: %v", err), 1)
	}
	if err := dir.SaveText(run.ResearchFileName, research); err != nil {
		return console.Exit(err.Error(), 1)
	}

	// Phase 2: structure proposal and review.
	fmt.Fprintf(c.App.Writer, "\n<comment>Phase 2:</> Proposing section structure...\n")
	proposal, err := script.Propose(ctx, client, req, research)
	if err != nil {
		return console.Exit(fmt.Sprintf("Section proposal failed: %v", err), 1)
	}
	if err := dir.SaveJSON(run.ProposalFileName, proposal); err != nil {
		return console.Exit(err.Error(), 1)
	}

	sections, err := reviewLoop(ctx, c.App.Writer, client, prompter, dir, req, proposal, research)
	if err != nil {
		return console.Exit(err.Error(), 1)
	}

	// Phase 3: per-section generation.
	fmt.Fprintf(c.App.Writer, "\n<comment>Phase 3:</> Generating %d sections...\n", len(sections))
	texts := make(map[string]string, len(sections))
	for i, sec := range sections {
		fmt.Fprintf(c.App.Writer, "Generating section %d/%d: <info>%s</> (~%d min)...\n", i+1, len(sections), sec.Title, sec.EstimatedMinutes)
		text, err := script.GenerateSection(ctx, client, req, sec, research, cfg.WPM)
		if err != nil {
			return console.Exit(fmt.Sprintf("Section %q failed: %v", sec.Title, err), 1)
		}
		texts[sec.Title] = text
		if err := dir.SaveText(run.SectionFileName(i+1, sec.Title), text); err != nil {
			return console.Exit(err.Error(), 1)
		}
	}

	// Phase 4: stitch and smooth.
	fmt.Fprintf(c.App.Writer, "\n<comment>Phase 4:</> Stitching sections and smoothing...\n")
	final, err := script.Smooth(ctx, client, req, script.Stitch(sections, texts), cfg.WPM)
	if err != nil {
		return console.Exit(fmt.Sprintf("Final smoothing failed: %v", err), 1)
	}
	if err := dir.SaveText(run.ScriptFileName, final); err != nil {
		return console.Exit(err.Error(), 1)
	}

	report(ctx, c, client, cfg, dir, final, start)

	if c.Bool("skip-tts") {
		return nil
	}
	wantAudio := false
	if ttsChoice != nil {
		wantAudio = *ttsChoice
	} else {
		wantAudio = prompter.Confirm("\nSynthesize audio for the generated sections?")
	}
	if !wantAudio {
		return nil
	}
	if err := synthesizeRun(c, cfg, dir); err != nil {
		return console.Exit(fmt.Sprintf("Audio synthesis failed: %v", err), 1)
	}
	return nil
}

// reviewLoop runs the proposal/feedback cycle until the user confirms or
// the round budget lapses, in which case the last proposal stands.
func reviewLoop(ctx context.Context, out io.Writer, client script.Generator, prompter *ui.Prompter, dir *run.Dir, req script.Request, proposal []script.Section, research string) ([]script.Section, error) {
	for round := 1; round <= feedbackRounds; round++ {
		feedback, confirmed, err := prompter.ReviewSections(proposal, req.TargetMinutes)
		if err != nil {
			return nil, fmt.Errorf("reading section feedback: %w", err)
		}
		if confirmed {
			log.Printf("Section structure confirmed (%d sections)", len(proposal))
			if err := dir.SaveJSON(run.ConfirmedFileName, proposal); err != nil {
				return nil, err
			}
			return proposal, nil
		}

		if round == feedbackRounds {
			break
		}
		retooled, err := script.Retool(ctx, client, req, proposal, feedback, research)
		if err != nil {
			log.Printf("Retooling failed, keeping previous proposal: %v", err)
			fmt.Fprintln(out, "The model failed to retool the sections; the previous proposal stands. Confirm it or give different feedback.")
			continue
		}
		proposal = retooled
	}

	log.Printf("Review round budget exhausted, using the last proposed structure")
	fmt.Fprintln(out, "Maximum review rounds reached; continuing with the last proposed structure.")
	if err := dir.SaveJSON(run.LapsedFileName, proposal); err != nil {
		return nil, err
	}
	return proposal, nil
}

func report(ctx context.Context, c *console.Context, client *gemini.Client, cfg *config.Config, dir *run.Dir, final string, start time.Time) {
	elapsed := time.Since(start)
	minutes := script.EstimateMinutes(final, cfg.WPM)
	usage := client.Usage()

	fmt.Fprintf(c.App.Writer, "\n<comment>--- Pipeline complete ---</>\n")
	fmt.Fprintf(c.App.Writer, "Final script: <info>%s</> (estimated length %.2f minutes)\n", dir.FilePath(run.ScriptFileName), minutes)
	if tokens, err := client.CountTokens(ctx, final); err == nil {
		fmt.Fprintf(c.App.Writer, "Final script token count: %d\n", tokens)
	} else {
		log.Printf("Could not count final script tokens: %v", err)
	}
	fmt.Fprintf(c.App.Writer, "Research notes: <info>%s</>\n", dir.FilePath(run.ResearchFileName))
	fmt.Fprintf(c.App.Writer, "Log: <info>%s</>\n", dir.FilePath(run.LogFileName))
	fmt.Fprintf(c.App.Writer, "Accumulated tokens: prompt %d, candidates %d, total %d\n", usage.Prompt, usage.Candidates, usage.Total)
	fmt.Fprintf(c.App.Writer, "Total execution time: %s\n", elapsed.Round(time.Second))
}
