package main

import (
	"os"

	"github.com/symfony-cli/console"
	"lullscript/commands"
)

var (
	// version is overridden at linking time
	version = "dev"
	// buildDate is overridden at linking time
	buildDate string
)

func main() {
	app := &console.Application{
		Name:        "lullscript",
		Usage:       "Generate long-form narrated scripts and audio from a topic",
		Description: "Researches a topic with the Gemini API, drafts a calm long-form narration split into sections, and optionally synthesizes each section to audio using ElevenLabs TTS. All output lands in a timestamped run directory.",
		Version:     version,
		BuildDate:   buildDate,
		Channel:     "stable",
		Flags: []console.Flag{
			&console.StringFlag{
				Name:         "config",
				Aliases:      []string{"c"},
				DefaultValue: "config.yaml",
				Usage:        "Path to config YAML file",
			},
		},
		Commands: commands.All(),
	}

	app.Run(os.Args)
}
