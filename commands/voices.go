package commands

import (
	"context"
	"fmt"

	"github.com/symfony-cli/console"
	"lullscript/internal/config"
	"lullscript/internal/tts"
)

var VoicesCmd = &console.Command{
	Name:        "voices",
	Aliases:     []*console.Alias{{Name: "v"}},
	Usage:       "List the ElevenLabs voices available to your API key",
	Description: "Fetches the voices your ElevenLabs account can use. Put the printed voice ID into the 'voice' field of the config file.",
	Action:      runVoices,
}

func runVoices(c *console.Context) error {
	cfg, err := config.Read(c.String("config"))
	if err != nil {
		return console.Exit(fmt.Sprintf("Error reading config: %v", err), 1)
	}
	if cfg.ElevenLabsKey == "" {
		return console.Exit("ELEVENLABS_API_KEY is not set; put it in a .env file or export it", 1)
	}

	synth := tts.NewSynthesizer(context.Background(), cfg.ElevenLabsKey, tts.Options{})
	voices, err := synth.Voices()
	if err != nil {
		return console.Exit(fmt.Sprintf("Error fetching voices: %v", err), 1)
	}

	for _, voice := range voices {
		marker := ""
		if voice.VoiceId == cfg.Voice {
			marker = " <comment>(configured)</>"
		}
		fmt.Fprintf(c.App.Writer, "<info>%s</>  %s [%s]%s\n", voice.VoiceId, voice.Name, voice.Category, marker)
	}
	return nil
}
