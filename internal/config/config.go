package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Generation tuning constants. These track the behavior of the Gemini
// models in use and the pacing of spoken narration.
const (
	// DefaultModel is the Gemini model used for research, structuring
	// and narration.
	DefaultModel = "gemini-1.5-flash-latest"

	// WordsPerMinute is the assumed narration pace used to estimate the
	// spoken length of generated text.
	WordsPerMinute = 140

	// TokensPerWord converts a word-count target into a token budget.
	TokensPerWord = 1.4

	// TokenBuffer is the safety margin added on top of an estimated
	// token budget.
	TokenBuffer = 0.30

	// ModelMaxOutputTokens is the hard output cap of the model.
	ModelMaxOutputTokens = 8192

	// PromptInputCharLimit caps how much research or script text is
	// inlined into a single prompt.
	PromptInputCharLimit = 300000

	// SectionVarianceMinutes is how far off a section may be from its
	// target length before expansion kicks in.
	SectionVarianceMinutes = 1.5

	// MaxExpansionAttempts limits how often a short section is expanded.
	MaxExpansionAttempts = 6

	// MinExpansionMinutes is the smallest shortfall worth another
	// expansion round.
	MinExpansionMinutes = 1.0

	// WordsPerParagraph is the assumed size of a generated paragraph,
	// used to phrase expansion requests.
	WordsPerParagraph = 85

	// MaxSmoothingChunks limits the chunked smoothing pass.
	MaxSmoothingChunks = 5
)

// TTS speaking rate bounds accepted by the ElevenLabs API.
const (
	MinSpeed = 0.25
	MaxSpeed = 4.0
)

type Config struct {
	Model      string  `yaml:"model"`
	Voice      string  `yaml:"voice"`
	VoiceModel string  `yaml:"voice_model"`
	Speed      float32 `yaml:"speed"`
	WPM        int     `yaml:"words_per_minute"`
	OutputDir  string  `yaml:"output_dir"`
	ChunkBytes int     `yaml:"chunk_bytes"`

	// Resolved from the environment, never from the YAML file.
	GeminiKey     string `yaml:"-"`
	ElevenLabsKey string `yaml:"-"`
}

// Read loads the YAML config file and resolves API keys from the
// environment, honoring a .env file in the working directory. A missing
// config file is not an error; defaults apply.
func Read(filename string) (*Config, error) {
	config := &Config{}

	data, err := os.ReadFile(filename)
	if err == nil {
		decoder := yaml.NewDecoder(strings.NewReader(string(data)))
		decoder.KnownFields(true)
		if err := decoder.Decode(config); err != nil {
			var typeError *yaml.TypeError
			if errors.As(err, &typeError) {
				msg := ""
				for _, field := range typeError.Errors {
					msg += fmt.Sprintf("  - <fg=red>%s</>\n", field)
				}
				return nil, fmt.Errorf("error parsing config file <info>%s</>:\n%s", filename, msg)
			}
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	config.applyDefaults()

	// .env is optional, real environment variables win either way.
	_ = godotenv.Load()
	config.GeminiKey = os.Getenv("GEMINI_API_KEY")
	config.ElevenLabsKey = os.Getenv("ELEVENLABS_API_KEY")

	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.VoiceModel == "" {
		c.VoiceModel = "eleven_multilingual_v2"
	}
	if c.Speed == 0 {
		c.Speed = 0.9
	}
	if c.Speed < MinSpeed {
		c.Speed = MinSpeed
	}
	if c.Speed > MaxSpeed {
		c.Speed = MaxSpeed
	}
	if c.WPM <= 0 {
		c.WPM = WordsPerMinute
	}
	if c.OutputDir == "" {
		c.OutputDir = "output"
	}
	if c.ChunkBytes <= 0 {
		c.ChunkBytes = 4000
	}
}
