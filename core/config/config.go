// Package config loads process configuration from the environment.
//
// Values are read with envconfig after an optional .env file has been
// exported into the environment through viper. Each section is loaded with
// its own prefix so the well-known provider variables (GROQ_API_KEY,
// DEEPGRAM_API_KEY, ...) work unchanged.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const defaultEnvFile = ".env"

type Server struct {
	Addr string `default:":8001"`
	// Planner selects the planning backend: groq, openai or gemini.
	Planner string `default:"groq"`
	// PlannerSchema sends the plan JSON schema to the planner backend
	// instead of relying on plain JSON mode.
	PlannerSchema bool `split_words:"true"`
	// STT selects the speech-to-text backend: whisper or deepgram.
	STT string `default:"whisper"`
	// TTS selects the text-to-speech backend: openai or deepgram.
	TTS string `default:"openai"`
	// Audio selects the audio device backend: miniaudio or portaudio.
	Audio string `default:"miniaudio"`
	// CatalogDB is an optional sqlite path for the scheme catalog.
	CatalogDB       string        `split_words:"true"`
	ShutdownTimeout time.Duration `split_words:"true" default:"5s"`
}

type Voice struct {
	Language            string        `default:"te"`
	CaptureWindow       time.Duration `split_words:"true" default:"4s"`
	SilenceThreshold    float64       `split_words:"true" default:"0.002"`
	ConfidenceThreshold float64       `split_words:"true" default:"0.7"`
	SampleRate          int           `split_words:"true" default:"16000"`
}

type Groq struct {
	APIKey          string        `split_words:"true"`
	BaseURL         string        `split_words:"true" default:"https://api.groq.com/openai/v1"`
	Model           string        `default:"llama-3.3-70b-versatile"`
	TranscribeModel string        `split_words:"true" default:"whisper-large-v3"`
	Timeout         time.Duration `default:"10s"`
}

type OpenAI struct {
	APIKey      string `split_words:"true"`
	BaseURL     string `split_words:"true" default:"https://api.openai.com/v1"`
	Model       string `default:"gpt-4o-mini"`
	SpeechModel string `split_words:"true" default:"gpt-4o-mini-tts"`
	Voice       string `default:"alloy"`
}

type Gemini struct {
	APIKey string `split_words:"true"`
	Model  string `default:"gemini-1.5-flash"`
}

type Deepgram struct {
	APIKey      string `split_words:"true"`
	ListenModel string `split_words:"true" default:"nova-3"`
	Language    string `default:"multi"`
	Voice       string `default:"aura-2-thalia-en"`
}

// App aggregates every configuration section.
type App struct {
	Server   Server
	Voice    Voice
	Groq     Groq
	OpenAI   OpenAI
	Gemini   Gemini
	Deepgram Deepgram
}

// Load reads all sections. envFile may be empty, in which case a .env file
// in the working directory is used when present.
func Load(envFile string) (*App, error) {
	if err := exportEnvFile(envFile); err != nil {
		return nil, err
	}

	app := &App{}
	sections := []struct {
		prefix string
		target any
	}{
		{"EMA", &app.Server},
		{"EMA_VOICE", &app.Voice},
		{"GROQ", &app.Groq},
		{"OPENAI", &app.OpenAI},
		{"GOOGLE", &app.Gemini},
		{"DEEPGRAM", &app.Deepgram},
	}
	for _, section := range sections {
		if err := envconfig.Process(section.prefix, section.target); err != nil {
			return nil, fmt.Errorf("failed to load %s configuration: %w", strings.ToLower(section.prefix), err)
		}
	}

	return app, nil
}

func MustNew[T any](prefix, envFile string) *T {
	conf, err := New[T](prefix, envFile)
	if err != nil {
		panic(err)
	}
	return conf
}

// New loads a single configuration section.
func New[T any](prefix, envFile string) (*T, error) {
	if err := exportEnvFile(envFile); err != nil {
		return nil, err
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}

	return &conf, nil
}

func exportEnvFile(path string) error {
	if path = strings.TrimSpace(path); path != "" {
		if err := exportEnvironment(path); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		return nil
	}

	if err := exportEnvironmentIfExists(defaultEnvFile); err != nil {
		return fmt.Errorf("failed to load default env file: %w", err)
	}
	return nil
}

func exportEnvironmentIfExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(path)
}

// exportEnvironment copies the file's settings into the process environment
// without overriding variables that are already set.
func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}

	return nil
}
