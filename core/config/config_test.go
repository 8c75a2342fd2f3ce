package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	app, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ":8001", app.Server.Addr)
	require.Equal(t, "groq", app.Server.Planner)
	require.False(t, app.Server.PlannerSchema)
	require.Equal(t, "whisper", app.Server.STT)
	require.Equal(t, "openai", app.Server.TTS)
	require.Equal(t, "miniaudio", app.Server.Audio)
	require.Equal(t, 5*time.Second, app.Server.ShutdownTimeout)

	require.Equal(t, "te", app.Voice.Language)
	require.Equal(t, 4*time.Second, app.Voice.CaptureWindow)
	require.InDelta(t, 0.7, app.Voice.ConfidenceThreshold, 1e-9)
	require.InDelta(t, 0.002, app.Voice.SilenceThreshold, 1e-9)
	require.Equal(t, 16000, app.Voice.SampleRate)

	require.Equal(t, "llama-3.3-70b-versatile", app.Groq.Model)
	require.Equal(t, 10*time.Second, app.Groq.Timeout)
	require.Equal(t, "whisper-large-v3", app.Groq.TranscribeModel)
}

func TestLoadReadsPrefixedVariables(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("EMA_PLANNER", "gemini")
	t.Setenv("EMA_PLANNER_SCHEMA", "true")
	t.Setenv("EMA_CATALOG_DB", "/tmp/schemes.db")
	t.Setenv("EMA_VOICE_CONFIDENCE_THRESHOLD", "0.5")
	t.Setenv("GOOGLE_API_KEY", "g-test")

	app, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "gsk-test", app.Groq.APIKey)
	require.Equal(t, "gemini", app.Server.Planner)
	require.True(t, app.Server.PlannerSchema)
	require.Equal(t, "/tmp/schemes.db", app.Server.CatalogDB)
	require.InDelta(t, 0.5, app.Voice.ConfidenceThreshold, 1e-9)
	require.Equal(t, "g-test", app.Gemini.APIKey)
}

func TestLoadExportsEnvFileWithoutOverridingEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DEEPGRAM_API_KEY=dg-file\nEMA_ADDR=:9090\n"), 0o600))

	t.Setenv("EMA_ADDR", ":7070")
	t.Setenv("DEEPGRAM_API_KEY", "")
	require.NoError(t, os.Unsetenv("DEEPGRAM_API_KEY"))

	app, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "dg-file", app.Deepgram.APIKey)
	require.Equal(t, ":7070", app.Server.Addr)
}

func TestLoadFailsOnMissingExplicitEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestNewLoadsSingleSection(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_VOICE", "nova")

	conf, err := New[OpenAI]("OPENAI", "")
	require.NoError(t, err)
	require.Equal(t, "nova", conf.Voice)
	require.Equal(t, "gpt-4o-mini-tts", conf.SpeechModel)
}
