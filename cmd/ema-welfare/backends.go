package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-welfare/core/audio"
	"github.com/koscakluka/ema-welfare/core/audio/miniaudio"
	"github.com/koscakluka/ema-welfare/core/audio/portaudio"
	"github.com/koscakluka/ema-welfare/core/config"
	"github.com/koscakluka/ema-welfare/core/llms/gemini"
	"github.com/koscakluka/ema-welfare/core/llms/groq"
	"github.com/koscakluka/ema-welfare/core/llms/openai"
	"github.com/koscakluka/ema-welfare/core/planner"
	sttdeepgram "github.com/koscakluka/ema-welfare/core/speechtotext/deepgram"
	"github.com/koscakluka/ema-welfare/core/speechtotext/whisper"
	ttsdeepgram "github.com/koscakluka/ema-welfare/core/texttospeech/deepgram"
	ttsopenai "github.com/koscakluka/ema-welfare/core/texttospeech/openai"
	"github.com/koscakluka/ema-welfare/core/voice"
)

type audioDevice interface {
	Init(ctx context.Context) error
	voice.Recorder
	voice.Player
	PlaybackEncodingInfo() audio.EncodingInfo
	Close() error
}

func requireKey(backend, key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%s backend needs an API key", backend)
	}
	return nil
}

func newPlannerBackend(ctx context.Context, app *config.App) (planner.Backend, error) {
	switch name := strings.ToLower(app.Server.Planner); name {
	case "groq":
		if err := requireKey(name, app.Groq.APIKey); err != nil {
			return nil, err
		}
		return groq.NewClient(app.Groq.APIKey, app.Groq.Model, groq.WithBaseURL(app.Groq.BaseURL)), nil
	case "openai":
		if err := requireKey(name, app.OpenAI.APIKey); err != nil {
			return nil, err
		}
		return openai.NewClient(app.OpenAI.APIKey, app.OpenAI.Model, openai.WithBaseURL(app.OpenAI.BaseURL)), nil
	case "gemini":
		if err := requireKey(name, app.Gemini.APIKey); err != nil {
			return nil, err
		}
		return gemini.NewClient(ctx, app.Gemini.APIKey, app.Gemini.Model)
	default:
		return nil, fmt.Errorf("unknown planner backend %q", app.Server.Planner)
	}
}

func newTranscriber(app *config.App) (voice.Transcriber, error) {
	switch name := strings.ToLower(app.Server.STT); name {
	case "whisper":
		if err := requireKey(name, app.Groq.APIKey); err != nil {
			return nil, err
		}
		return whisper.NewClient(app.Groq.APIKey, app.Groq.TranscribeModel, whisper.WithBaseURL(app.Groq.BaseURL)), nil
	case "deepgram":
		if err := requireKey(name, app.Deepgram.APIKey); err != nil {
			return nil, err
		}
		return sttdeepgram.NewTranscriptionClient(app.Deepgram.APIKey,
			sttdeepgram.WithModel(app.Deepgram.ListenModel),
			sttdeepgram.WithLanguage(app.Deepgram.Language),
		), nil
	default:
		return nil, fmt.Errorf("unknown speech-to-text backend %q", app.Server.STT)
	}
}

func newSynthesizer(app *config.App) (voice.Synthesizer, error) {
	switch name := strings.ToLower(app.Server.TTS); name {
	case "openai":
		if err := requireKey(name, app.OpenAI.APIKey); err != nil {
			return nil, err
		}
		return ttsopenai.NewClient(app.OpenAI.APIKey, app.OpenAI.SpeechModel, app.OpenAI.Voice,
			ttsopenai.WithBaseURL(app.OpenAI.BaseURL)), nil
	case "deepgram":
		if err := requireKey(name, app.Deepgram.APIKey); err != nil {
			return nil, err
		}
		return ttsdeepgram.NewTextToSpeechClient(app.Deepgram.APIKey, app.Deepgram.Voice), nil
	default:
		return nil, fmt.Errorf("unknown text-to-speech backend %q", app.Server.TTS)
	}
}

func newAudioDevice(app *config.App) (audioDevice, error) {
	switch strings.ToLower(app.Server.Audio) {
	case "miniaudio":
		return miniaudio.NewClient(miniaudio.WithCaptureSampleRate(app.Voice.SampleRate)), nil
	case "portaudio":
		return portaudio.NewClient(portaudio.WithCaptureSampleRate(app.Voice.SampleRate)), nil
	default:
		return nil, fmt.Errorf("unknown audio backend %q", app.Server.Audio)
	}
}
