package speechtotext

import "github.com/koscakluka/ema-welfare/core/audio"

// Transcript is the result of transcribing one recording.
type Transcript struct {
	Text string
	// Confidence is the engine's confidence in the transcript, in [0, 1].
	Confidence float64
	// Language is the language reported by the engine, if any.
	Language string
}

type TranscriptionOptions struct {
	// Language is the expected spoken language as an ISO-639-1 code.
	Language string
	// Prompt biases recognition towards domain vocabulary. Not supported by
	// all engines.
	Prompt string

	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func NewTranscriptionOptions(opts ...TranscriptionOption) TranscriptionOptions {
	options := TranscriptionOptions{EncodingInfo: audio.GetDefaultEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithLanguage(language string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Language = language
	}
}

func WithPrompt(prompt string) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.Prompt = prompt
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		if encodingInfo.IsZero() {
			return
		}
		o.EncodingInfo = encodingInfo
	}
}
