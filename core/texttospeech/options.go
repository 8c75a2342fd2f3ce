package texttospeech

import "github.com/koscakluka/ema-welfare/core/audio"

type SpeechOptions struct {
	// Voice overrides the client's default voice.
	Voice string
	// Instructions steer delivery (tone, pace). Not supported by all
	// clients.
	Instructions string

	EncodingInfo audio.EncodingInfo
}

type SpeechOption func(*SpeechOptions)

func NewSpeechOptions(opts ...SpeechOption) SpeechOptions {
	options := SpeechOptions{EncodingInfo: audio.GetDefaultPlaybackEncodingInfo()}
	for _, opt := range opts {
		opt(&options)
	}
	return options
}

func WithVoice(voice string) SpeechOption {
	return func(o *SpeechOptions) {
		o.Voice = voice
	}
}

func WithInstructions(instructions string) SpeechOption {
	return func(o *SpeechOptions) {
		o.Instructions = instructions
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) SpeechOption {
	return func(o *SpeechOptions) {
		if encodingInfo.IsZero() {
			logger.Warn("ignoring incomplete encoding info", "sample_rate", encodingInfo.SampleRate, "format", encodingInfo.Format)
			return
		}
		o.EncodingInfo = encodingInfo
	}
}
