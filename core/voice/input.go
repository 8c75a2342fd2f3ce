// Package voice turns the audio devices and speech engines into the two
// operations the orchestrator needs: listening with a quality score and
// speaking a reply.
package voice

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/koscakluka/ema-welfare/core/audio"
	"github.com/koscakluka/ema-welfare/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultCaptureWindow    = 4 * time.Second
	DefaultSilenceThreshold = 0.002
	DefaultLanguage         = "te"
)

// DomainPrompt biases recognition towards welfare scheme vocabulary.
const DomainPrompt = "నమస్కారం, తెలంగాణ ప్రభుత్వం సంక్షేమ పథకాలు, రైతు బంధు, ఆసరా పెన్షన్, " +
	"కళ్యాణ లక్ష్మి, విత్తనాలు, ఎకరాలు, ఆదాయం, వయస్సు."

type Recorder interface {
	Record(ctx context.Context, window time.Duration) ([]byte, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, pcm []byte, opts ...speechtotext.TranscriptionOption) (speechtotext.Transcript, error)
}

type initializer interface {
	Init(ctx context.Context) error
}

type Input struct {
	recorder    Recorder
	transcriber Transcriber

	window           time.Duration
	silenceThreshold float64
	language         string
	prompt           string
	encoding         audio.EncodingInfo
}

type InputOption func(*Input)

func WithCaptureWindow(window time.Duration) InputOption {
	return func(in *Input) {
		if window > 0 {
			in.window = window
		}
	}
}

func WithSilenceThreshold(threshold float64) InputOption {
	return func(in *Input) {
		if threshold >= 0 {
			in.silenceThreshold = threshold
		}
	}
}

func WithLanguage(language string) InputOption {
	return func(in *Input) { in.language = language }
}

func WithPrompt(prompt string) InputOption {
	return func(in *Input) { in.prompt = prompt }
}

// WithSampleRate sets the rate the recorder captures at.
func WithSampleRate(rate int) InputOption {
	return func(in *Input) {
		if rate > 0 {
			in.encoding.SampleRate = rate
		}
	}
}

func NewInput(recorder Recorder, transcriber Transcriber, opts ...InputOption) *Input {
	in := &Input{
		recorder:         recorder,
		transcriber:      transcriber,
		window:           DefaultCaptureWindow,
		silenceThreshold: DefaultSilenceThreshold,
		language:         DefaultLanguage,
		prompt:           DomainPrompt,
		encoding:         audio.GetDefaultEncodingInfo(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Init initialises the recorder when it needs it.
func (in *Input) Init(ctx context.Context) error {
	if i, ok := in.recorder.(initializer); ok {
		return i.Init(ctx)
	}
	return nil
}

// ListenWithQuality records one fixed window and transcribes it. Silence and
// transcription failures yield an empty transcript; only recording failures
// are returned as errors. Quality is the engine confidence scaled by the
// share of Telugu script in the transcript.
func (in *Input) ListenWithQuality(ctx context.Context) (string, float64, error) {
	ctx, span := tracer.Start(ctx, "listen with quality",
		trace.WithAttributes(attribute.String("window", in.window.String())))
	defer span.End()

	logger.Info("recording", "window", in.window)
	pcm, err := in.recorder.Record(ctx, in.window)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", 0, err
	}

	energy := audio.Energy(pcm)
	span.SetAttributes(attribute.Float64("energy", energy))
	if energy < in.silenceThreshold {
		logger.Info("detected near-silence, ignoring turn", "energy", energy)
		return "", 0, nil
	}

	transcript, err := in.transcriber.Transcribe(ctx, pcm,
		speechtotext.WithLanguage(in.language),
		speechtotext.WithPrompt(in.prompt),
		speechtotext.WithEncodingInfo(in.encoding),
	)
	if err != nil {
		span.RecordError(err)
		logger.Error("transcription failed", "error", err)
		return "", 0, nil
	}
	if transcript.Text == "" {
		return "", 0, nil
	}

	ratio := TeluguRatio(transcript.Text)
	quality := transcript.Confidence * ratio
	span.SetAttributes(attribute.Float64("quality", quality))
	logger.Info("transcribed user speech",
		"text", transcript.Text,
		"confidence", transcript.Confidence,
		"te_ratio", ratio,
		"quality", quality)
	return transcript.Text, quality, nil
}

// TeluguRatio is the share of runes in the Telugu block (U+0C00 to U+0C7F)
// among all runes of text, spaces included.
func TeluguRatio(text string) float64 {
	total := utf8.RuneCountInString(text)
	if total == 0 {
		return 0
	}

	telugu := 0
	for _, r := range text {
		if r >= 0x0C00 && r <= 0x0C7F {
			telugu++
		}
	}
	return float64(telugu) / float64(total)
}
