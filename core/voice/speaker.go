package voice

import (
	"context"
	"fmt"
	"strings"

	"github.com/koscakluka/ema-welfare/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts ...texttospeech.SpeechOption) ([]byte, error)
}

type Player interface {
	Play(ctx context.Context, pcm []byte) error
}

// Speaker synthesises text and blocks until it has been played.
type Speaker struct {
	synthesizer Synthesizer
	player      Player
	options     []texttospeech.SpeechOption
}

func NewSpeaker(synthesizer Synthesizer, player Player, opts ...texttospeech.SpeechOption) *Speaker {
	return &Speaker{
		synthesizer: synthesizer,
		player:      player,
		options:     opts,
	}
}

func (s *Speaker) Init(ctx context.Context) error {
	if i, ok := s.player.(initializer); ok {
		return i.Init(ctx)
	}
	return nil
}

func (s *Speaker) Speak(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	ctx, span := tracer.Start(ctx, "speak",
		trace.WithAttributes(attribute.Int("chars", len(text))))
	defer span.End()

	pcm, err := s.synthesizer.Synthesize(ctx, text, s.options...)
	if err != nil {
		err = fmt.Errorf("failed to synthesize speech: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := s.player.Play(ctx, pcm); err != nil {
		err = fmt.Errorf("failed to play speech: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

// Muted is a speaker for deployments without an audio device. Replies still
// reach observers through the transcript.
type Muted struct{}

func (Muted) Speak(context.Context, string) error { return nil }
