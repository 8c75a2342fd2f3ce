// Package openai synthesises speech through the OpenAI audio speech API.
package openai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/koscakluka/ema-welfare/core/audio"
	"github.com/koscakluka/ema-welfare/core/texttospeech"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultModel = openai.SpeechModelGPT4oMiniTTS
	DefaultVoice = "alloy"
	// pcmSampleRate is the fixed rate of the API's raw pcm output.
	pcmSampleRate = 24000
)

type Client struct {
	model  string
	voice  string
	client openai.Client
}

type Option func(*[]option.RequestOption)

func WithBaseURL(baseURL string) Option {
	return func(opts *[]option.RequestOption) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			*opts = append(*opts, option.WithBaseURL(trimmed))
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(opts *[]option.RequestOption) {
		*opts = append(*opts, option.WithHTTPClient(httpClient))
	}
}

func NewClient(apiKey, model, voice string, opts ...Option) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	if strings.TrimSpace(voice) == "" {
		voice = DefaultVoice
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
	}
	for _, opt := range opts {
		opt(&requestOpts)
	}

	return &Client{
		model:  model,
		voice:  voice,
		client: openai.NewClient(requestOpts...),
	}
}

// Synthesize returns text as mono linear16 PCM at 24kHz.
func (c *Client) Synthesize(ctx context.Context, text string, opts ...texttospeech.SpeechOption) ([]byte, error) {
	options := texttospeech.NewSpeechOptions(opts...)
	if options.Voice == "" {
		options.Voice = c.voice
	}

	ctx, span := tracer.Start(ctx, "synthesize speech",
		trace.WithAttributes(
			attribute.String("model", c.model),
			attribute.String("voice", options.Voice),
			attribute.Int("chars", len(text)),
		))
	defer span.End()

	if options.EncodingInfo.Format != audio.EncodingLinear16 || options.EncodingInfo.SampleRate != pcmSampleRate {
		err := fmt.Errorf("unsupported encoding %s at %dHz, only linear16 at %dHz is produced",
			options.EncodingInfo.Format, options.EncodingInfo.SampleRate, pcmSampleRate)
		recordError(span, err)
		return nil, err
	}

	params := openai.AudioSpeechNewParams{
		Input:          text,
		Model:          c.model,
		Voice:          openai.AudioSpeechNewParamsVoice(options.Voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatPCM,
	}
	if options.Instructions != "" {
		params.Instructions = openai.String(options.Instructions)
	}

	resp, err := c.client.Audio.Speech.New(ctx, params)
	if err != nil {
		err = fmt.Errorf("failed to synthesize speech: %w", err)
		recordError(span, err)
		return nil, err
	}
	defer resp.Body.Close()

	pcm, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("failed to read speech audio: %w", err)
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("bytes", len(pcm)))
	logger.Debug("synthesized speech", "voice", options.Voice, "bytes", len(pcm))
	return pcm, nil
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
