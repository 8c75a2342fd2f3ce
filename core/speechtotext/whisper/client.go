// Package whisper transcribes recordings through an OpenAI-compatible
// /audio/transcriptions endpoint, Groq's hosted Whisper by default.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/koscakluka/ema-welfare/core/audio"
	"github.com/koscakluka/ema-welfare/core/speechtotext"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "whisper-large-v3"
)

type Client struct {
	model  string
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

func NewClient(apiKey, model string, opts ...Option) *Client {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}

	requestOpts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithBaseURL(DefaultBaseURL),
		option.WithHTTPClient(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}),
	}
	for _, opt := range opts {
		opt(&requestOpts)
	}

	return &Client{
		model:  model,
		client: openai.NewClient(requestOpts...),
	}
}

// verboseTranscription holds the verbose_json fields the SDK does not model.
type verboseTranscription struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Segments []segment `json:"segments"`
}

type segment struct {
	AvgLogprob   float64 `json:"avg_logprob"`
	NoSpeechProb float64 `json:"no_speech_prob"`
}

// Transcribe uploads pcm as a WAV file and returns the transcript with a
// confidence derived from the segment log probabilities.
func (c *Client) Transcribe(ctx context.Context, pcm []byte, opts ...speechtotext.TranscriptionOption) (speechtotext.Transcript, error) {
	ctx, span := tracer.Start(ctx, "transcribe",
		trace.WithAttributes(attribute.String("model", c.model), attribute.Int("bytes", len(pcm))))
	defer span.End()

	options := speechtotext.NewTranscriptionOptions(opts...)
	if options.EncodingInfo.Format != audio.EncodingLinear16 {
		err := fmt.Errorf("unsupported encoding %q", options.EncodingInfo.Format)
		recordError(span, err)
		return speechtotext.Transcript{}, err
	}

	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(bytes.NewReader(audio.WAV(pcm, options.EncodingInfo)), "speech.wav", "audio/wav"),
		Model:          c.model,
		ResponseFormat: openai.AudioResponseFormatVerboseJSON,
		Temperature:    openai.Float(0),
	}
	if options.Language != "" {
		params.Language = openai.String(options.Language)
	}
	if options.Prompt != "" {
		params.Prompt = openai.String(options.Prompt)
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		err = fmt.Errorf("failed to transcribe audio: %w", err)
		recordError(span, err)
		return speechtotext.Transcript{}, err
	}

	var verbose verboseTranscription
	if raw := resp.RawJSON(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &verbose); err != nil {
			logger.Warn("failed to decode verbose transcription", "error", err)
		}
	}
	if verbose.Text == "" {
		verbose.Text = resp.Text
	}

	transcript := speechtotext.Transcript{
		Text:       strings.TrimSpace(verbose.Text),
		Confidence: confidence(verbose.Segments),
		Language:   verbose.Language,
	}
	span.SetAttributes(attribute.Float64("confidence", transcript.Confidence))
	logger.Debug("transcribed audio", "text", transcript.Text, "confidence", transcript.Confidence, "language", transcript.Language)
	return transcript, nil
}

// confidence is exp(mean avg_logprob) scaled by the mean probability that
// the segments contain speech.
func confidence(segments []segment) float64 {
	if len(segments) == 0 {
		return 0
	}

	var logprob, noSpeech float64
	for _, s := range segments {
		logprob += s.AvgLogprob
		noSpeech += s.NoSpeechProb
	}
	n := float64(len(segments))
	c := math.Exp(logprob/n) * (1 - noSpeech/n)
	return math.Max(0, math.Min(1, c))
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
