// Package deepgram transcribes recordings through the Deepgram live listen
// websocket.
package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	api "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-welfare/core/audio"
	"github.com/koscakluka/ema-welfare/core/speechtotext"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultListenURL = "wss://api.deepgram.com/v1/listen"
	DefaultModel     = "nova-3"

	// chunkDuration is the amount of audio sent per websocket frame.
	chunkDuration = 100 * time.Millisecond
)

var ErrMissingAPIKey = errors.New("deepgram api key not set")

type TranscriptionClient struct {
	apiKey    string
	model     string
	language  string
	listenURL string
	dialer    *websocket.Dialer
}

type Option func(*TranscriptionClient)

func WithModel(model string) Option {
	return func(c *TranscriptionClient) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLanguage sets the language used when a transcription does not ask for
// one.
func WithLanguage(language string) Option {
	return func(c *TranscriptionClient) {
		if language != "" {
			c.language = language
		}
	}
}

func WithListenURL(listenURL string) Option {
	return func(c *TranscriptionClient) {
		if listenURL != "" {
			c.listenURL = listenURL
		}
	}
}

func NewTranscriptionClient(apiKey string, opts ...Option) *TranscriptionClient {
	c := &TranscriptionClient{
		apiKey:    strings.TrimSpace(apiKey),
		model:     DefaultModel,
		language:  "multi",
		listenURL: DefaultListenURL,
		dialer:    websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Transcribe streams pcm to Deepgram, closes the stream and collects the
// final results. Confidence is the mean confidence of the final results that
// carried text.
func (c *TranscriptionClient) Transcribe(ctx context.Context, pcm []byte, opts ...speechtotext.TranscriptionOption) (speechtotext.Transcript, error) {
	ctx, span := tracer.Start(ctx, "transcribe",
		trace.WithAttributes(attribute.String("model", c.model), attribute.Int("bytes", len(pcm))))
	defer span.End()

	options := speechtotext.NewTranscriptionOptions(opts...)
	if options.Language == "" {
		options.Language = c.language
	}
	if err := checkEncoding(options.EncodingInfo); err != nil {
		recordError(span, err)
		return speechtotext.Transcript{}, err
	}

	conn, err := c.connect(ctx, options)
	if err != nil {
		recordError(span, err)
		return speechtotext.Transcript{}, err
	}
	defer conn.Close()

	results := make(chan collected, 1)
	go func() { results <- collectResults(conn) }()

	if err := sendAudio(conn, pcm, options.EncodingInfo); err != nil {
		recordError(span, err)
		return speechtotext.Transcript{}, err
	}

	select {
	case res := <-results:
		if res.err != nil {
			recordError(span, res.err)
			return speechtotext.Transcript{}, res.err
		}
		span.SetAttributes(attribute.Float64("confidence", res.transcript.Confidence))
		return res.transcript, nil
	case <-ctx.Done():
		recordError(span, ctx.Err())
		return speechtotext.Transcript{}, ctx.Err()
	}
}

func (c *TranscriptionClient) connect(ctx context.Context, options speechtotext.TranscriptionOptions) (*websocket.Conn, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	listenURL, err := url.Parse(c.listenURL)
	if err != nil {
		return nil, fmt.Errorf("invalid listen url: %w", err)
	}
	queryParams := listenURL.Query()
	queryParams.Set("encoding", options.EncodingInfo.Format.Name())
	queryParams.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	queryParams.Set("channels", "1")
	queryParams.Set("model", c.model)
	queryParams.Set("language", options.Language)
	queryParams.Set("smart_format", "true")
	queryParams.Set("punctuate", "true")
	if options.Prompt != "" {
		for _, term := range keyterms(options.Prompt) {
			queryParams.Add("keyterm", term)
		}
	}
	listenURL.RawQuery = queryParams.Encode()

	conn, _, err := c.dialer.DialContext(ctx, listenURL.String(),
		http.Header{"Authorization": {"Token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

// keyterms splits a comma separated vocabulary prompt into terms.
func keyterms(prompt string) []string {
	var terms []string
	for _, part := range strings.FieldsFunc(prompt, func(r rune) bool { return r == ',' || r == '.' }) {
		if part = strings.TrimSpace(part); part != "" {
			terms = append(terms, part)
		}
	}
	return terms
}

func sendAudio(conn *websocket.Conn, pcm []byte, encoding audio.EncodingInfo) error {
	chunkSize := max(encoding.ByteLength(chunkDuration), 1)
	for offset := 0; offset < len(pcm); offset += chunkSize {
		chunk := pcm[offset:min(offset+chunkSize, len(pcm))]
		if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
			return fmt.Errorf("failed to write to deepgram client: %w", err)
		}
	}

	if err := conn.WriteJSON(struct {
		Type string `json:"type"`
	}{Type: string(api.TypeCloseStreamResponse)}); err != nil {
		return fmt.Errorf("failed to close deepgram stream: %w", err)
	}
	return nil
}

type collected struct {
	transcript speechtotext.Transcript
	err        error
}

// collectResults reads until Deepgram closes the socket after CloseStream.
func collectResults(conn *websocket.Conn) collected {
	var (
		parts       []string
		confidences []float64
	)

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) && len(parts) == 0 && len(confidences) == 0 {
				return collected{err: fmt.Errorf("failed to read deepgram websocket message: %w", err)}
			}
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var parsedMsg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &parsedMsg); err != nil {
			logger.Warn("failed to unmarshal deepgram message", "error", err)
			continue
		}
		if api.TypeResponse(parsedMsg.Type) != api.TypeMessageResponse {
			logger.Debug("ignoring deepgram message", "type", parsedMsg.Type)
			continue
		}

		var msgResp api.MessageResponse
		if err := json.Unmarshal(msg, &msgResp); err != nil {
			logger.Warn("failed to unmarshal deepgram results", "error", err)
			continue
		}
		if !msgResp.IsFinal || len(msgResp.Channel.Alternatives) == 0 {
			continue
		}

		alternative := msgResp.Channel.Alternatives[0]
		if transcript := strings.TrimSpace(alternative.Transcript); transcript != "" {
			parts = append(parts, transcript)
			confidences = append(confidences, alternative.Confidence)
		}
	}

	transcript := speechtotext.Transcript{Text: strings.Join(parts, " ")}
	if len(confidences) > 0 {
		var sum float64
		for _, c := range confidences {
			sum += c
		}
		transcript.Confidence = sum / float64(len(confidences))
	}
	return collected{transcript: transcript}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
