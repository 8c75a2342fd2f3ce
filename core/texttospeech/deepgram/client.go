// Package deepgram synthesises speech through the Deepgram speak websocket.
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

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-welfare/core/audio"
	"github.com/koscakluka/ema-welfare/core/texttospeech"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultSpeakURL = "wss://api.deepgram.com/v1/speak"
	DefaultVoice    = "aura-2-thalia-en"
)

var ErrMissingAPIKey = errors.New("deepgram api key not set")

type TextToSpeechClient struct {
	apiKey   string
	voice    string
	speakURL string
	dialer   *websocket.Dialer
}

type Option func(*TextToSpeechClient)

func WithSpeakURL(speakURL string) Option {
	return func(c *TextToSpeechClient) {
		if speakURL != "" {
			c.speakURL = speakURL
		}
	}
}

func NewTextToSpeechClient(apiKey, voice string, opts ...Option) *TextToSpeechClient {
	if strings.TrimSpace(voice) == "" {
		voice = DefaultVoice
	}
	c := &TextToSpeechClient{
		apiKey:   strings.TrimSpace(apiKey),
		voice:    voice,
		speakURL: DefaultSpeakURL,
		dialer:   websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *TextToSpeechClient) SetVoice(voice string) {
	c.voice = voice
}

type websocketMessage struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	closeMsg = websocketMessage{Type: "Close"}
)

func speakMsg(text string) websocketMessage {
	return websocketMessage{Type: "Speak", Text: text}
}

// Synthesize speaks text and returns the raw audio once Deepgram reports the
// text as flushed.
func (c *TextToSpeechClient) Synthesize(ctx context.Context, text string, opts ...texttospeech.SpeechOption) ([]byte, error) {
	options := texttospeech.NewSpeechOptions(opts...)
	if options.Voice == "" {
		options.Voice = c.voice
	}

	ctx, span := tracer.Start(ctx, "synthesize speech",
		trace.WithAttributes(attribute.String("voice", options.Voice), attribute.Int("chars", len(text))))
	defer span.End()

	conn, err := c.connect(ctx, options.Voice, options.EncodingInfo)
	if err != nil {
		recordError(span, err)
		return nil, err
	}
	defer conn.Close()

	for _, msg := range []websocketMessage{speakMsg(text), flushMsg} {
		if err := conn.WriteJSON(msg); err != nil {
			err = fmt.Errorf("failed to write to websocket: %w", err)
			recordError(span, err)
			return nil, err
		}
	}

	done := make(chan synthesized, 1)
	go func() { done <- readUntilFlushed(conn) }()

	var res synthesized
	select {
	case res = <-done:
	case <-ctx.Done():
		recordError(span, ctx.Err())
		return nil, ctx.Err()
	}
	if res.err != nil {
		recordError(span, res.err)
		return nil, res.err
	}

	if err := conn.WriteJSON(closeMsg); err != nil {
		logger.Debug("failed to send close message", "error", err)
	}
	span.SetAttributes(attribute.Int("bytes", len(res.audio)))
	return res.audio, nil
}

func (c *TextToSpeechClient) connect(ctx context.Context, voice string, encodingInfo audio.EncodingInfo) (*websocket.Conn, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	speakURL, err := url.Parse(c.speakURL)
	if err != nil {
		return nil, fmt.Errorf("invalid speak url: %w", err)
	}
	urlValues := speakURL.Query()
	urlValues.Set("encoding", encodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(encodingInfo.SampleRate))
	urlValues.Set("model", voice)
	urlValues.Set("container", "none")
	speakURL.RawQuery = urlValues.Encode()

	conn, _, err := c.dialer.DialContext(ctx, speakURL.String(),
		http.Header{"Authorization": {"token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}
	return conn, nil
}

type synthesized struct {
	audio []byte
	err   error
}

func readUntilFlushed(conn *websocket.Conn) synthesized {
	var audio []byte
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return synthesized{err: fmt.Errorf("websocket closed before speech was flushed: %w", err)}
		}

		switch msgType {
		case websocket.BinaryMessage:
			audio = append(audio, msg...)
		case websocket.TextMessage:
			var parsedMsg struct {
				Type        string `json:"type"`
				Description string `json:"description"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Warn("failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				return synthesized{audio: audio}
			case "Error":
				return synthesized{err: fmt.Errorf("deepgram speak error: %s", parsedMsg.Description)}
			case "Warning":
				logger.Warn("deepgram speak warning", "description", parsedMsg.Description)
			}
		}
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
