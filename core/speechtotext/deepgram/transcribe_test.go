package deepgram

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/koscakluka/ema-welfare/core/audio"
	"github.com/koscakluka/ema-welfare/core/speechtotext"
)

func TestTranscribeCollectsFinalResults(t *testing.T) {
	type observed struct {
		received int
		query    map[string][]string
		auth     string
	}
	seen := make(chan observed, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := observed{query: r.URL.Query(), auth: r.Header.Get("Authorization")}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("expected websocket upgrade, got %v", err)
			return
		}
		defer conn.Close()

		for {
			msgType, msg, err := conn.ReadMessage()
			if err != nil {
				t.Errorf("expected CloseStream before disconnect, got %v", err)
				return
			}
			if msgType == websocket.BinaryMessage {
				got.received += len(msg)
				continue
			}
			if strings.Contains(string(msg), "CloseStream") {
				break
			}
		}
		seen <- got

		for _, msg := range []string{
			`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"రైతు","confidence":0.1}]}}`,
			`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"రైతు బంధు","confidence":0.9}]}}`,
			`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"  ","confidence":0.0}]}}`,
			`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"గురించి చెప్పు","confidence":0.7}]}}`,
			`{"type":"Metadata","request_id":"abc"}`,
		} {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				t.Errorf("failed to write result: %v", err)
				return
			}
		}
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}))
	defer server.Close()

	client := NewTranscriptionClient("dg-test",
		WithListenURL("ws"+strings.TrimPrefix(server.URL, "http")),
		WithLanguage("te"))
	pcm := make([]byte, 8000)
	transcript, err := client.Transcribe(context.Background(), pcm,
		speechtotext.WithPrompt("రైతు బంధు, ఆసరా పెన్షన్."))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if transcript.Text != "రైతు బంధు గురించి చెప్పు" {
		t.Fatalf("expected joined final transcripts, got %q", transcript.Text)
	}
	if math.Abs(transcript.Confidence-0.8) > 1e-9 {
		t.Fatalf("expected mean confidence 0.8, got %v", transcript.Confidence)
	}
	var got observed
	select {
	case got = <-seen:
	default:
		t.Fatalf("expected the server to observe the stream")
	}
	received, query, auth := got.received, got.query, got.auth
	if received != len(pcm) {
		t.Fatalf("expected %d audio bytes, got %d", len(pcm), received)
	}
	if auth != "Token dg-test" {
		t.Fatalf("expected token auth header, got %q", auth)
	}
	if query["language"][0] != "te" || query["encoding"][0] != "linear16" || query["sample_rate"][0] != "16000" {
		t.Fatalf("unexpected query: %v", query)
	}
	if len(query["keyterm"]) != 2 || query["keyterm"][1] != "ఆసరా పెన్షన్" {
		t.Fatalf("expected key terms from prompt, got %v", query["keyterm"])
	}
}

func TestTranscribeValidatesBeforeConnecting(t *testing.T) {
	client := NewTranscriptionClient("")
	if _, err := client.Transcribe(context.Background(), nil); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}

	client = NewTranscriptionClient("dg-test")
	_, err := client.Transcribe(context.Background(), nil,
		speechtotext.WithEncodingInfo(audio.EncodingInfo{SampleRate: 16000, Format: audio.EncodingMulaw}))
	if !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("expected ErrUnsupportedEncoding, got %v", err)
	}
}
