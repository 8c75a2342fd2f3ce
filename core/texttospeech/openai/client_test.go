package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/koscakluka/ema-welfare/core/audio"
	"github.com/koscakluka/ema-welfare/core/texttospeech"
)

func TestSynthesizeRequestsRawPCM(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("expected /audio/speech, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("expected JSON body, got %v", err)
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte{1, 0, 2, 0})
	}))
	defer server.Close()

	client := NewClient("sk-test", "", "nova", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	pcm, err := client.Synthesize(context.Background(), "నమస్కారం",
		texttospeech.WithInstructions("speak slowly"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(pcm) != 4 {
		t.Fatalf("expected 4 bytes of audio, got %d", len(pcm))
	}

	expected := map[string]any{
		"input":           "నమస్కారం",
		"model":           DefaultModel,
		"voice":           "nova",
		"response_format": "pcm",
		"instructions":    "speak slowly",
	}
	for key, want := range expected {
		if body[key] != want {
			t.Fatalf("expected %s=%v, got %v", key, want, body[key])
		}
	}
}

func TestSynthesizeRejectsOtherEncodings(t *testing.T) {
	client := NewClient("sk-test", "", "")
	_, err := client.Synthesize(context.Background(), "hi",
		texttospeech.WithEncodingInfo(audio.GetDefaultEncodingInfo()))
	if err == nil {
		t.Fatalf("expected an error for 16kHz output")
	}
}
