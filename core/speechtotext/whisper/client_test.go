package whisper

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/koscakluka/ema-welfare/core/audio"
	"github.com/koscakluka/ema-welfare/core/speechtotext"
)

func TestTranscribeUploadsWAVAndScoresSegments(t *testing.T) {
	fields := map[string]string{}
	var upload []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("expected /audio/transcriptions, got %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart body, got %v", err)
		}
		for _, key := range []string{"model", "language", "prompt", "response_format"} {
			fields[key] = r.FormValue(key)
		}
		if file, _, err := r.FormFile("file"); err == nil {
			upload, _ = io.ReadAll(file)
			file.Close()
		} else {
			t.Errorf("expected file part, got %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"text": " రైతు బంధు ",
			"language": "telugu",
			"segments": [
				{"avg_logprob": -0.2, "no_speech_prob": 0.1},
				{"avg_logprob": -0.4, "no_speech_prob": 0.3}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("gsk-test", "", WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	pcm := make([]byte, 3200)
	transcript, err := client.Transcribe(context.Background(), pcm,
		speechtotext.WithLanguage("te"),
		speechtotext.WithPrompt("పథకాలు"),
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if transcript.Text != "రైతు బంధు" {
		t.Fatalf("expected trimmed transcript, got %q", transcript.Text)
	}
	expected := math.Exp(-0.3) * 0.8
	if math.Abs(transcript.Confidence-expected) > 1e-9 {
		t.Fatalf("expected confidence %v, got %v", expected, transcript.Confidence)
	}
	if transcript.Language != "telugu" {
		t.Fatalf("expected language telugu, got %q", transcript.Language)
	}

	if fields["model"] != DefaultModel || fields["language"] != "te" || fields["prompt"] != "పథకాలు" || fields["response_format"] != "verbose_json" {
		t.Fatalf("unexpected form fields: %v", fields)
	}
	if len(upload) != 44+len(pcm) || string(upload[:4]) != "RIFF" {
		t.Fatalf("expected WAV upload of %d bytes, got %d", 44+len(pcm), len(upload))
	}
}

func TestTranscribeRejectsCompandedAudio(t *testing.T) {
	client := NewClient("gsk-test", "")
	_, err := client.Transcribe(context.Background(), []byte{0xFF},
		speechtotext.WithEncodingInfo(audio.EncodingInfo{SampleRate: 8000, Format: audio.EncodingMulaw}))
	if err == nil {
		t.Fatalf("expected an error for mulaw input")
	}
}

func TestConfidenceClampsAndHandlesNoSegments(t *testing.T) {
	if got := confidence(nil); got != 0 {
		t.Fatalf("expected zero confidence without segments, got %v", got)
	}
	if got := confidence([]segment{{AvgLogprob: 0.5}}); got != 1 {
		t.Fatalf("expected confidence clamped to 1, got %v", got)
	}
	if got := confidence([]segment{{AvgLogprob: -0.1, NoSpeechProb: 1.2}}); got != 0 {
		t.Fatalf("expected confidence clamped to 0, got %v", got)
	}
}
