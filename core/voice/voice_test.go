package voice

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/koscakluka/ema-welfare/core/speechtotext"
	"github.com/koscakluka/ema-welfare/core/texttospeech"
)

type recorderStub struct {
	pcm    []byte
	err    error
	window time.Duration
}

func (r *recorderStub) Record(_ context.Context, window time.Duration) ([]byte, error) {
	r.window = window
	return r.pcm, r.err
}

type transcriberStub struct {
	transcript speechtotext.Transcript
	err        error
	calls      int
	options    speechtotext.TranscriptionOptions
}

func (t *transcriberStub) Transcribe(_ context.Context, _ []byte, opts ...speechtotext.TranscriptionOption) (speechtotext.Transcript, error) {
	t.calls++
	t.options = speechtotext.NewTranscriptionOptions(opts...)
	return t.transcript, t.err
}

func loud(samples int) []byte {
	pcm := make([]byte, 2*samples)
	for i := range samples {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(int16(8000)))
	}
	return pcm
}

func TestListenWithQualityScoresTeluguTranscript(t *testing.T) {
	recorder := &recorderStub{pcm: loud(160)}
	transcriber := &transcriberStub{transcript: speechtotext.Transcript{Text: "రైతు బంధు", Confidence: 0.9}}
	in := NewInput(recorder, transcriber)

	text, quality, err := in.ListenWithQuality(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text != "రైతు బంధు" {
		t.Fatalf("expected transcript, got %q", text)
	}
	expected := 0.9 * TeluguRatio("రైతు బంధు")
	if math.Abs(quality-expected) > 1e-9 {
		t.Fatalf("expected quality %v, got %v", expected, quality)
	}
	if recorder.window != DefaultCaptureWindow {
		t.Fatalf("expected %v window, got %v", DefaultCaptureWindow, recorder.window)
	}
	if transcriber.options.Language != "te" || transcriber.options.Prompt != DomainPrompt {
		t.Fatalf("expected Telugu language and domain prompt, got %+v", transcriber.options)
	}
	if transcriber.options.EncodingInfo.SampleRate != 16000 {
		t.Fatalf("expected 16kHz encoding, got %d", transcriber.options.EncodingInfo.SampleRate)
	}
}

func TestListenWithQualitySkipsNearSilence(t *testing.T) {
	transcriber := &transcriberStub{transcript: speechtotext.Transcript{Text: "ignored", Confidence: 1}}
	in := NewInput(&recorderStub{pcm: make([]byte, 320)}, transcriber)

	text, quality, err := in.ListenWithQuality(context.Background())
	if err != nil || text != "" || quality != 0 {
		t.Fatalf("expected empty result for silence, got %q %v %v", text, quality, err)
	}
	if transcriber.calls != 0 {
		t.Fatalf("expected silence not to be transcribed, got %d calls", transcriber.calls)
	}
}

func TestListenWithQualityRecoversFromTranscriptionFailure(t *testing.T) {
	in := NewInput(&recorderStub{pcm: loud(160)}, &transcriberStub{err: errors.New("boom")})

	text, quality, err := in.ListenWithQuality(context.Background())
	if err != nil || text != "" || quality != 0 {
		t.Fatalf("expected empty result, got %q %v %v", text, quality, err)
	}
}

func TestListenWithQualityReturnsRecorderFailure(t *testing.T) {
	in := NewInput(&recorderStub{err: errors.New("no device")}, &transcriberStub{})

	if _, _, err := in.ListenWithQuality(context.Background()); err == nil {
		t.Fatalf("expected recorder failure to be returned")
	}
}

func TestTeluguRatio(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"", 0},
		{"hello", 0},
		{"అవును", 1},
		{"ok అవును", 5.0 / 8.0},
	}
	for _, c := range cases {
		if got := TeluguRatio(c.text); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("expected ratio %v for %q, got %v", c.want, c.text, got)
		}
	}
}

type synthesizerStub struct {
	text    string
	options texttospeech.SpeechOptions
	err     error
}

func (s *synthesizerStub) Synthesize(_ context.Context, text string, opts ...texttospeech.SpeechOption) ([]byte, error) {
	s.text = text
	s.options = texttospeech.NewSpeechOptions(opts...)
	return []byte{1, 2}, s.err
}

type playerStub struct {
	played [][]byte
}

func (p *playerStub) Play(_ context.Context, pcm []byte) error {
	p.played = append(p.played, pcm)
	return nil
}

func TestSpeakerSynthesizesAndPlays(t *testing.T) {
	synth := &synthesizerStub{}
	player := &playerStub{}
	speaker := NewSpeaker(synth, player, texttospeech.WithVoice("nova"))

	if err := speaker.Speak(context.Background(), "నమస్కారం"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if synth.text != "నమస్కారం" || synth.options.Voice != "nova" {
		t.Fatalf("expected text and voice to reach synthesizer, got %q %q", synth.text, synth.options.Voice)
	}
	if len(player.played) != 1 {
		t.Fatalf("expected one playback, got %d", len(player.played))
	}
}

func TestSpeakerSkipsBlankTextAndReportsFailures(t *testing.T) {
	synth := &synthesizerStub{err: errors.New("quota")}
	player := &playerStub{}
	speaker := NewSpeaker(synth, player)

	if err := speaker.Speak(context.Background(), "  "); err != nil {
		t.Fatalf("expected blank text to be skipped, got %v", err)
	}
	if err := speaker.Speak(context.Background(), "hi"); err == nil {
		t.Fatalf("expected synthesis failure to be returned")
	}
	if len(player.played) != 0 {
		t.Fatalf("expected nothing to be played, got %d", len(player.played))
	}
}
