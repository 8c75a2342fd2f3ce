package audio

import (
	"encoding/binary"
	"testing"
)

func TestWAVHeader(t *testing.T) {
	pcm := []byte{1, 2, 3, 4}
	wav := WAV(pcm, GetDefaultEncodingInfo())

	if len(wav) != 48 {
		t.Fatalf("expected 44 byte header plus data, got %d bytes", len(wav))
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" || string(wav[36:40]) != "data" {
		t.Fatalf("expected RIFF/WAVE/data markers, got %q", wav[:40])
	}
	if got := binary.LittleEndian.Uint32(wav[4:]); got != 40 {
		t.Fatalf("expected riff size 40, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[24:]); got != 16000 {
		t.Fatalf("expected sample rate 16000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:]); got != 32000 {
		t.Fatalf("expected byte rate 32000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:]); got != 4 {
		t.Fatalf("expected data size 4, got %d", got)
	}
	if wav[44] != 1 || wav[47] != 4 {
		t.Fatalf("expected pcm payload after header, got %v", wav[44:])
	}
}
