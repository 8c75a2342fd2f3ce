package events

import (
	"testing"
	"time"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	testCases := []struct {
		name     string
		event    Event
		expected Kind
	}{
		{name: "status changed", event: NewStatusChanged("IDLE"), expected: KindStatusChanged},
		{name: "transcript added", event: NewTranscriptAdded("user", "hello"), expected: KindTranscriptAdded},
		{name: "thought added", event: NewThoughtAdded("Planning for: hello"), expected: KindThoughtAdded},
		{name: "listening changed", event: NewListeningChanged(true), expected: KindListeningChanged},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestConstructorsStampEvents(t *testing.T) {
	before := time.Now()
	event := NewThoughtAdded("x")
	if event.Timestamp().Before(before) || event.Timestamp().After(time.Now()) {
		t.Fatalf("expected timestamp at creation, got %s", event.Timestamp())
	}
}
