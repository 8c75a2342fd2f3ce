package events

const (
	// KindStatusChanged identifies session status changes.
	KindStatusChanged Kind = "session.status"
	// KindTranscriptAdded identifies transcript entries.
	KindTranscriptAdded Kind = "session.transcript"
	// KindThoughtAdded identifies diagnostic thought lines.
	KindThoughtAdded Kind = "session.thought"
	// KindListeningChanged identifies listening control changes.
	KindListeningChanged Kind = "session.control"
)

// StatusChanged carries the new session status.
type StatusChanged struct {
	Base
	Status string
}

func NewStatusChanged(status string) StatusChanged {
	return StatusChanged{Base: NewBase(KindStatusChanged), Status: status}
}

// TranscriptAdded carries one transcript entry.
type TranscriptAdded struct {
	Base
	Role string
	Text string
}

func NewTranscriptAdded(role, text string) TranscriptAdded {
	return TranscriptAdded{Base: NewBase(KindTranscriptAdded), Role: role, Text: text}
}

type ThoughtAdded struct {
	Base
	Text string
}

func NewThoughtAdded(text string) ThoughtAdded {
	return ThoughtAdded{Base: NewBase(KindThoughtAdded), Text: text}
}

// ListeningChanged reports whether continuous listening is active.
type ListeningChanged struct {
	Base
	Listening bool
}

func NewListeningChanged(listening bool) ListeningChanged {
	return ListeningChanged{Base: NewBase(KindListeningChanged), Listening: listening}
}
