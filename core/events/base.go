package events

import "time"

type Kind string

// Event is anything published to session observers.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base is embedded by every event type.
type Base struct {
	kind      Kind
	timestamp time.Time
}

func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now().UTC()}
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}
