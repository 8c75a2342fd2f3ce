package session

import (
	"sync"

	"github.com/koscakluka/ema-welfare/core/events"
)

// ObserverBuffer is the number of events an observer may fall behind before
// it is dropped.
const ObserverBuffer = 256

// Hub fans out events to any number of observers without ever blocking the
// publisher.
type Hub struct {
	mu        sync.Mutex
	observers map[uint64]chan events.Event
	nextID    uint64
	closed    bool
}

func NewHub() *Hub {
	return &Hub{observers: make(map[uint64]chan events.Event)}
}

// Publish delivers ev to every observer. An observer whose buffer is full
// is dropped and its channel closed.
func (h *Hub) Publish(ev events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for id, ch := range h.observers {
		select {
		case ch <- ev:
		default:
			logger.Warn("dropping slow observer", "observer", id, "event", ev.Kind())
			close(ch)
			delete(h.observers, id)
		}
	}
}

// Subscribe returns the observer's event channel and a function removing it.
// The channel is closed when the observer is removed, dropped or the hub is
// closed.
func (h *Hub) Subscribe() (<-chan events.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan events.Event, ObserverBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.observers[id] = ch

	unsubscribe := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.observers[id]; ok {
			delete(h.observers, id)
			close(ch)
		}
	}
	return ch, unsubscribe
}

func (h *Hub) Observers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.observers)
}

// Close removes every observer. Later publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.observers {
		close(ch)
		delete(h.observers, id)
	}
}
