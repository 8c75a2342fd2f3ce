// Package session holds the state shared between the orchestration loop and
// its observers: the session status, the listening flag, the queue of typed
// messages and the transcript.
package session

import (
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-welfare/core/events"
)

type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusListening Status = "LISTENING"
	StatusThinking  Status = "THINKING"
	StatusSpeaking  Status = "SPEAKING"
)

const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

type Entry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Snapshot is a point-in-time copy of the session.
type Snapshot struct {
	ID         string   `json:"id"`
	Status     Status   `json:"status"`
	Listening  bool     `json:"listening"`
	Pending    int      `json:"pending_messages"`
	Transcript []Entry  `json:"transcript"`
	Thoughts   []string `json:"thoughts"`
}

type Session struct {
	id  uuid.UUID
	hub *Hub

	mu         sync.Mutex
	status     Status
	listening  bool
	queue      []string
	transcript []Entry
	thoughts   []string
}

func New() *Session {
	return &Session{
		id:     uuid.New(),
		hub:    NewHub(),
		status: StatusIdle,
	}
}

func (s *Session) ID() string {
	return s.id.String()
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SetStatus broadcasts the new status only when it differs from the current
// one.
func (s *Session) SetStatus(status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == status {
		return
	}
	s.status = status
	s.hub.Publish(events.NewStatusChanged(string(status)))
}

func (s *Session) Listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listening
}

func (s *Session) SetListening(listening bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listening = listening
	s.hub.Publish(events.NewListeningChanged(listening))
}

// EnqueueText queues a typed message. Blank messages are ignored.
func (s *Session) EnqueueText(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, text)
	return true
}

// DequeueText returns the oldest queued message.
func (s *Session) DequeueText() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return "", false
	}
	text := s.queue[0]
	s.queue = s.queue[1:]
	return text, true
}

func (s *Session) AddTranscript(role, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, Entry{Role: role, Text: text})
	s.hub.Publish(events.NewTranscriptAdded(role, text))
}

func (s *Session) AddThought(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.thoughts = append(s.thoughts, text)
	s.hub.Publish(events.NewThoughtAdded(text))
}

func (s *Session) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transcript)
}

func (s *Session) Thoughts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.thoughts)
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:         s.id.String(),
		Status:     s.status,
		Listening:  s.listening,
		Pending:    len(s.queue),
		Transcript: append([]Entry{}, s.transcript...),
		Thoughts:   append([]string{}, s.thoughts...),
	}
}

// Subscribe registers an observer. See Hub.Subscribe.
func (s *Session) Subscribe() (<-chan events.Event, func()) {
	return s.hub.Subscribe()
}

func (s *Session) Observers() int {
	return s.hub.Observers()
}

func (s *Session) Close() {
	s.hub.Close()
}
