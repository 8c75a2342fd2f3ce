package console

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type senderStub struct {
	texts     []string
	listening []bool
	err       error
}

func (s *senderStub) SendText(text string) error {
	s.texts = append(s.texts, text)
	return s.err
}

func (s *senderStub) SetListening(listening bool) error {
	s.listening = append(s.listening, listening)
	return s.err
}

func frame(t *testing.T, typ string, payload any) frameMsg {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to encode payload: %v", err)
	}
	return frameMsg{Type: typ, Payload: raw}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", next)
	}
	return model, cmd
}

func newTestModel(sender Sender) Model {
	m := NewModel(sender, make(chan Frame))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return next.(Model)
}

func TestModelAppliesSessionFrames(t *testing.T) {
	m := newTestModel(&senderStub{})

	m, _ = update(t, m, frame(t, "status", "THINKING"))
	m, _ = update(t, m, frame(t, "control", "listening_on"))
	m, _ = update(t, m, frame(t, "transcript", map[string]string{"role": "user", "text": "రైతు బంధు"}))
	m, _ = update(t, m, frame(t, "thought", "Intent: info"))
	m, _ = update(t, m, frame(t, "transcript", map[string]string{"role": "agent", "text": "సరే"}))
	m, _ = update(t, m, frameMsg{Type: "status", Payload: json.RawMessage(`{broken`)})

	if m.status != "THINKING" {
		t.Fatalf("expected THINKING, got %s", m.status)
	}
	if !m.listening {
		t.Fatalf("expected listening to be on")
	}
	if len(m.entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(m.entries))
	}
	if m.entries[0].kind != entryUser || m.entries[1].kind != entryThought || m.entries[2].kind != entryAgent {
		t.Fatalf("unexpected entry kinds %+v", m.entries)
	}

	view := m.View()
	for _, expected := range []string{"THINKING", "రైతు బంధు", "Intent: info", "mic on"} {
		if !strings.Contains(view, expected) {
			t.Fatalf("expected view to contain %q", expected)
		}
	}
}

func TestModelHidesThoughtsOnToggle(t *testing.T) {
	m := newTestModel(&senderStub{})
	m, _ = update(t, m, frame(t, "thought", "Planning for: hello"))

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlT})

	if m.showThoughts {
		t.Fatalf("expected thoughts to be hidden")
	}
	if strings.Contains(m.View(), "Planning for: hello") {
		t.Fatalf("expected hidden thought not to be rendered")
	}
}

func TestEnterSendsTrimmedText(t *testing.T) {
	sender := &senderStub{}
	m := newTestModel(sender)
	m.input.SetValue("  నమస్కారం  ")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatalf("expected a send command")
	}
	if msg := cmd(); msg != (sentMsg{}) {
		t.Fatalf("expected successful send, got %#v", msg)
	}

	if len(sender.texts) != 1 || sender.texts[0] != "నమస్కారం" {
		t.Fatalf("expected trimmed text to be sent, got %v", sender.texts)
	}
	if m.input.Value() != "" {
		t.Fatalf("expected input to be cleared, got %q", m.input.Value())
	}
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	sender := &senderStub{}
	m := newTestModel(sender)
	m.input.SetValue("   ")

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		cmd()
	}
	if len(sender.texts) != 0 {
		t.Fatalf("expected nothing to be sent, got %v", sender.texts)
	}
}

func TestCtrlLTogglesListening(t *testing.T) {
	sender := &senderStub{}
	m := newTestModel(sender)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	cmd()
	m, _ = update(t, m, frame(t, "control", "listening_on"))
	_, cmd = update(t, m, tea.KeyMsg{Type: tea.KeyCtrlL})
	cmd()

	if len(sender.listening) != 2 || !sender.listening[0] || sender.listening[1] {
		t.Fatalf("expected start then stop, got %v", sender.listening)
	}
}

func TestSendErrorIsShown(t *testing.T) {
	m := newTestModel(&senderStub{})

	m, _ = update(t, m, sentMsg{err: errors.New("socket closed")})

	if !strings.Contains(m.View(), "socket closed") {
		t.Fatalf("expected send error in view")
	}
}

func TestDisconnectStopsSending(t *testing.T) {
	sender := &senderStub{}
	m := newTestModel(sender)

	m, _ = update(t, m, disconnectedMsg{})
	m.input.SetValue("hello")
	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		cmd()
	}

	if len(sender.texts) != 0 {
		t.Fatalf("expected no sends after disconnect, got %v", sender.texts)
	}
	if !strings.Contains(m.View(), "connection closed") {
		t.Fatalf("expected disconnect notice in view")
	}
}
