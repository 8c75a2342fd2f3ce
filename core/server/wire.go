package server

import (
	"encoding/json"
	"strings"

	"github.com/koscakluka/ema-welfare/core/events"
	"github.com/koscakluka/ema-welfare/core/session"
)

// Outbound message types.
const (
	TypeStatus     = "status"
	TypeTranscript = "transcript"
	TypeThought    = "thought"
	TypeControl    = "control"
)

// Inbound message types.
const (
	TypeListenStart = "listen_start"
	TypeListenStop  = "listen_stop"
	TypeText        = "text"
)

const (
	ControlListeningOn  = "listening_on"
	ControlListeningOff = "listening_off"
)

// Message is the envelope of every websocket frame.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type transcriptPayload struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ToMessage converts a session event into its wire form.
func ToMessage(ev events.Event) (Message, bool) {
	switch ev := ev.(type) {
	case events.StatusChanged:
		return Message{Type: TypeStatus, Payload: ev.Status}, true
	case events.TranscriptAdded:
		return Message{Type: TypeTranscript, Payload: transcriptPayload{Role: ev.Role, Text: ev.Text}}, true
	case events.ThoughtAdded:
		return Message{Type: TypeThought, Payload: ev.Text}, true
	case events.ListeningChanged:
		if ev.Listening {
			return Message{Type: TypeControl, Payload: ControlListeningOn}, true
		}
		return Message{Type: TypeControl, Payload: ControlListeningOff}, true
	}
	return Message{}, false
}

// applyInbound applies a client frame to the session. Malformed frames and
// unknown types are ignored.
func applyInbound(sess *session.Session, raw []byte) {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Debug("ignoring malformed client message", "error", err)
		return
	}

	switch msg.Type {
	case TypeListenStart:
		sess.SetListening(true)
	case TypeListenStop:
		sess.SetListening(false)
	case TypeText:
		var text string
		if len(msg.Payload) == 0 || json.Unmarshal(msg.Payload, &text) != nil {
			return
		}
		if text = strings.TrimSpace(text); text != "" {
			sess.EnqueueText(text)
		}
	default:
		logger.Debug("ignoring unknown client message", "type", msg.Type)
	}
}
