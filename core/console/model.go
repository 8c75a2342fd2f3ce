package console

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/koscakluka/ema-welfare/core/server"
	"github.com/koscakluka/ema-welfare/core/session"
	"github.com/muesli/reflow/wordwrap"
)

// Sender delivers user actions to the session.
type Sender interface {
	SendText(text string) error
	SetListening(listening bool) error
}

type entryKind int

const (
	entryUser entryKind = iota
	entryAgent
	entryThought
	entryError
)

type entry struct {
	kind entryKind
	text string
}

type frameMsg Frame

type disconnectedMsg struct{}

type sentMsg struct {
	err error
}

type Model struct {
	sender Sender
	frames <-chan Frame

	status       string
	listening    bool
	showThoughts bool
	connected    bool
	entries      []entry

	width  int
	height int

	input   textinput.Model
	log     viewport.Model
	spinner spinner.Model
	theme   theme
}

func NewModel(sender Sender, frames <-chan Frame) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "తెలుగులో సందేశం టైప్ చేయండి"
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#05ffa1"))

	return Model{
		sender:       sender,
		frames:       frames,
		status:       string(session.StatusIdle),
		showThoughts: true,
		connected:    true,
		input:        input,
		log:          viewport.New(0, 0),
		spinner:      sp,
		theme:        newTheme(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForFrame(m.frames))
}

func waitForFrame(frames <-chan Frame) tea.Cmd {
	return func() tea.Msg {
		frame, ok := <-frames
		if !ok {
			return disconnectedMsg{}
		}
		return frameMsg(frame)
	}
}

func (m Model) sendText(text string) tea.Cmd {
	sender := m.sender
	return func() tea.Msg {
		return sentMsg{err: sender.SendText(text)}
	}
}

func (m Model) sendListening(listening bool) tea.Cmd {
	sender := m.sender
	return func() tea.Msg {
		return sentMsg{err: sender.SetListening(listening)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case frameMsg:
		m.apply(Frame(msg))
		m.render()
		cmds = append(cmds, waitForFrame(m.frames))
	case disconnectedMsg:
		m.connected = false
		m.entries = append(m.entries, entry{kind: entryError, text: "connection closed"})
		m.render()
	case sentMsg:
		if msg.err != nil {
			m.entries = append(m.entries, entry{kind: entryError, text: msg.err.Error()})
			m.render()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.render()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+l":
			if m.connected {
				cmds = append(cmds, m.sendListening(!m.listening))
			}
			return m, tea.Batch(cmds...)
		case "ctrl+t":
			m.showThoughts = !m.showThoughts
			m.render()
			return m, nil
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if text != "" && m.connected {
				cmds = append(cmds, m.sendText(text))
			}
			return m, tea.Batch(cmds...)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	if key, ok := msg.(tea.KeyMsg); !ok || scrollKeys[key.String()] {
		m.log, cmd = m.log.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// scrollKeys reach the log viewport; every other key belongs to the input.
var scrollKeys = map[string]bool{
	"up":     true,
	"down":   true,
	"pgup":   true,
	"pgdown": true,
}

// apply folds a session frame into the model. Unknown frames are ignored.
func (m *Model) apply(frame Frame) {
	switch frame.Type {
	case server.TypeStatus:
		var status string
		if json.Unmarshal(frame.Payload, &status) == nil {
			m.status = status
		}
	case server.TypeTranscript:
		var payload struct {
			Role string `json:"role"`
			Text string `json:"text"`
		}
		if json.Unmarshal(frame.Payload, &payload) != nil {
			return
		}
		kind := entryAgent
		if payload.Role == session.RoleUser {
			kind = entryUser
		}
		m.entries = append(m.entries, entry{kind: kind, text: payload.Text})
	case server.TypeThought:
		var thought string
		if json.Unmarshal(frame.Payload, &thought) == nil {
			m.entries = append(m.entries, entry{kind: entryThought, text: thought})
		}
	case server.TypeControl:
		var control string
		if json.Unmarshal(frame.Payload, &control) != nil {
			return
		}
		switch control {
		case server.ControlListeningOn:
			m.listening = true
		case server.ControlListeningOff:
			m.listening = false
		}
	}
}

func (m *Model) resize() {
	// header, input and footer take one line each, the panel border two.
	m.log.Width = max(m.width-2, 0)
	m.log.Height = max(m.height-5, 0)
	m.input.Width = max(m.width-4, 0)
}

func (m *Model) render() {
	width := max(m.log.Width-2, 20)

	var b strings.Builder
	for _, e := range m.entries {
		var line string
		switch e.kind {
		case entryUser:
			line = m.theme.user.Render("you: ") + e.text
		case entryAgent:
			line = m.theme.agent.Render("agent: ") + e.text
		case entryThought:
			if !m.showThoughts {
				continue
			}
			line = m.theme.thought.Render("· " + e.text)
		case entryError:
			line = m.theme.errorLine.Render("! " + e.text)
		}
		b.WriteString(wordwrap.String(line, width))
		b.WriteString("\n")
	}

	m.log.SetContent(b.String())
	m.log.GotoBottom()
}

func (m Model) View() string {
	header := m.theme.header.Render("ema-welfare") + " " + m.theme.statusBadge(m.status)
	if m.status != string(session.StatusIdle) {
		header += " " + m.spinner.View()
	}
	if m.listening {
		header += " " + m.theme.listening.Render("● mic on")
	} else {
		header += " " + m.theme.muted.Render("○ mic off")
	}

	footer := m.theme.muted.Render(fmt.Sprintf(
		"enter send · ctrl+l mic · ctrl+t thoughts (%s) · esc quit", onOff(m.showThoughts)))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.theme.panel.Render(m.log.View()),
		m.theme.input.Render(m.input.View()),
		footer,
	)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
