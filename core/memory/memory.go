// Package memory keeps the conversation state of the running session: the
// turn history, facts learned about the user and a log of contradicting
// facts.
package memory

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/jinzhu/copier"
)

// RecentTurns is the number of turns exposed to the planner.
const RecentTurns = 5

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Conflict records a profile update that contradicted the stored value.
type Conflict struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

// State is a point-in-time copy of the memory contents.
type State struct {
	Profile   map[string]any
	History   []Turn
	Conflicts []Conflict
}

type Memory struct {
	state State
	mu    sync.RWMutex
}

func New() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.state = State{
		Profile:   map[string]any{},
		History:   []Turn{},
		Conflicts: []Conflict{},
	}
}

func (m *Memory) AddTurn(role Role, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.History = append(m.state.History, Turn{Role: role, Text: text})
}

// UpdateProfile stores value under key. When a value already exists and its
// string form differs case-insensitively from the new one, a conflict is
// logged. The new value always wins.
func (m *Memory) UpdateProfile(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.state.Profile[key]; ok && !sameValue(existing, value) {
		logger.Warn("profile conflict detected", "field", key, "old", existing, "new", value)
		m.state.Conflicts = append(m.state.Conflicts, Conflict{
			Field:    key,
			OldValue: existing,
			NewValue: value,
		})
	}

	m.state.Profile[key] = value
	logger.Debug("profile updated", "field", key, "value", value)
}

func sameValue(a, b any) bool {
	return strings.EqualFold(fmt.Sprint(a), fmt.Sprint(b))
}

// ContextBlock serialises the profile, the most recent turns and the known
// conflicts for the planner.
func (m *Memory) ContextBlock() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.state.History
	if len(history) > RecentTurns {
		history = history[len(history)-RecentTurns:]
	}

	block := struct {
		Profile        map[string]any `json:"profile"`
		RecentHistory  []Turn         `json:"recent_history"`
		KnownConflicts []Conflict     `json:"known_conflicts"`
	}{
		Profile:        m.state.Profile,
		RecentHistory:  history,
		KnownConflicts: m.state.Conflicts,
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(block); err != nil {
		logger.Error("failed to encode context block", "error", err)
		return "{}"
	}

	return strings.TrimSuffix(buf.String(), "\n")
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reset()
}

// Snapshot returns a deep copy of the memory contents.
func (m *Memory) Snapshot() State {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var snapshot State
	if err := copier.CopyWithOption(&snapshot, &m.state, copier.Option{DeepCopy: true}); err != nil {
		logger.Error("failed to copy memory state", "error", err)
		return State{}
	}
	return snapshot
}

func (m *Memory) History() []Turn {
	return m.Snapshot().History
}

func (m *Memory) Conflicts() []Conflict {
	return m.Snapshot().Conflicts
}

func (m *Memory) Profile() map[string]any {
	return m.Snapshot().Profile
}
