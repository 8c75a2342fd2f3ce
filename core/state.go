package orchestration

import "github.com/koscakluka/ema-welfare/core/session"

// AgentState is the orchestrator's position in the per-turn state machine.
type AgentState string

const (
	StateStart           AgentState = "START"
	StateIdle            AgentState = "IDLE"
	StateListening       AgentState = "LISTENING"
	StatePlanning        AgentState = "PLANNING"
	StateExecuting       AgentState = "EXECUTING"
	StateEvaluating      AgentState = "EVALUATING"
	StateSpeaking        AgentState = "SPEAKING"
	StateClarifying      AgentState = "CLARIFYING"
	StateFailureRecovery AgentState = "FAILURE_RECOVERY"
)

// Status projects the state onto the coarser status shown to observers.
func (s AgentState) Status() session.Status {
	switch s {
	case StateListening:
		return session.StatusListening
	case StatePlanning, StateExecuting, StateEvaluating:
		return session.StatusThinking
	case StateSpeaking, StateClarifying:
		return session.StatusSpeaking
	default:
		return session.StatusIdle
	}
}
