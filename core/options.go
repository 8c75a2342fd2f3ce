package orchestration

import (
	"context"
	"time"

	"github.com/koscakluka/ema-welfare/core/evaluator"
	"github.com/koscakluka/ema-welfare/core/memory"
	"github.com/koscakluka/ema-welfare/core/planner"
	"github.com/koscakluka/ema-welfare/core/tools"
)

type OrchestratorOption func(*Orchestrator)

type Planner interface {
	Plan(ctx context.Context, userText, contextBlock string) planner.Output
}

func WithPlanner(p Planner) OrchestratorOption {
	return func(o *Orchestrator) { o.planner = p }
}

type ToolExecutor interface {
	Execute(ctx context.Context, step planner.Step) tools.Output
}

func WithToolExecutor(executor ToolExecutor) OrchestratorOption {
	return func(o *Orchestrator) { o.executor = executor }
}

type Evaluator interface {
	Evaluate(plan planner.Output, results []tools.Output, context string) evaluator.Output
}

func WithEvaluator(e Evaluator) OrchestratorOption {
	return func(o *Orchestrator) {
		if e != nil {
			o.evaluator = e
		}
	}
}

type Memory interface {
	AddTurn(role memory.Role, text string)
	UpdateProfile(key string, value any)
	ContextBlock() string
}

func WithMemory(m Memory) OrchestratorOption {
	return func(o *Orchestrator) {
		if m != nil {
			o.memory = m
		}
	}
}

// VoiceInput captures one utterance and scores how reliable its transcript
// is. Capture blocks for a fixed window.
type VoiceInput interface {
	ListenWithQuality(ctx context.Context) (text string, quality float64, err error)
}

// WithVoiceInput enables the voice path. Without it the orchestrator only
// serves typed messages.
func WithVoiceInput(input VoiceInput) OrchestratorOption {
	return func(o *Orchestrator) { o.voice = input }
}

// Speaker blocks until text has been spoken.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

func WithSpeaker(speaker Speaker) OrchestratorOption {
	return func(o *Orchestrator) { o.speaker = speaker }
}

// WithGreeting replaces the greeting spoken at startup. An empty greeting
// disables it.
func WithGreeting(greeting string) OrchestratorOption {
	return func(o *Orchestrator) { o.greeting = greeting }
}

// Pauses are the sleeps between loop iterations.
type Pauses struct {
	// Idle is waited when there is no input to process.
	Idle time.Duration
	// Yield is waited after a completed turn.
	Yield time.Duration
	// Backoff is waited after a failed iteration.
	Backoff time.Duration
}

func DefaultPauses() Pauses {
	return Pauses{
		Idle:    100 * time.Millisecond,
		Yield:   50 * time.Millisecond,
		Backoff: time.Second,
	}
}

func WithPauses(pauses Pauses) OrchestratorOption {
	return func(o *Orchestrator) { o.pauses = pauses }
}

// WithConfidenceThreshold sets the voice quality below which the user is
// asked to confirm what was heard.
func WithConfidenceThreshold(threshold float64) OrchestratorOption {
	return func(o *Orchestrator) {
		if threshold >= 0 && threshold <= 1 {
			o.confidenceThreshold = threshold
		}
	}
}
