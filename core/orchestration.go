// Package orchestration runs the assistant's session loop: it takes typed or
// spoken input, plans with the language model, dispatches tools, evaluates
// their results and speaks the reply, reporting every step to the session's
// observers.
package orchestration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/koscakluka/ema-welfare/core/evaluator"
	"github.com/koscakluka/ema-welfare/core/memory"
	"github.com/koscakluka/ema-welfare/core/session"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultConfidenceThreshold = 0.7
	DefaultGreeting            = "నమస్కారం! నేను తెలంగాణ ప్రభుత్వ సంక్షేమ పథకాల సహాయకుడు. మీకు ఏ పథకం గురించి తెలుసుకోవాలి లేదా ఏ దరఖాస్తుకు సహాయం కావాలి? మైక్ బటన్‌పై నొక్కి తెలుగులో మాట్లాడండి లేదా సందేశాన్ని టైప్ చేయండి."
)

var (
	ErrAlreadyRunning      = errors.New("orchestrator already running")
	ErrMissingPlanner      = errors.New("no planner configured")
	ErrMissingToolExecutor = errors.New("no tool executor configured")
	ErrMissingSpeaker      = errors.New("no speaker configured")
)

type Orchestrator struct {
	session *session.Session

	planner   Planner
	executor  ToolExecutor
	evaluator Evaluator
	memory    Memory
	voice     VoiceInput
	speaker   Speaker

	greeting            string
	pauses              Pauses
	confidenceThreshold float64

	running atomic.Bool
	state   AgentState
	stateMu sync.RWMutex
}

// NewOrchestrator creates an orchestrator publishing to sess. A nil session
// is replaced with a fresh one.
func NewOrchestrator(sess *session.Session, opts ...OrchestratorOption) *Orchestrator {
	if sess == nil {
		sess = session.New()
	}

	o := &Orchestrator{
		session:             sess,
		evaluator:           evaluator.New(),
		memory:              memory.New(),
		greeting:            DefaultGreeting,
		pauses:              DefaultPauses(),
		confidenceThreshold: DefaultConfidenceThreshold,
		state:               StateStart,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// State returns the current position in the turn state machine.
func (o *Orchestrator) State() AgentState {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.state
}

func (o *Orchestrator) setState(state AgentState) {
	o.stateMu.Lock()
	o.state = state
	o.stateMu.Unlock()

	o.session.SetStatus(state.Status())
}

func (o *Orchestrator) Session() *session.Session {
	return o.session
}

func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Run bootstraps the collaborators, speaks the greeting and then processes
// turns until Stop is called or ctx is cancelled. A bootstrap failure is
// returned; failures inside a turn are contained and the loop continues.
//
// Contract: Run may only be active once at a time per orchestrator.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer o.running.Store(false)

	if err := o.bootstrap(ctx); err != nil {
		logger.Error("orchestrator bootstrap failed", "error", err)
		o.session.AddThought(fmt.Sprintf("CRITICAL SYSTEM FAILURE: %v", err))
		recordError(trace.SpanFromContext(ctx), err)
		return err
	}

	logger.Info("orchestrator started", "session", o.session.ID())
	o.greet(ctx)

	runTurn := panicSafeNamedWorker[time.Duration]("turn", o.turn)
	for o.running.Load() && ctx.Err() == nil {
		pause, err := runTurn(ctx)
		if err != nil {
			logger.Error("turn failed", "error", err)
			o.session.AddThought(fmt.Sprintf("ERROR: %v - Recovering...", err))
			o.setState(StateFailureRecovery)
			pause = o.pauses.Backoff
		}
		sleep(ctx, pause)
	}

	o.setState(StateIdle)
	logger.Info("orchestrator stopped", "session", o.session.ID())
	return nil
}

// Stop ends the loop after the current turn has completed.
func (o *Orchestrator) Stop() {
	o.running.Store(false)
}

type initializer interface {
	Init(ctx context.Context) error
}

func (o *Orchestrator) bootstrap(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "bootstrap orchestrator")
	defer span.End()

	switch {
	case o.planner == nil:
		return ErrMissingPlanner
	case o.executor == nil:
		return ErrMissingToolExecutor
	case o.speaker == nil:
		return ErrMissingSpeaker
	}

	collaborators := []struct {
		name string
		impl any
	}{
		{"planner", o.planner},
		{"tool executor", o.executor},
		{"evaluator", o.evaluator},
		{"memory", o.memory},
		{"voice input", o.voice},
		{"speaker", o.speaker},
	}
	for _, c := range collaborators {
		i, ok := c.impl.(initializer)
		if !ok {
			continue
		}
		if err := i.Init(ctx); err != nil {
			err = fmt.Errorf("failed to initialize %s: %w", c.name, err)
			recordError(span, err)
			return err
		}
	}

	return nil
}

func (o *Orchestrator) greet(ctx context.Context) {
	if o.greeting == "" {
		o.setState(StateIdle)
		return
	}

	o.setState(StateSpeaking)
	o.session.AddTranscript(session.RoleAgent, o.greeting)
	o.speak(ctx, o.greeting)
	o.setState(StateIdle)
}

// speak reports speech failures without failing the turn; the text has
// already reached observers through the transcript.
func (o *Orchestrator) speak(ctx context.Context, text string) {
	if err := o.speaker.Speak(ctx, text); err != nil {
		logger.Error("failed to speak", "error", err)
		recordError(trace.SpanFromContext(ctx), err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
