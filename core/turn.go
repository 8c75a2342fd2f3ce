package orchestration

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/koscakluka/ema-welfare/core/evaluator"
	"github.com/koscakluka/ema-welfare/core/executor"
	"github.com/koscakluka/ema-welfare/core/memory"
	"github.com/koscakluka/ema-welfare/core/planner"
	"github.com/koscakluka/ema-welfare/core/session"
	"github.com/koscakluka/ema-welfare/core/tools"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	confirmPrompt  = "మీరు ఇలా అన్నారా: \"%s\"? సరి అయితే 'అవును' అని, కాకపోతే 'కాదు' అని చెప్పండి."
	confirmYes     = "అవును"
	confirmRetry   = "సరే, మీ మాట పూర్తిగా స్పష్టంగా రాలేదు. దయచేసి మెల్లిగా మళ్లీ చెప్పండి లేదా క్రింద ఉన్న బాక్స్‌లో టైప్ చేయండి."
	emptyResponse  = "..."
	resultsReady   = "సమాచారం సిద్ధంగా ఉంది."
	summarizeInput = "Summarize results in simple Telugu"
	summarizeCtx   = "User asked: %s. Tool results: %s"

	// Synthesized responses at most this many runes long are re-planned into
	// a spoken summary.
	shortResponseRunes = 20
)

type userInput struct {
	text    string
	quality float64
	typed   bool
}

// turn runs one iteration of the loop and returns how long to pause before
// the next one.
func (o *Orchestrator) turn(ctx context.Context) (time.Duration, error) {
	input, ok, err := o.acquireInput(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return o.pauses.Idle, nil
	}

	ctx, span := tracer.Start(ctx, "process turn", trace.WithAttributes(
		attribute.String("turn_id", uuid.NewString()),
		attribute.Bool("turn.typed", input.typed),
		attribute.Float64("turn.quality", input.quality),
	))
	defer span.End()

	text := input.text
	if !input.typed && input.quality < o.confidenceThreshold {
		confirmed, err := o.confirm(ctx, text)
		if err != nil {
			recordError(span, err)
			return 0, err
		}
		if !confirmed {
			span.SetAttributes(attribute.Bool("turn.abandoned", true))
			o.setState(StateIdle)
			return o.pauses.Yield, nil
		}
	}

	o.session.AddTranscript(session.RoleUser, text)
	o.memory.AddTurn(memory.RoleUser, text)
	o.setState(StatePlanning)

	o.session.AddThought(fmt.Sprintf("Planning for: %s", text))
	plan := o.planner.Plan(ctx, text, o.memory.ContextBlock())
	o.session.AddThought(fmt.Sprintf("Intent: %s", plan.Intent))
	span.SetAttributes(
		attribute.String("plan.intent", plan.Intent),
		attribute.String("plan.next_state", string(plan.NextState)),
	)

	switch plan.NextState {
	case planner.NextStateExecuting:
		o.execute(ctx, text, plan)
	default:
		response := plan.Response()
		if response == "" {
			response = emptyResponse
		}
		o.respond(ctx, response)
	}

	o.setState(StateIdle)
	return o.pauses.Yield, nil
}

// acquireInput prefers a queued typed message over voice capture. It
// reports false when there is nothing to process.
func (o *Orchestrator) acquireInput(ctx context.Context) (userInput, bool, error) {
	if text, ok := o.session.DequeueText(); ok {
		return userInput{text: text, quality: 1, typed: true}, true, nil
	}

	if !o.session.Listening() || o.voice == nil {
		if o.State() == StateListening {
			o.setState(StateIdle)
		}
		return userInput{}, false, nil
	}

	o.setState(StateListening)
	text, quality, err := o.voice.ListenWithQuality(ctx)
	if err != nil {
		return userInput{}, false, fmt.Errorf("failed to capture voice input: %w", err)
	}
	if text == "" {
		return userInput{}, false, nil
	}
	return userInput{text: text, quality: quality}, true, nil
}

// confirm reads the heard text back to the user and captures a yes/no
// reply. A rejected or inaudible reply tells the user to repeat themselves.
func (o *Orchestrator) confirm(ctx context.Context, heard string) (bool, error) {
	ctx, span := tracer.Start(ctx, "confirm utterance")
	defer span.End()

	o.setState(StateClarifying)
	prompt := fmt.Sprintf(confirmPrompt, heard)
	o.session.AddTranscript(session.RoleAgent, prompt)
	o.speak(ctx, prompt)

	o.setState(StateListening)
	reply, _, err := o.voice.ListenWithQuality(ctx)
	if err != nil {
		err = fmt.Errorf("failed to capture confirmation: %w", err)
		recordError(span, err)
		return false, err
	}

	if isAffirmative(reply) {
		span.SetAttributes(attribute.Bool("confirmed", true))
		return true, nil
	}

	logger.Info("utterance not confirmed", "heard", heard, "reply", reply)
	o.setState(StateSpeaking)
	o.session.AddTranscript(session.RoleAgent, confirmRetry)
	o.speak(ctx, confirmRetry)
	return false, nil
}

func isAffirmative(reply string) bool {
	return strings.Contains(reply, confirmYes) ||
		strings.Contains(strings.ToLower(reply), "yes")
}

func (o *Orchestrator) execute(ctx context.Context, text string, plan planner.Output) {
	ctx, span := tracer.Start(ctx, "execute plan", trace.WithAttributes(
		attribute.Int("plan.steps", len(plan.ToolCalls)),
	))
	defer span.End()

	o.setState(StateExecuting)
	results := make([]tools.Output, 0, len(plan.ToolCalls))
	for _, step := range plan.ToolCalls {
		o.session.AddThought(fmt.Sprintf("Executing: %s", step.ToolName))
		for _, fact := range executor.ProfileFacts(step) {
			o.memory.UpdateProfile(fact.Key, fact.Value)
		}

		result := o.executor.Execute(ctx, step)
		o.session.AddThought(fmt.Sprintf("Result: %t", result.Success))
		results = append(results, result)
	}

	o.setState(StateEvaluating)
	evaluation := o.evaluator.Evaluate(plan, results, o.memory.ContextBlock())
	span.SetAttributes(attribute.String("evaluation.action", string(evaluation.Action)))

	switch evaluation.Action {
	case evaluator.ActionAskUser:
		o.respond(ctx, evaluation.CleanResponse)
	case evaluator.ActionSynthesize:
		o.session.AddThought("Synthesizing response...")
		o.respond(ctx, o.synthesize(ctx, text, evaluation.CleanResponse))
	default:
		logger.Warn("tool execution failed", "reason", evaluation.Reason, "intent", plan.Intent)
	}
}

// synthesize turns the evaluator's clean response into speakable text. Short
// responses are usually raw data, so they are summarised by the planner.
func (o *Orchestrator) synthesize(ctx context.Context, text, clean string) string {
	if utf8.RuneCountInString(strings.TrimSpace(clean)) > shortResponseRunes {
		return clean
	}

	summary := o.planner.Plan(ctx, summarizeInput, fmt.Sprintf(summarizeCtx, text, clean))
	switch {
	case summary.Response() != "":
		return summary.Response()
	case clean != "":
		return clean
	default:
		return resultsReady
	}
}

// respond speaks text as the agent: transcript first, then speech, then the
// memory turn.
func (o *Orchestrator) respond(ctx context.Context, text string) {
	o.setState(StateSpeaking)
	o.session.AddTranscript(session.RoleAgent, text)
	o.speak(ctx, text)
	o.memory.AddTurn(memory.RoleAgent, text)
}
