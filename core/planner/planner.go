// Package planner turns a user utterance and the conversation context into a
// structured plan by prompting a language model.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/koscakluka/ema-welfare/core/llms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultTimeout     = 10 * time.Second
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 500

	// SchemaName names the plan schema in schema-constrained requests.
	SchemaName = "PlannerOutput"

	// maxContextLines bounds the context forwarded to the model.
	maxContextLines = 20
)

var (
	ErrNoJSONObject = errors.New("no JSON object in model output")
	ErrTimeout      = errors.New("planning deadline exceeded")
)

// Backend is a language model that answers a prompt with a JSON document.
type Backend interface {
	PromptJSON(ctx context.Context, prompt string, opts ...llms.StructuredPromptOption) (string, error)
}

type Planner struct {
	backend      Backend
	instructions string
	timeout      time.Duration
	temperature  float64
	maxTokens    int
	validator    *validator
	schema       *jsonschema.Schema
}

type Option func(*Planner)

func WithTimeout(timeout time.Duration) Option {
	return func(p *Planner) {
		p.timeout = timeout
	}
}

// WithInstructions replaces the default system prompt.
func WithInstructions(instructions string) Option {
	return func(p *Planner) {
		p.instructions = instructions
	}
}

// WithSchemaOutput asks the backend to constrain its answer to the plan
// schema instead of plain JSON mode.
func WithSchemaOutput(enabled bool) Option {
	return func(p *Planner) {
		if enabled {
			p.schema = Schema()
		} else {
			p.schema = nil
		}
	}
}

func New(backend Backend, opts ...Option) (*Planner, error) {
	if backend == nil {
		return nil, errors.New("planner backend is required")
	}

	validator, err := newValidator(Schema())
	if err != nil {
		return nil, err
	}

	p := &Planner{
		backend:      backend,
		instructions: Instructions,
		timeout:      DefaultTimeout,
		temperature:  DefaultTemperature,
		maxTokens:    DefaultMaxTokens,
		validator:    validator,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Plan never fails: any problem with the model call or its output yields
// the fallback plan.
func (p *Planner) Plan(ctx context.Context, userText, contextBlock string) Output {
	ctx, span := tracer.Start(ctx, "plan")
	defer span.End()

	plan, err := p.plan(ctx, userText, contextBlock)
	if err != nil {
		logger.Error("planning failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Fallback()
	}

	span.SetAttributes(
		attribute.String("plan.intent", plan.Intent),
		attribute.String("plan.next_state", string(plan.NextState)),
		attribute.Int("plan.tool_calls", len(plan.ToolCalls)),
	)
	logger.Debug("plan ready", "intent", plan.Intent, "next_state", plan.NextState, "tool_calls", len(plan.ToolCalls))
	return plan
}

func (p *Planner) plan(ctx context.Context, userText, contextBlock string) (Output, error) {
	raw, err := p.prompt(ctx, BuildPrompt(userText, contextBlock))
	if err != nil {
		return Output{}, err
	}

	payload, err := ExtractJSON(raw)
	if err != nil {
		return Output{}, err
	}
	if err := p.validator.validate(payload); err != nil {
		return Output{}, err
	}

	var plan Output
	if err := json.Unmarshal(payload, &plan); err != nil {
		return Output{}, fmt.Errorf("failed to decode plan: %w", err)
	}
	return plan, nil
}

type promptResult struct {
	content string
	err     error
}

// prompt calls the backend under the planning deadline. A call that
// outlives the deadline is abandoned, its result is dropped.
func (p *Planner) prompt(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	results := make(chan promptResult, 1)
	go func() {
		defer func() {
			if recovered := recover(); recovered != nil {
				results <- promptResult{err: fmt.Errorf("planning backend panicked: %v", recovered)}
			}
		}()

		content, err := p.backend.PromptJSON(ctx, prompt, p.promptOptions()...)
		results <- promptResult{content: content, err: err}
	}()

	select {
	case result := <-results:
		if result.err != nil {
			return "", fmt.Errorf("planning backend failed: %w", result.err)
		}
		return result.content, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w after %s", ErrTimeout, p.timeout)
		}
		return "", ctx.Err()
	}
}

func (p *Planner) promptOptions() []llms.StructuredPromptOption {
	opts := []llms.StructuredPromptOption{
		llms.WithSystemPrompt(p.instructions),
		llms.WithTemperature(p.temperature),
		llms.WithMaxTokens(p.maxTokens),
	}
	if p.schema != nil {
		opts = append(opts, llms.WithSchema(SchemaName, p.schema))
	}
	return opts
}

// BuildPrompt renders the user message sent to the model. Only the last
// lines of a long context are kept.
func BuildPrompt(userText, contextBlock string) string {
	lines := strings.Split(contextBlock, "\n")
	if len(lines) > maxContextLines {
		contextBlock = strings.Join(lines[len(lines)-maxContextLines:], "\n")
	}
	return fmt.Sprintf("CONTEXT:\n%s\n\nCURRENT USER INPUT: \"%s\"\n\nGenerate JSON Plan:", contextBlock, userText)
}

// ExtractJSON strips code fences and surrounding prose from a model answer,
// keeping the first JSON object it contains.
func ExtractJSON(content string) ([]byte, error) {
	start := strings.Index(content, "{")
	if start < 0 {
		return nil, ErrNoJSONObject
	}

	var payload json.RawMessage
	if err := json.NewDecoder(strings.NewReader(content[start:])).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoJSONObject, err)
	}
	return payload, nil
}
