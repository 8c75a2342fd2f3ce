package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/koscakluka/ema-welfare/core/llms"
)

type backendStub struct {
	content string
	err     error
	delay   time.Duration
	panics  bool

	prompt  string
	options llms.StructuredPromptOptions
}

func (b *backendStub) PromptJSON(ctx context.Context, prompt string, opts ...llms.StructuredPromptOption) (string, error) {
	b.prompt = prompt
	b.options = llms.NewStructuredPromptOptions(opts...)
	if b.panics {
		panic("backend exploded")
	}
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	return b.content, b.err
}

func newTestPlanner(t *testing.T, backend Backend, opts ...Option) *Planner {
	t.Helper()
	p, err := New(backend, opts...)
	if err != nil {
		t.Fatalf("expected planner, got %v", err)
	}
	return p
}

func expectFallback(t *testing.T, plan Output) {
	t.Helper()
	if plan.Reasoning != FallbackReasoning || plan.Intent != FallbackIntent || plan.NextState != NextStateSpeaking {
		t.Fatalf("expected fallback plan, got %+v", plan)
	}
	if plan.Response() != FallbackResponse {
		t.Fatalf("expected fallback response, got %q", plan.Response())
	}
	if len(plan.ToolCalls) != 0 {
		t.Fatalf("expected no tool calls in fallback, got %v", plan.ToolCalls)
	}
}

func TestPlanDecodesSpeakingPlan(t *testing.T) {
	backend := &backendStub{content: `{
		"reasoning": "general question",
		"intent": "chitchat",
		"next_state": "SPEAKING",
		"response_text_if_any": "రైతు బంధు పెట్టుబడి సహాయ పథకం."
	}`}
	plan := newTestPlanner(t, backend).Plan(context.Background(), "రైతు బంధు గురించి చెప్పు", "{}")

	if plan.NextState != NextStateSpeaking || plan.Intent != "chitchat" {
		t.Fatalf("expected speaking chitchat plan, got %+v", plan)
	}
	if plan.Response() != "రైతు బంధు పెట్టుబడి సహాయ పథకం." {
		t.Fatalf("expected response text, got %q", plan.Response())
	}

	if backend.options.Instructions != Instructions {
		t.Fatalf("expected default system prompt")
	}
	if backend.options.Temperature == nil || *backend.options.Temperature != DefaultTemperature {
		t.Fatalf("expected temperature %v, got %v", DefaultTemperature, backend.options.Temperature)
	}
	if backend.options.MaxTokens != DefaultMaxTokens {
		t.Fatalf("expected %d max tokens, got %d", DefaultMaxTokens, backend.options.MaxTokens)
	}
	if backend.options.Schema != nil {
		t.Fatalf("expected plain JSON mode without schema output")
	}
}

func TestPlanSendsSchemaWhenEnabled(t *testing.T) {
	backend := &backendStub{content: `{"reasoning": "r", "intent": "chitchat", "next_state": "SPEAKING", "response_text_if_any": "సరే"}`}
	plan := newTestPlanner(t, backend, WithSchemaOutput(true)).Plan(context.Background(), "హలో", "{}")

	if plan.Intent != "chitchat" {
		t.Fatalf("expected decoded plan, got %+v", plan)
	}
	if backend.options.Schema == nil || backend.options.SchemaName != SchemaName {
		t.Fatalf("expected schema %s to be sent, got %q", SchemaName, backend.options.SchemaName)
	}
	if _, ok := backend.options.Schema.Properties.Get("next_state"); !ok {
		t.Fatalf("expected plan schema with next_state property")
	}

	newTestPlanner(t, backend, WithSchemaOutput(true), WithSchemaOutput(false)).Plan(context.Background(), "హలో", "{}")
	if backend.options.Schema != nil {
		t.Fatalf("expected schema output to be switched off")
	}
}

func TestPlanDecodesToolCallsInsideFences(t *testing.T) {
	backend := &backendStub{content: "Here is the plan:\n```json\n" + `{
		"reasoning": "needs eligibility",
		"intent": "check_eligibility",
		"next_state": "EXECUTING",
		"tool_calls": [{"tool_name": "check_eligibility", "arguments": {"scheme_id": "aasara_pension", "age": 45}}],
		"response_text_if_any": null
	}` + "\n```"}
	plan := newTestPlanner(t, backend).Plan(context.Background(), "నాకు 45 ఏళ్లు", "{}")

	if plan.NextState != NextStateExecuting {
		t.Fatalf("expected EXECUTING, got %+v", plan)
	}
	if len(plan.ToolCalls) != 1 || plan.ToolCalls[0].ToolName != "check_eligibility" {
		t.Fatalf("expected one check_eligibility call, got %+v", plan.ToolCalls)
	}
	if plan.ToolCalls[0].Arguments["scheme_id"] != "aasara_pension" {
		t.Fatalf("expected scheme_id argument, got %v", plan.ToolCalls[0].Arguments)
	}
	if plan.ResponseText != nil {
		t.Fatalf("expected no response text, got %q", *plan.ResponseText)
	}
}

func TestPlanFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		backend *backendStub
	}{
		{"backend error", &backendStub{err: errors.New("unavailable")}},
		{"backend panic", &backendStub{panics: true}},
		{"not json", &backendStub{content: "I cannot help with that"}},
		{"broken json", &backendStub{content: `{"reasoning": "x", "intent": `}},
		{"missing next state", &backendStub{content: `{"reasoning": "x", "intent": "chitchat"}`}},
		{"unknown next state", &backendStub{content: `{"reasoning": "x", "intent": "y", "next_state": "DANCING"}`}},
		{"tool call without name", &backendStub{content: `{"reasoning": "x", "intent": "y", "next_state": "EXECUTING", "tool_calls": [{"arguments": {}}]}`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectFallback(t, newTestPlanner(t, tt.backend).Plan(context.Background(), "hello", ""))
		})
	}
}

func TestPlanAbandonsSlowBackend(t *testing.T) {
	backend := &backendStub{
		content: `{"reasoning": "x", "intent": "y", "next_state": "SPEAKING"}`,
		delay:   500 * time.Millisecond,
	}
	p := newTestPlanner(t, backend, WithTimeout(20*time.Millisecond))

	start := time.Now()
	plan := p.Plan(context.Background(), "hello", "")
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Fatalf("expected planning to give up at the deadline, took %s", elapsed)
	}
	expectFallback(t, plan)
}

func TestBuildPromptKeepsLastTwentyContextLines(t *testing.T) {
	lines := make([]string, 30)
	for i := range lines {
		lines[i] = fmt.Sprintf("line %02d", i)
	}

	prompt := BuildPrompt("ఆసరా పెన్షన్", strings.Join(lines, "\n"))

	if strings.Contains(prompt, "line 09") {
		t.Fatalf("expected early lines to be dropped, got %s", prompt)
	}
	if !strings.Contains(prompt, "CONTEXT:\nline 10\n") || !strings.Contains(prompt, "line 29\n\n") {
		t.Fatalf("expected lines 10..29 to be kept, got %s", prompt)
	}
	if !strings.HasSuffix(prompt, "CURRENT USER INPUT: \"ఆసరా పెన్షన్\"\n\nGenerate JSON Plan:") {
		t.Fatalf("expected user input trailer, got %s", prompt)
	}
}

func TestBuildPromptKeepsShortContext(t *testing.T) {
	prompt := BuildPrompt("hi", "a\nb")
	expected := "CONTEXT:\na\nb\n\nCURRENT USER INPUT: \"hi\"\n\nGenerate JSON Plan:"
	if prompt != expected {
		t.Fatalf("expected %q, got %q", expected, prompt)
	}
}

func TestExtractJSON(t *testing.T) {
	payload, err := ExtractJSON("```json\n{\"a\": {\"b\": 1}}\n```")
	if err != nil {
		t.Fatalf("expected payload, got %v", err)
	}
	if string(payload) != `{"a": {"b": 1}}` {
		t.Fatalf("expected inner object, got %s", payload)
	}

	payload, err = ExtractJSON("```json\n{\"a\": 1}\n```\nNote: fields follow {PlannerOutput}.")
	if err != nil {
		t.Fatalf("expected payload, got %v", err)
	}
	if string(payload) != `{"a": 1}` {
		t.Fatalf("expected first object only, got %s", payload)
	}

	if _, err := ExtractJSON("} no object {"); !errors.Is(err, ErrNoJSONObject) {
		t.Fatalf("expected ErrNoJSONObject, got %v", err)
	}
	if _, err := ExtractJSON("no braces at all"); !errors.Is(err, ErrNoJSONObject) {
		t.Fatalf("expected ErrNoJSONObject, got %v", err)
	}
}

func TestPlanIgnoresBracesInTrailingProse(t *testing.T) {
	backend := &backendStub{content: "```json\n" + `{"reasoning": "r", "intent": "chitchat", "next_state": "SPEAKING", "response_text_if_any": "సరే"}` +
		"\n```\nNote: fields follow {PlannerOutput}."}
	plan := newTestPlanner(t, backend).Plan(context.Background(), "హలో", "{}")

	if plan.Intent != "chitchat" || plan.Response() != "సరే" {
		t.Fatalf("expected decoded plan, got %+v", plan)
	}
}
