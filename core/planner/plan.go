package planner

type NextState string

const (
	NextStateExecuting NextState = "EXECUTING"
	NextStateSpeaking  NextState = "SPEAKING"
)

// Step is a single tool invocation requested by the planner.
type Step struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
}

// Output is the structured plan returned for one user utterance.
type Output struct {
	Reasoning    string    `json:"reasoning"`
	Intent       string    `json:"intent"`
	NextState    NextState `json:"next_state" jsonschema:"enum=EXECUTING,enum=SPEAKING"`
	ToolCalls    []Step    `json:"tool_calls,omitempty"`
	MissingInfo  []string  `json:"missing_info,omitempty"`
	ResponseText *string   `json:"response_text_if_any,omitempty" jsonschema:"oneof_type=string;null"`
}

// Response returns the direct response text, or "" when there is none.
func (o Output) Response() string {
	if o.ResponseText == nil {
		return ""
	}
	return *o.ResponseText
}

const (
	FallbackReasoning = "Error in planning"
	FallbackIntent    = "failure_recovery"
	FallbackResponse  = "క్షమించండి, సాంకేతిక సమస్య ఉంది. దయచేసి మళ్ళీ చెప్పండి."
)

// Fallback is the plan used whenever planning fails.
func Fallback() Output {
	text := FallbackResponse
	return Output{
		Reasoning:    FallbackReasoning,
		Intent:       FallbackIntent,
		NextState:    NextStateSpeaking,
		ResponseText: &text,
	}
}
