// Package llms holds the options shared by the planning model clients.
package llms

import "github.com/invopop/jsonschema"

// StructuredPromptOptions configures a single JSON-producing prompt.
type StructuredPromptOptions struct {
	Instructions string
	Temperature  *float64
	MaxTokens    int
	// Schema, when set, asks the backend to constrain its output to the
	// schema instead of plain JSON mode.
	Schema     *jsonschema.Schema
	SchemaName string
}

type StructuredPromptOption interface {
	ApplyToStructured(*StructuredPromptOptions)
}

// PromptOption is a function that modifies the prompt options.
type PromptOption func(*StructuredPromptOptions)

func (f PromptOption) ApplyToStructured(o *StructuredPromptOptions) {
	f(o)
}

// NewStructuredPromptOptions applies opts in order.
func NewStructuredPromptOptions(opts ...StructuredPromptOption) StructuredPromptOptions {
	var options StructuredPromptOptions
	for _, opt := range opts {
		opt.ApplyToStructured(&options)
	}
	return options
}

// WithSystemPrompt sets the system prompt.
// Repeating this option will overwrite the previous system prompt.
func WithSystemPrompt(prompt string) PromptOption {
	return func(opts *StructuredPromptOptions) {
		opts.Instructions = prompt
	}
}

func WithTemperature(temperature float64) PromptOption {
	return func(opts *StructuredPromptOptions) {
		opts.Temperature = &temperature
	}
}

func WithMaxTokens(maxTokens int) PromptOption {
	return func(opts *StructuredPromptOptions) {
		opts.MaxTokens = maxTokens
	}
}

// WithSchema constrains the output to schema. Backends without schema
// support fall back to JSON mode.
func WithSchema(name string, schema *jsonschema.Schema) PromptOption {
	return func(opts *StructuredPromptOptions) {
		opts.SchemaName = name
		opts.Schema = schema
	}
}
