// Package executor dispatches planned tool calls to the deterministic tools.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/koscakluka/ema-welfare/core/planner"
	"github.com/koscakluka/ema-welfare/core/tools"
	"github.com/koscakluka/ema-welfare/core/tools/eligibility"
	"github.com/koscakluka/ema-welfare/core/tools/knowledge"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var ErrUnknownTool = errors.New("unknown tool")

type EligibilityChecker interface {
	Check(input eligibility.Input, schemeID string) tools.Output
}

type SchemeSearcher interface {
	Search(query knowledge.Query) tools.Output
}

type Executor struct {
	eligibility EligibilityChecker
	knowledge   SchemeSearcher
	calls       metric.Int64Counter
}

func New(eligibility EligibilityChecker, knowledge SchemeSearcher) *Executor {
	calls, err := meter.Int64Counter("ema.tool.calls",
		metric.WithDescription("Number of tool calls dispatched"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		logger.Warn("failed to create tool call counter", "error", err)
	}
	return &Executor{
		eligibility: eligibility,
		knowledge:   knowledge,
		calls:       calls,
	}
}

type eligibilityArgs struct {
	SchemeID          string `mapstructure:"scheme_id"`
	eligibility.Input `mapstructure:",squash"`
}

type searchArgs struct {
	SchemeID string   `mapstructure:"scheme_id"`
	Keywords []string `mapstructure:"keywords"`
}

// Execute runs a single step. It never panics and never returns an error:
// every failure is reported through the returned Output.
func (e *Executor) Execute(ctx context.Context, step planner.Step) (out tools.Output) {
	name := strings.ToLower(strings.TrimSpace(step.ToolName))

	ctx, span := tracer.Start(ctx, "execute tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", name))

	defer func() {
		if recovered := recover(); recovered != nil {
			out = failed(span, fmt.Errorf("tool %s panicked: %v", name, recovered))
		}
		span.SetAttributes(
			attribute.Bool("tool.success", out.Success),
			attribute.String("tool.status", out.Status()),
		)
		if e.calls != nil {
			e.calls.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tool.name", name),
				attribute.Bool("tool.success", out.Success),
			))
		}
	}()

	logger.Info("executing tool", "tool", name, "arguments", step.Arguments)

	switch name {
	case tools.CheckEligibility:
		if e.eligibility == nil {
			return failed(span, fmt.Errorf("tool %s is not available", name))
		}
		var args eligibilityArgs
		if err := decode(step.Arguments, &args); err != nil {
			return failed(span, err)
		}
		return e.eligibility.Check(args.Input, args.SchemeID)

	case tools.SearchSchemes:
		if e.knowledge == nil {
			return failed(span, fmt.Errorf("tool %s is not available", name))
		}
		var args searchArgs
		if err := decode(step.Arguments, &args); err != nil {
			return failed(span, err)
		}
		return e.knowledge.Search(knowledge.Query{SchemeID: args.SchemeID, Keywords: args.Keywords})

	default:
		return failed(span, fmt.Errorf("%w: %s", ErrUnknownTool, name))
	}
}

func failed(span trace.Span, err error) tools.Output {
	logger.Error("tool execution failed", "error", err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return tools.Failed(err.Error())
}

func decode(arguments map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(arguments); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

// ProfileFacts lists the user facts carried by a check_eligibility step, in
// a fixed order. Other steps carry none.
func ProfileFacts(step planner.Step) []Fact {
	if strings.ToLower(strings.TrimSpace(step.ToolName)) != tools.CheckEligibility {
		return nil
	}

	var facts []Fact
	for _, key := range profileKeys {
		if value, ok := step.Arguments[key]; ok && value != nil {
			facts = append(facts, Fact{Key: key, Value: value})
		}
	}
	return facts
}

var profileKeys = []string{"age", "income", "occupation", "land_acres", "caste"}

type Fact struct {
	Key   string
	Value any
}
