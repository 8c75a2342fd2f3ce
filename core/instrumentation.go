package orchestration

import (
	"github.com/koscakluka/ema-welfare/core/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const scopeName = "github.com/koscakluka/ema-welfare/core"

var (
	tracer = otel.Tracer(scopeName)
	logger = logging.NewLogger(scopeName)
)

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
