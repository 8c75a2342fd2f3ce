package executor

import (
	"github.com/koscakluka/ema-welfare/core/logging"
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/koscakluka/ema-welfare/core/executor"

var (
	tracer = otel.Tracer(scopeName)
	meter  = otel.Meter(scopeName)
	logger = logging.NewLogger(scopeName)
)
