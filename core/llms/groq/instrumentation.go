package groq

import (
	"github.com/koscakluka/ema-welfare/core/logging"
	"go.opentelemetry.io/otel"
)

const scopeName = "github.com/koscakluka/ema-welfare/core/llms/groq"

var (
	tracer = otel.Tracer(scopeName)
	logger = logging.NewLogger(scopeName)
)
