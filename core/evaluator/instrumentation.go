package evaluator

import "github.com/koscakluka/ema-welfare/core/logging"

const scopeName = "github.com/koscakluka/ema-welfare/core/evaluator"

var logger = logging.NewLogger(scopeName)
