package memory

import "github.com/koscakluka/ema-welfare/core/logging"

const scopeName = "github.com/koscakluka/ema-welfare/core/memory"

var logger = logging.NewLogger(scopeName)
