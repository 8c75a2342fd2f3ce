package session

import "github.com/koscakluka/ema-welfare/core/logging"

const scopeName = "github.com/koscakluka/ema-welfare/core/session"

var logger = logging.NewLogger(scopeName)
