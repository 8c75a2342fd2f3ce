package server

import "github.com/koscakluka/ema-welfare/core/logging"

const scopeName = "github.com/koscakluka/ema-welfare/core/server"

var logger = logging.NewLogger(scopeName)
