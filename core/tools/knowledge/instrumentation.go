package knowledge

import "github.com/koscakluka/ema-welfare/core/logging"

const scopeName = "github.com/koscakluka/ema-welfare/core/tools/knowledge"

var logger = logging.NewLogger(scopeName)
