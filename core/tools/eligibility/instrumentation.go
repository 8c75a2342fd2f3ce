package eligibility

import "github.com/koscakluka/ema-welfare/core/logging"

const scopeName = "github.com/koscakluka/ema-welfare/core/tools/eligibility"

var logger = logging.NewLogger(scopeName)
