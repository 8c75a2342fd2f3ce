package texttospeech

import "github.com/koscakluka/ema-welfare/core/logging"

const scopeName = "github.com/koscakluka/ema-welfare/core/texttospeech"

var logger = logging.NewLogger(scopeName)
