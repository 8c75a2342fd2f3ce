package deepgram

import (
	"errors"
	"fmt"

	"github.com/koscakluka/ema-welfare/core/audio"
)

var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// checkEncoding reports whether Deepgram accepts raw audio in the given
// encoding.
func checkEncoding(encoding audio.EncodingInfo) error {
	switch encoding.SampleRate {
	case 8000, 16000, 24000, 32000, 48000:
	default:
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedEncoding, encoding.SampleRate)
	}

	switch encoding.Format {
	case audio.EncodingLinear16:
	case audio.EncodingALaw, audio.EncodingMulaw:
		if encoding.SampleRate != 8000 {
			return fmt.Errorf("%w: %s requires 8kHz", ErrUnsupportedEncoding, encoding.Format)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding.Format)
	}

	return nil
}
