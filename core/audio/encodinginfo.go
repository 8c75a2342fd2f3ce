package audio

import "time"

const (
	// DefaultSampleRate is the capture rate used for speech recognition.
	DefaultSampleRate = 16000
	// DefaultPlaybackSampleRate matches the PCM produced by the speech
	// synthesis backends.
	DefaultPlaybackSampleRate = 24000
	DefaultFormat             = EncodingLinear16
)

func GetDefaultEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultSampleRate, Format: DefaultFormat}
}

func GetDefaultPlaybackEncodingInfo() EncodingInfo {
	return EncodingInfo{SampleRate: DefaultPlaybackSampleRate, Format: DefaultFormat}
}

// EncodingInfo describes a mono audio stream.
type EncodingInfo struct {
	SampleRate int
	Format     Format
}

func (e EncodingInfo) IsZero() bool {
	return e.SampleRate == 0 || e.Format.Name() == ""
}

func (e EncodingInfo) SilenceValue() byte {
	switch e.Format {
	case EncodingALaw:
		return 0x55
	case EncodingMulaw:
		return 0xFF
	case EncodingLinear16:
		return 0
	}

	return 0
}

// ByteLength is the number of bytes holding d of audio.
func (e EncodingInfo) ByteLength(d time.Duration) int {
	size := e.Format.ByteSize()
	if size <= 0 || e.SampleRate <= 0 || d <= 0 {
		return 0
	}
	frames := int(int64(e.SampleRate) * int64(d) / int64(time.Second))
	return frames * size
}

// Duration is the playback length of n bytes.
func (e EncodingInfo) Duration(n int) time.Duration {
	size := e.Format.ByteSize()
	if size <= 0 || e.SampleRate <= 0 || n <= 0 {
		return 0
	}
	frames := int64(n / size)
	return time.Duration(frames * int64(time.Second) / int64(e.SampleRate))
}

type Format string

func (f Format) Name() string {
	return string(f)
}

func (f Format) ByteSize() int {
	switch f {
	case EncodingMulaw, EncodingALaw:
		return 1
	case EncodingLinear16:
		return 2
	}
	return -1
}

const (
	EncodingMulaw    Format = "mulaw"
	EncodingALaw     Format = "alaw"
	EncodingLinear16 Format = "linear16"
)
