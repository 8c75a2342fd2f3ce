// Package portaudio records and plays mono linear16 audio through the
// blocking PortAudio stream API.
package portaudio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/koscakluka/ema-welfare/core/audio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultBufferSize = 1024

var ErrNotInitialized = errors.New("portaudio streams not initialized")

type Client struct {
	bufferSize   int
	captureInfo  audio.EncodingInfo
	playbackInfo audio.EncodingInfo

	input  *portaudio.Stream
	output *portaudio.Stream
	in     []int16
	out    []int16

	inputMu  sync.Mutex
	outputMu sync.Mutex
	initMu   sync.Mutex
}

type Option func(*Client)

func WithBufferSize(frames int) Option {
	return func(c *Client) {
		if frames > 0 {
			c.bufferSize = frames
		}
	}
}

func WithCaptureSampleRate(rate int) Option {
	return func(c *Client) {
		if rate > 0 {
			c.captureInfo.SampleRate = rate
		}
	}
}

func WithPlaybackSampleRate(rate int) Option {
	return func(c *Client) {
		if rate > 0 {
			c.playbackInfo.SampleRate = rate
		}
	}
}

// NewClient returns a client with its streams closed. Call Init before
// recording or playing.
func NewClient(opts ...Option) *Client {
	c := &Client{
		bufferSize:   DefaultBufferSize,
		captureInfo:  audio.GetDefaultEncodingInfo(),
		playbackInfo: audio.GetDefaultPlaybackEncodingInfo(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init initializes PortAudio and opens the default input and output streams.
func (c *Client) Init(ctx context.Context) error {
	_, span := tracer.Start(ctx, "init portaudio")
	defer span.End()

	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.input != nil {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		err = fmt.Errorf("failed to initialize PortAudio: %w", err)
		recordError(span, err)
		return err
	}

	c.in = make([]int16, c.bufferSize)
	input, err := portaudio.OpenDefaultStream(1, 0, float64(c.captureInfo.SampleRate), c.bufferSize, c.in)
	if err != nil {
		_ = portaudio.Terminate()
		err = fmt.Errorf("failed to open PortAudio input stream: %w", err)
		recordError(span, err)
		return err
	}

	c.out = make([]int16, c.bufferSize)
	output, err := portaudio.OpenDefaultStream(0, 1, float64(c.playbackInfo.SampleRate), c.bufferSize, c.out)
	if err != nil {
		_ = input.Close()
		_ = portaudio.Terminate()
		err = fmt.Errorf("failed to open PortAudio output stream: %w", err)
		recordError(span, err)
		return err
	}

	c.input, c.output = input, output
	logger.Info("portaudio streams ready",
		"capture_rate", c.captureInfo.SampleRate,
		"playback_rate", c.playbackInfo.SampleRate,
		"buffer_size", c.bufferSize)
	return nil
}

// Record reads a fixed window of audio from the input stream.
func (c *Client) Record(ctx context.Context, window time.Duration) ([]byte, error) {
	_, span := tracer.Start(ctx, "record audio",
		trace.WithAttributes(attribute.String("window", window.String())))
	defer span.End()

	c.inputMu.Lock()
	defer c.inputMu.Unlock()
	if c.input == nil {
		recordError(span, ErrNotInitialized)
		return nil, ErrNotInitialized
	}

	if err := c.input.Start(); err != nil {
		err = fmt.Errorf("failed to start PortAudio input stream: %w", err)
		recordError(span, err)
		return nil, err
	}
	defer func() {
		if err := c.input.Stop(); err != nil {
			logger.Warn("failed to stop PortAudio input stream", "error", err)
		}
	}()

	collector := audio.NewCollector(c.captureInfo.ByteLength(window))
	for {
		select {
		case <-collector.Done():
			pcm := collector.Bytes()
			span.SetAttributes(attribute.Int("bytes", len(pcm)))
			return pcm, nil
		default:
		}

		if err := c.input.Read(); err != nil {
			// Overflows drop a buffer but the stream keeps going.
			if !errors.Is(err, portaudio.InputOverflowed) {
				err = fmt.Errorf("failed to read from PortAudio stream: %w", err)
				recordError(span, err)
				return nil, err
			}
			logger.Debug("portaudio input overflowed")
		}

		chunk := bytes.Buffer{}
		if err := binary.Write(&chunk, binary.LittleEndian, c.in); err != nil {
			recordError(span, err)
			return nil, err
		}
		collector.Write(chunk.Bytes())
	}
}

// Play writes pcm to the output stream, padding the final buffer with
// silence. It returns once the last buffer has been written.
func (c *Client) Play(ctx context.Context, pcm []byte) error {
	_, span := tracer.Start(ctx, "play audio",
		trace.WithAttributes(attribute.Int("bytes", len(pcm))))
	defer span.End()

	c.outputMu.Lock()
	defer c.outputMu.Unlock()
	if c.output == nil {
		recordError(span, ErrNotInitialized)
		return ErrNotInitialized
	}

	if err := c.output.Start(); err != nil {
		err = fmt.Errorf("failed to start PortAudio output stream: %w", err)
		recordError(span, err)
		return err
	}
	defer func() {
		if err := c.output.Stop(); err != nil {
			logger.Warn("failed to stop PortAudio output stream", "error", err)
		}
	}()

	bufferBytes := c.bufferSize * 2
	for offset := 0; offset < len(pcm); offset += bufferBytes {
		chunk := pcm[offset:min(offset+bufferBytes, len(pcm))]
		fillBuffer(c.out, chunk)
		if err := c.output.Write(); err != nil && !errors.Is(err, portaudio.OutputUnderflowed) {
			err = fmt.Errorf("failed to write to PortAudio stream: %w", err)
			recordError(span, err)
			return err
		}
	}
	return nil
}

// fillBuffer decodes little-endian samples into out and zeroes the rest.
func fillBuffer(out []int16, chunk []byte) {
	n := min(len(chunk)/2, len(out))
	for i := range n {
		out[i] = int16(binary.LittleEndian.Uint16(chunk[2*i:]))
	}
	clear(out[n:])
}

func (c *Client) Close() error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.input == nil {
		return nil
	}

	errs := []error{c.input.Close(), c.output.Close(), portaudio.Terminate()}
	c.input, c.output = nil, nil
	return errors.Join(errs...)
}

func (c *Client) CaptureEncodingInfo() audio.EncodingInfo {
	return c.captureInfo
}

func (c *Client) PlaybackEncodingInfo() audio.EncodingInfo {
	return c.playbackInfo
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
