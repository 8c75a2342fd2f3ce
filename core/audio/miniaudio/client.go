// Package miniaudio records and plays mono linear16 audio on the default
// devices through malgo.
package miniaudio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/koscakluka/ema-welfare/core/audio"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// captureGrace bounds how long Record waits beyond the requested window for
// the device to deliver audio.
const captureGrace = 2 * time.Second

var ErrNotInitialized = errors.New("audio device not initialized")

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient

	captureInfo  audio.EncodingInfo
	playbackInfo audio.EncodingInfo

	recordMu sync.Mutex
	initMu   sync.Mutex
}

type Option func(*Client)

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

// NewClient returns a client with its devices closed. Call Init before
// recording or playing.
func NewClient(opts ...Option) *Client {
	c := &Client{
		captureInfo:  audio.GetDefaultEncodingInfo(),
		playbackInfo: audio.GetDefaultPlaybackEncodingInfo(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init opens the capture and playback devices and starts playback.
// Repeated calls are ignored.
func (c *Client) Init(ctx context.Context) error {
	_, span := tracer.Start(ctx, "init audio devices")
	defer span.End()

	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.audioContext != nil {
		return nil
	}

	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logger.Debug("malgo", "message", message)
	})
	if err != nil {
		err = fmt.Errorf("failed to initialize audio context: %w", err)
		recordError(span, err)
		return err
	}
	c.audioContext = audioCtx

	if err := c.playbackClient.Init(audioCtx, c.playbackInfo); err != nil {
		c.closeLocked()
		err = fmt.Errorf("failed to initialize playback client: %w", err)
		recordError(span, err)
		return err
	}

	if err := c.playbackClient.Start(); err != nil {
		c.closeLocked()
		err = fmt.Errorf("failed to start playback device: %w", err)
		recordError(span, err)
		return err
	}

	if err := c.captureClient.Init(audioCtx, c.captureInfo); err != nil {
		c.closeLocked()
		err = fmt.Errorf("failed to initialize capture client: %w", err)
		recordError(span, err)
		return err
	}

	logger.Info("audio devices ready",
		"capture_rate", c.captureInfo.SampleRate,
		"playback_rate", c.playbackInfo.SampleRate)
	return nil
}

// Record captures a fixed window of audio. It returns once the window is
// full; it is not interrupted by ctx.
func (c *Client) Record(ctx context.Context, window time.Duration) ([]byte, error) {
	_, span := tracer.Start(ctx, "record audio",
		trace.WithAttributes(attribute.String("window", window.String())))
	defer span.End()

	c.recordMu.Lock()
	defer c.recordMu.Unlock()

	collector := audio.NewCollector(c.captureInfo.ByteLength(window))
	if err := c.captureClient.Start(collector.Write); err != nil {
		recordError(span, err)
		return nil, err
	}
	defer func() {
		if err := c.captureClient.Stop(); err != nil {
			logger.Warn("failed to stop capture device", "error", err)
		}
	}()

	select {
	case <-collector.Done():
	case <-time.After(window + captureGrace):
		err := fmt.Errorf("capture timed out after %s", window+captureGrace)
		recordError(span, err)
		return nil, err
	}

	pcm := collector.Bytes()
	span.SetAttributes(attribute.Int("bytes", len(pcm)))
	return pcm, nil
}

// Play queues pcm for playback and blocks until it has been played.
func (c *Client) Play(ctx context.Context, pcm []byte) error {
	ctx, span := tracer.Start(ctx, "play audio",
		trace.WithAttributes(attribute.Int("bytes", len(pcm))))
	defer span.End()

	if err := c.playbackClient.SendAudio(pcm); err != nil {
		recordError(span, err)
		return err
	}
	if err := c.playbackClient.AwaitMark(ctx); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

func (c *Client) ClearBuffer() {
	c.playbackClient.ClearBuffer()
}

func (c *Client) Close() error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	c.closeLocked()
	return nil
}

func (c *Client) closeLocked() {
	_ = c.captureClient.Uninit()
	_ = c.playbackClient.Uninit()
	if c.audioContext != nil {
		_ = c.audioContext.Uninit()
		c.audioContext.Free()
		c.audioContext = nil
	}
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
