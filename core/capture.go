package interview

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/vvskad1/interview-core/core/audio"
)

// captureSession is the facade that owns the microphone for the duration of
// one recording. Exactly one capture may be active at a time; every exit path
// (normal stop, abort on timeout, teardown) releases the device.
type captureSession struct {
	// client stores the configured input client used for one-shot capture.
	client CaptureClient

	// connected reports whether a concrete input client is currently configured.
	connected atomic.Bool
	// active reports whether a recording is currently in flight.
	active atomic.Bool
	// disabled blocks new recordings without releasing the client.
	disabled atomic.Bool

	mu      sync.Mutex
	builder *audio.ArtifactBuilder
	meter   *audio.LevelMeter

	// onFrame receives each raw PCM chunk with the current input level while
	// a capture is active.
	onFrame func(chunk []byte, level float64)
}

func newCaptureSession() *captureSession {
	return &captureSession{meter: audio.NewLevelMeter()}
}

func (c *captureSession) Set(client CaptureClient) {
	if c == nil {
		return
	}

	c.client = client
	c.connected.Store(client != nil)
	c.active.Store(false)
}

func (c *captureSession) IsConfigured() bool { return c != nil && c.connected.Load() }
func (c *captureSession) IsActive() bool     { return c != nil && c.active.Load() }
func (c *captureSession) Disable()           { c.disabled.Store(true) }
func (c *captureSession) Enable()            { c.disabled.Store(false) }

func (c *captureSession) EncodingInfo() audio.EncodingInfo {
	if c == nil || c.client == nil {
		return audio.EncodingInfo{SampleRate: audio.DefaultSampleRate, Format: audio.EncodingLinear16}
	}
	return c.client.EncodingInfo()
}

func (c *captureSession) Level() float64 {
	if c == nil {
		return 0
	}
	return c.meter.Level()
}

// Start acquires the input device and begins buffering chunks. A second Start
// while recording is rejected rather than silently restarting.
func (c *captureSession) Start(ctx context.Context) error {
	if c.disabled.Load() {
		return ErrCaptureDisabled
	}
	if !c.IsConfigured() {
		return ErrNoCaptureClient
	}

	if !c.active.CompareAndSwap(false, true) {
		return ErrCaptureActive
	}

	c.mu.Lock()
	c.builder = audio.NewArtifactBuilder(c.client.EncodingInfo())
	c.meter.Reset()
	c.mu.Unlock()

	if err := c.client.StartCapture(ctx, c.handleAudio); err != nil {
		c.active.Store(false)
		c.mu.Lock()
		c.builder = nil
		c.mu.Unlock()

		if errors.Is(err, audio.ErrPermissionDenied) || errors.Is(err, audio.ErrDeviceUnavailable) {
			return err
		}
		return fmt.Errorf("%w: %v", audio.ErrDeviceUnavailable, err)
	}

	return nil
}

// Stop finalizes the buffered chunks into one artifact and releases the
// device. Stopping when no capture is active is a no-op and returns nil, nil.
func (c *captureSession) Stop() (*audio.Artifact, error) {
	if !c.active.CompareAndSwap(true, false) {
		return nil, nil
	}

	if err := c.client.StopCapture(); err != nil {
		// Release failures never block the answer; the artifact is intact.
		log.Printf("Failed to stop capture device: %v", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.meter.Reset()

	builder := c.builder
	c.builder = nil
	if builder == nil {
		return nil, nil
	}

	artifact, err := builder.Finalize()
	if err != nil {
		return nil, fmt.Errorf("failed to finalize capture artifact: %w", err)
	}
	return artifact, nil
}

// Abort stops a recording and discards whatever was buffered, used when a
// timeout supersedes the capture.
func (c *captureSession) Abort() {
	if artifact, err := c.Stop(); err != nil {
		log.Printf("Failed to abort capture cleanly: %v", err)
	} else if artifact != nil && len(artifact.Bytes) > 0 {
		logger.Debug("discarded capture artifact", "bytes", len(artifact.Bytes))
	}
}

// Close releases everything: any in-flight recording is stopped and the
// client itself is closed.
func (c *captureSession) Close() error {
	var errs error
	if c.client != nil && c.IsConfigured() {
		if err := c.client.StopCapture(); err != nil {
			errs = errors.Join(errs, err)
		}
		c.client.Close()
	}
	c.active.Store(false)

	c.mu.Lock()
	c.builder = nil
	c.mu.Unlock()

	return errs
}

func (c *captureSession) handleAudio(chunk []byte) {
	// Monitoring and buffering stop the instant the capture is released.
	if !c.active.Load() {
		return
	}

	c.mu.Lock()
	if c.builder != nil {
		c.builder.Append(chunk)
	}
	c.mu.Unlock()

	level := c.meter.Feed(chunk)
	if c.onFrame != nil {
		c.onFrame(chunk, level)
	}
}
