package interview

import (
	"context"
	"time"

	"github.com/vvskad1/interview-core/core/audio"
	"github.com/vvskad1/interview-core/core/captions"
	"github.com/vvskad1/interview-core/core/interviews"
)

type OrchestratorOption func(*Orchestrator)

// CaptureClient is an audio input that can be started and stopped around a
// single recording. Implementations must release the device on StopCapture
// and fully on Close.
type CaptureClient interface {
	EncodingInfo() audio.EncodingInfo
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	Close()
}

func WithCaptureClient(client CaptureClient) OrchestratorOption {
	return func(o *Orchestrator) { o.capture.Set(client) }
}

// CaptionClient streams capture audio out for a display-only caption preview.
type CaptionClient interface {
	Stream(ctx context.Context, opts ...captions.CaptionOption) error
	SendAudio(audio []byte) error
}

func WithCaptionClient(client CaptionClient) OrchestratorOption {
	return func(o *Orchestrator) { o.captions.set(client) }
}

func WithClient(client interviews.Client) OrchestratorOption {
	return func(o *Orchestrator) { o.client = client }
}

// WithClock overrides the wall clock, used by tests to shift deadlines.
func WithClock(clock func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithTickInterval overrides the countdown recomputation interval. The
// default of one second matches the display cadence; tests shrink it.
func WithTickInterval(interval time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if interval > 0 {
			o.tickInterval = interval
		}
	}
}

// WithCaptureDisabled starts the session with recording disabled, used while
// an environment check is still pending.
func WithCaptureDisabled() OrchestratorOption {
	return func(o *Orchestrator) { o.capture.Disable() }
}

type RunOptions struct {
	onQuestion        func(question Question)
	onCountdown       func(secondsRemaining int)
	onBufferCountdown func(secondsRemaining int)
	onLevel           func(level float64)
	onCaption         func(caption string)
	onStateChanged    func(state State)
	onResult          func(outcome TurnOutcome)
	onCompletion      func(summary Summary)
	onError           func(err error)
}

type RunOption func(*RunOptions)

// WithQuestionCallback registers a callback for each revealed question,
// including the first one installed by Run.
func WithQuestionCallback(callback func(question Question)) RunOption {
	return func(o *RunOptions) {
		o.onQuestion = callback
	}
}

// WithCountdownCallback registers a callback for the per-second answer
// countdown. Values are whole seconds remaining until the turn deadline,
// recomputed from the server's absolute instant each tick.
func WithCountdownCallback(callback func(secondsRemaining int)) RunOption {
	return func(o *RunOptions) {
		o.onCountdown = callback
	}
}

// WithBufferCountdownCallback registers a callback for the seconds remaining
// until a buffered question reveal.
func WithBufferCountdownCallback(callback func(secondsRemaining int)) RunOption {
	return func(o *RunOptions) {
		o.onBufferCountdown = callback
	}
}

// WithLevelCallback registers a callback for the normalized 0..1 input level
// while a capture is active. The callback runs inline on the capture path and
// should not block.
func WithLevelCallback(callback func(level float64)) RunOption {
	return func(o *RunOptions) {
		o.onLevel = callback
	}
}

// WithCaptionCallback registers a callback for the live caption preview. It
// only fires when a caption client is configured; the text is cosmetic and is
// never submitted.
func WithCaptionCallback(callback func(caption string)) RunOption {
	return func(o *RunOptions) {
		o.onCaption = callback
	}
}

func WithStateChangedCallback(callback func(state State)) RunOption {
	return func(o *RunOptions) {
		o.onStateChanged = callback
	}
}

// WithResultCallback registers a callback for each resolved turn, answered or
// timed out.
func WithResultCallback(callback func(outcome TurnOutcome)) RunOption {
	return func(o *RunOptions) {
		o.onResult = callback
	}
}

func WithCompletionCallback(callback func(summary Summary)) RunOption {
	return func(o *RunOptions) {
		o.onCompletion = callback
	}
}

// WithErrorCallback registers a callback for recoverable errors surfaced by
// the engine (failed submissions, capture failures). The engine never
// advances a turn on its own after surfacing one.
func WithErrorCallback(callback func(err error)) RunOption {
	return func(o *RunOptions) {
		o.onError = callback
	}
}
