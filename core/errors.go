package interview

import "errors"

var (
	// ErrCaptureActive is returned when a recording is started while another
	// one is still running; exactly one capture may be active per session.
	ErrCaptureActive = errors.New("capture already active")
	// ErrCaptureDisabled is returned when recording is attempted while the
	// capture session is disabled.
	ErrCaptureDisabled = errors.New("capture disabled")
	// ErrNoCaptureClient is returned when recording is attempted without a
	// configured capture client.
	ErrNoCaptureClient = errors.New("no capture client configured")
	// ErrNotAnswering is returned when recording is attempted outside the
	// answering window of a turn.
	ErrNotAnswering = errors.New("turn is not accepting answers")
	// ErrNothingToResubmit is returned by Resubmit when no failed dispatch is
	// waiting to be retried.
	ErrNothingToResubmit = errors.New("no pending submission to retry")
	// ErrSessionClosed is returned when an operation is attempted after the
	// orchestrator has been closed.
	ErrSessionClosed = errors.New("session closed")
	// ErrSubmissionInFlight is returned by Resubmit while a backend round
	// trip for the pending outcome is still outstanding.
	ErrSubmissionInFlight = errors.New("submission still in flight")
)
