package interview

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vvskad1/interview-core/core/interviews"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Orchestrator drives one interview session: it owns the current turn and its
// deadline, the capture session, and the buffered reveal of the next
// question. All turn state is in memory and discarded with the orchestrator;
// at most one turn is active at any instant.
type Orchestrator struct {
	client interviews.Client

	// capture is the input facade that owns the microphone per recording.
	capture *captureSession
	// captions is the optional display-only caption facade.
	captions captionFeed
	proctor  *proctorReporter
	timer    *deadlineTimer

	clock        func() time.Time
	tickInterval time.Duration

	emitEvent  eventEmitter
	runOptions RunOptions

	// dispatching is held from the moment a backend round trip is launched
	// until it fails or its response is applied. It keeps Resubmit from
	// racing a round trip that is still outstanding.
	dispatching atomic.Bool

	mu             sync.Mutex
	state          State
	sessionID      int64
	turn           *activeTurn
	pending        *pendingDispatch
	revealCancel   chan struct{}
	lastTranscript string

	history turnHistory

	baseContext context.Context
	closeOnce   sync.Once
	closed      chan struct{}
}

func NewOrchestrator(opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		clock:        time.Now,
		tickInterval: time.Second,
		emitEvent:    noopEventEmitter,
		state:        StateIdle,
		capture:      newCaptureSession(),
		captions:     newCaptionFeed(),
		proctor:      newProctorReporter(),
		baseContext:  context.Background(),
		closed:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(o)
	}

	o.timer = newDeadlineTimer(o.clock, o.tickInterval)
	o.capture.onFrame = o.handleInputFrame

	return o
}

// Run installs the session's first turn and enters the answering state.
//
// ctx is used as a base context for submissions and telemetry, allowing for
// cancellation; cancelling it closes the orchestrator.
//
// Contract: call Run at most once per orchestrator instance.
func (o *Orchestrator) Run(ctx context.Context, start interviews.StartSessionResponse, opts ...RunOption) error {
	if o.isClosed() {
		return ErrSessionClosed
	}
	if o.client == nil {
		return fmt.Errorf("no interview client configured")
	}

	o.runOptions = RunOptions{}
	for _, opt := range opts {
		opt(&o.runOptions)
	}
	o.emitEvent = newCallbackEventEmitter(o.runOptions)
	o.captions.setEventEmitter(o.emitEvent)

	o.baseContext = ctx
	o.proctor.configure(ctx, o.client, start.SessionID)

	o.mu.Lock()
	o.sessionID = start.SessionID
	o.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			o.Close()
		case <-o.closed:
		}
	}()

	o.beginTurn(Question{
		Text:          start.Question,
		TurnIndex:     start.TurnIndex,
		AnswerSeconds: start.AnswerSeconds,
		BufferSeconds: start.BufferSeconds,
		Deadline:      start.DeadlineUTC,
	})

	return nil
}

// StartRecording acquires the microphone for the current turn. It fails with
// ErrNotAnswering outside the answering window and with ErrCaptureActive if a
// recording is already running.
func (o *Orchestrator) StartRecording() error {
	o.mu.Lock()
	state := o.state
	o.mu.Unlock()
	if state != StateAnswering {
		return ErrNotAnswering
	}

	if err := o.capture.Start(o.baseContext); err != nil {
		return err
	}

	// The deadline may have expired while the device was being acquired;
	// the microphone must not stay open for a turn that is already claimed.
	o.mu.Lock()
	turn := o.turn
	stillAnswering := o.state == StateAnswering && turn != nil && !turn.isResolved()
	o.mu.Unlock()
	if !stillAnswering {
		o.capture.Abort()
		return ErrNotAnswering
	}

	if o.captions.isConfigured() {
		if err := o.captions.start(o.baseContext, o.capture.EncodingInfo()); err != nil {
			// Captions are cosmetic; the recording proceeds without them.
			log.Printf("Failed to start caption stream: %v", err)
		}
	}

	return nil
}

// StopRecording finalizes the capture into one artifact and submits it. If
// the deadline expired first, the late artifact is discarded and no duplicate
// submission happens.
func (o *Orchestrator) StopRecording() error {
	artifact, err := o.capture.Stop()
	if closeErr := o.captions.close(); closeErr != nil {
		log.Printf("Failed to close caption stream: %v", closeErr)
	}
	if err != nil {
		return err
	}
	if artifact == nil {
		return nil
	}

	o.mu.Lock()
	turn := o.turn
	if turn == nil || !turn.resolve() {
		// The timeout path already owns this turn's outcome.
		o.mu.Unlock()
		return nil
	}

	o.timer.disarm()
	o.state = StateProcessing
	dispatch := pendingDispatch{question: turn.question, artifact: artifact}
	o.pending = &dispatch
	o.dispatching.Store(true)
	o.mu.Unlock()

	o.emitEvent(stateChangedEvent{state: StateProcessing})
	go o.dispatch(dispatch)

	return nil
}

// Resubmit retries the last failed backend dispatch, answer or timeout, with
// the retained artifact. Nothing is retried automatically, and a round trip
// that is still outstanding cannot be doubled up.
func (o *Orchestrator) Resubmit() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pending == nil {
		return ErrNothingToResubmit
	}
	if !o.dispatching.CompareAndSwap(false, true) {
		return ErrSubmissionInFlight
	}

	go o.dispatch(*o.pending)
	return nil
}

// ReportPresence forwards a presence transition to the proctor reporter. It
// never blocks and has no effect on the turn timeline.
func (o *Orchestrator) ReportPresence(present bool, details map[string]any) {
	o.proctor.reportPresence(present, details)
}

func (o *Orchestrator) IsRecording() bool { return o.capture.IsActive() }

func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) SecondsRemaining() int { return o.timer.secondsRemaining() }

// History iterates over the resolved turns from earliest to latest.
func (o *Orchestrator) History(yield func(TurnRecord) bool) {
	o.history.Values(yield)
}

// Snapshot returns a point-in-time view of session state.
func (o *Orchestrator) Snapshot() SessionView {
	o.mu.Lock()
	view := SessionView{
		SessionID:        o.sessionID,
		State:            o.state,
		SecondsRemaining: o.timer.secondsRemaining(),
	}
	if o.turn != nil {
		question := o.turn.question
		view.Question = &question
	}
	o.mu.Unlock()

	view.Recording = o.capture.IsActive()
	view.History = o.history.Snapshot()
	return view
}

// Close tears the session down: the timer is disarmed, the microphone and
// caption stream are released, and any deferred reveal is cancelled. Safe to
// call multiple times.
func (o *Orchestrator) Close() {
	o.closeOnce.Do(func() {
		close(o.closed)

		o.mu.Lock()
		o.timer.disarm()
		o.cancelRevealLocked()
		o.turn = nil
		o.pending = nil
		o.mu.Unlock()

		if err := o.capture.Close(); err != nil {
			recordedErr := fmt.Errorf("failed to close capture session: %w", err)
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}

		if err := o.captions.close(); err != nil {
			recordedErr := fmt.Errorf("failed to close caption client: %w", err)
			span := trace.SpanFromContext(o.baseContext)
			span.RecordError(recordedErr)
			span.SetStatus(codes.Error, recordedErr.Error())
		}
	})
}

func (o *Orchestrator) isClosed() bool {
	select {
	case <-o.closed:
		return true
	default:
		return false
	}
}

func (o *Orchestrator) beginTurn(question Question) {
	if o.isClosed() {
		return
	}

	turn := newActiveTurn(question, o.clock())

	o.mu.Lock()
	o.turn = turn
	o.state = StateAnswering
	o.mu.Unlock()

	o.emitEvent(stateChangedEvent{state: StateAnswering})
	o.emitEvent(questionRevealedEvent{question: question})

	o.timer.arm(question.Deadline,
		func(secondsRemaining int) {
			o.emitEvent(countdownTickEvent{seconds: secondsRemaining})
		},
		func() { o.handleExpiry(turn) },
	)

	// A Close that raced the arm wins.
	if o.isClosed() {
		o.timer.disarm()
	}
}

// handleExpiry is the timeout trigger: it claims the turn, discards any
// in-flight capture, and reports the timeout to the backend.
func (o *Orchestrator) handleExpiry(turn *activeTurn) {
	if turn == nil || !turn.resolve() {
		// A submission got there first; the expiry is a no-op.
		return
	}

	o.capture.Abort()
	if err := o.captions.close(); err != nil {
		log.Printf("Failed to close caption stream: %v", err)
	}

	o.mu.Lock()
	o.timer.disarm()
	o.state = StateTimedOut
	dispatch := pendingDispatch{question: turn.question, timedOut: true}
	o.pending = &dispatch
	o.dispatching.Store(true)
	o.mu.Unlock()

	o.emitEvent(stateChangedEvent{state: StateTimedOut})
	go o.dispatch(dispatch)
}

// dispatch performs one backend round trip for a resolved turn. On failure,
// the dispatch stays pending so the user can trigger Resubmit; the turn index
// never advances on a failed call.
func (o *Orchestrator) dispatch(d pendingDispatch) {
	ctx, span := tracer.Start(o.baseContext, "resolve turn")
	defer span.End()
	span.SetAttributes(
		attribute.Int("turn.index", d.question.TurnIndex),
		attribute.Bool("turn.timed_out", d.timedOut),
	)

	var response *interviews.TurnResponse
	var err error
	if d.timedOut {
		response, err = o.client.SubmitTimeout(ctx, o.sessionID, d.question.TurnIndex)
	} else {
		response, err = o.client.SubmitAnswer(ctx, o.sessionID, d.artifact, d.question.Text, d.question.TurnIndex)
	}
	if err != nil {
		err = fmt.Errorf("failed to resolve turn %d: %w", d.question.TurnIndex, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		// Release the round trip before surfacing so an error handler may
		// immediately retry.
		o.dispatching.Store(false)
		o.surfaceError(err)
		return
	}

	o.handleTurnResponse(d, response)
	o.dispatching.Store(false)
}

// handleTurnResponse applies the shared answer/timeout response shape: record
// the outcome, then either finish the session or schedule the buffered
// reveal of the next question.
func (o *Orchestrator) handleTurnResponse(d pendingDispatch, response *interviews.TurnResponse) {
	if o.isClosed() {
		return
	}

	o.mu.Lock()
	if o.pending == nil {
		// The session moved on while the round trip was outstanding; a late
		// response is dropped rather than applied twice.
		o.mu.Unlock()
		return
	}
	o.pending = nil
	o.turn = nil
	if response.Transcript != "" {
		o.lastTranscript = response.Transcript
	}
	o.mu.Unlock()

	o.history.Push(TurnRecord{
		Index:      d.question.TurnIndex,
		Question:   d.question.Text,
		TimedOut:   d.timedOut,
		Transcript: response.Transcript,
		Score:      response.Score,
		ResolvedAt: o.clock(),
	})

	o.emitEvent(turnResolvedEvent{outcome: TurnOutcome{
		TurnIndex:  d.question.TurnIndex,
		Question:   d.question.Text,
		TimedOut:   d.timedOut,
		Transcript: response.Transcript,
		Score:      response.Score,
		Complete:   response.Complete,
	}})

	if response.Complete {
		o.completeSession()
		return
	}

	o.scheduleReveal(response)
}

func (o *Orchestrator) completeSession() {
	o.mu.Lock()
	o.timer.disarm()
	o.cancelRevealLocked()
	o.state = StateComplete
	summary := Summary{
		SessionID:       o.sessionID,
		FinalTranscript: o.lastTranscript,
	}
	o.mu.Unlock()

	o.capture.Abort()
	summary.Turns = o.history.Snapshot()

	o.emitEvent(stateChangedEvent{state: StateComplete})
	o.emitEvent(sessionCompletedEvent{summary: summary})
}

// scheduleReveal enters the buffering state and defers the next turn until
// the server's show-at instant. The reveal time is the server's, not a fixed
// client delay, so question-generation latency never causes a premature
// reveal. A reveal already scheduled is cancelled before the new one is
// installed.
func (o *Orchestrator) scheduleReveal(response *interviews.TurnResponse) {
	showAt := o.clock()
	if response.ShowAtUTC != nil {
		showAt = *response.ShowAtUTC
	}

	next := Question{
		Text:          response.NextQuestion,
		TurnIndex:     response.NextTurnIndex,
		AnswerSeconds: response.AnswerSeconds,
		BufferSeconds: response.BufferSeconds,
		// The next deadline is anchored to the reveal instant, matching how
		// the backend stamps the next turn.
		Deadline: showAt.Add(time.Duration(response.AnswerSeconds) * time.Second),
	}

	o.mu.Lock()
	o.cancelRevealLocked()
	cancel := make(chan struct{})
	o.revealCancel = cancel
	o.state = StateBuffering
	o.mu.Unlock()

	o.emitEvent(stateChangedEvent{state: StateBuffering})

	go o.runReveal(next, showAt, cancel)
}

func (o *Orchestrator) runReveal(next Question, showAt time.Time, cancel chan struct{}) {
	for {
		remaining := showAt.Sub(o.clock())
		o.emitEvent(bufferCountdownTickEvent{seconds: max(0, int(remaining/time.Second))})

		if remaining <= 0 {
			break
		}

		wait := min(remaining, o.tickInterval)
		timer := time.NewTimer(wait)
		select {
		case <-cancel:
			timer.Stop()
			return
		case <-o.closed:
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	select {
	case <-cancel:
		return
	default:
	}

	o.beginTurn(next)
}

func (o *Orchestrator) cancelRevealLocked() {
	if o.revealCancel != nil {
		close(o.revealCancel)
		o.revealCancel = nil
	}
}

func (o *Orchestrator) handleInputFrame(chunk []byte, level float64) {
	o.emitEvent(inputLevelEvent{level: level})

	if err := o.captions.sendAudio(chunk); err != nil {
		log.Printf("Failed to send audio to caption stream: %v", err)
	}
}

func (o *Orchestrator) surfaceError(err error) {
	if o.runOptions.onError != nil {
		o.runOptions.onError(err)
		return
	}
	log.Printf("Unhandled session error: %v", err)
}
