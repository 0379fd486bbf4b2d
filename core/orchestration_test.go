package interview

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vvskad1/interview-core/core/interviews"
	"github.com/vvskad1/interview-core/internal/utils"
)

func TestOrchestratorAnswerFlowWithBufferedReveal(t *testing.T) {
	client := newFakeInterviewClient()
	capture := &fakeCaptureClient{}

	showAt := time.Now().Add(150 * time.Millisecond)
	client.answerResponses = []turnReply{{response: &interviews.TurnResponse{
		Transcript:    "I would use a queue.",
		Score:         utils.Ptr(0.8),
		NextQuestion:  "How would you scale it?",
		NextTurnIndex: 1,
		AnswerSeconds: 60,
		BufferSeconds: 4,
		ShowAtUTC:     &showAt,
	}}}

	orchestrator := NewOrchestrator(
		WithClient(client),
		WithCaptureClient(capture),
		WithTickInterval(10*time.Millisecond),
	)
	defer orchestrator.Close()

	questions := make(chan Question, 8)
	states := make(chan State, 32)
	results := make(chan TurnOutcome, 8)
	countdowns := make(chan int, 256)
	bufferTicks := atomic.Int32{}

	err := orchestrator.Run(context.Background(),
		interviews.StartSessionResponse{
			SessionID:     42,
			Question:      "Design a rate limiter.",
			TurnIndex:     0,
			AnswerSeconds: 30,
			BufferSeconds: 4,
			DeadlineUTC:   time.Now().Add(30 * time.Second),
		},
		WithQuestionCallback(func(question Question) { questions <- question }),
		WithStateChangedCallback(func(state State) { states <- state }),
		WithResultCallback(func(outcome TurnOutcome) { results <- outcome }),
		WithCountdownCallback(func(seconds int) { countdowns <- seconds }),
		WithBufferCountdownCallback(func(int) { bufferTicks.Add(1) }),
	)
	if err != nil {
		t.Fatalf("Failed to run session: %v", err)
	}

	select {
	case first := <-questions:
		if first.TurnIndex != 0 || first.Text != "Design a rate limiter." {
			t.Fatalf("Unexpected first question: %+v", first)
		}
	case <-time.After(time.Second):
		t.Fatal("First question was never revealed")
	}

	select {
	case seconds := <-countdowns:
		if seconds < 28 || seconds > 30 {
			t.Fatalf("Expected a countdown near 30 seconds, got %d", seconds)
		}
	case <-time.After(time.Second):
		t.Fatal("Countdown never ticked")
	}

	if err := orchestrator.StartRecording(); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	if !orchestrator.IsRecording() {
		t.Fatal("Expected the session to be recording")
	}
	capture.emit(make([]byte, 3200))

	if err := orchestrator.StopRecording(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}

	select {
	case <-client.answered:
	case <-time.After(time.Second):
		t.Fatal("Answer was never submitted")
	}

	client.mu.Lock()
	submitted := client.answerCalls[0]
	client.mu.Unlock()
	if submitted.sessionID != 42 || submitted.turnIndex != 0 || submitted.question != "Design a rate limiter." {
		t.Fatalf("Unexpected submission: %+v", submitted)
	}
	if submitted.artifact == nil || len(submitted.artifact.Bytes) <= 44 {
		t.Fatal("Expected the submission to carry the capture artifact")
	}

	select {
	case outcome := <-results:
		if outcome.TimedOut || outcome.Transcript != "I would use a queue." || outcome.TurnIndex != 0 {
			t.Fatalf("Unexpected outcome: %+v", outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("Turn was never resolved")
	}

	// The next question is deferred to the server's reveal instant.
	select {
	case next := <-questions:
		if revealedAt := time.Now(); revealedAt.Before(showAt.Add(-20 * time.Millisecond)) {
			t.Fatalf("Question revealed %v early", showAt.Sub(revealedAt))
		}
		if next.TurnIndex != 1 || next.Text != "How would you scale it?" {
			t.Fatalf("Unexpected next question: %+v", next)
		}
		if got, want := next.Deadline, showAt.Add(60*time.Second); !got.Equal(want) {
			t.Fatalf("Expected the next deadline anchored to the reveal instant, got %v want %v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next question was never revealed")
	}

	if bufferTicks.Load() == 0 {
		t.Fatal("Expected buffer countdown ticks while waiting on the reveal")
	}

	sawBuffering := false
	for done := false; !done; {
		select {
		case state := <-states:
			if state == StateBuffering {
				sawBuffering = true
			}
			if state == StateAnswering && sawBuffering {
				done = true
			}
		default:
			done = true
		}
	}
	if !sawBuffering {
		t.Fatal("Expected the session to pass through the buffering state")
	}

	view := orchestrator.Snapshot()
	if view.State != StateAnswering || view.SessionID != 42 {
		t.Fatalf("Unexpected snapshot: %+v", view)
	}
	if len(view.History) != 1 || view.History[0].Index != 0 {
		t.Fatalf("Expected one resolved turn in history, got %+v", view.History)
	}
}

func TestOrchestratorTimeoutSubmitsOnce(t *testing.T) {
	client := newFakeInterviewClient()
	client.timeoutResponses = []turnReply{{response: &interviews.TurnResponse{
		Complete: true,
	}}}

	orchestrator := NewOrchestrator(
		WithClient(client),
		WithTickInterval(10*time.Millisecond),
	)
	defer orchestrator.Close()

	summaries := make(chan Summary, 1)
	err := orchestrator.Run(context.Background(),
		interviews.StartSessionResponse{
			SessionID:   7,
			Question:    "Tell me about a hard bug.",
			TurnIndex:   3,
			DeadlineUTC: time.Now(),
		},
		WithCompletionCallback(func(summary Summary) { summaries <- summary }),
	)
	if err != nil {
		t.Fatalf("Failed to run session: %v", err)
	}

	select {
	case <-client.timedOut:
	case <-time.After(time.Second):
		t.Fatal("Timeout was never reported")
	}

	select {
	case summary := <-summaries:
		if summary.SessionID != 7 {
			t.Fatalf("Unexpected summary session: %d", summary.SessionID)
		}
		if len(summary.Turns) != 1 || !summary.Turns[0].TimedOut || summary.Turns[0].Index != 3 {
			t.Fatalf("Unexpected summary turns: %+v", summary.Turns)
		}
	case <-time.After(time.Second):
		t.Fatal("Session never completed")
	}

	if state := orchestrator.State(); state != StateComplete {
		t.Fatalf("Expected a complete session, got %q", state)
	}

	// Exactly one report per expiry.
	select {
	case <-client.timedOut:
		t.Fatal("Timeout was reported more than once")
	case <-time.After(50 * time.Millisecond):
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.timeoutCalls) != 1 || client.timeoutCalls[0] != 3 {
		t.Fatalf("Expected one timeout for turn 3, got %v", client.timeoutCalls)
	}
}

func TestOrchestratorLateStopLosesToExpiry(t *testing.T) {
	client := newFakeInterviewClient()
	client.timeoutResponses = []turnReply{{response: &interviews.TurnResponse{Complete: true}}}
	capture := &fakeCaptureClient{}

	base := time.Now()
	current := atomic.Pointer[time.Time]{}
	current.Store(&base)

	orchestrator := NewOrchestrator(
		WithClient(client),
		WithCaptureClient(capture),
		WithClock(func() time.Time { return *current.Load() }),
		WithTickInterval(10*time.Millisecond),
	)
	defer orchestrator.Close()

	err := orchestrator.Run(context.Background(), interviews.StartSessionResponse{
		SessionID:   42,
		Question:    "Walk me through your last incident.",
		TurnIndex:   0,
		DeadlineUTC: base.Add(5 * time.Second),
	})
	if err != nil {
		t.Fatalf("Failed to run session: %v", err)
	}

	if err := orchestrator.StartRecording(); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	capture.emit(make([]byte, 640))

	// Push the clock past the deadline and let the expiry claim the turn.
	expired := base.Add(6 * time.Second)
	current.Store(&expired)

	select {
	case <-client.timedOut:
	case <-time.After(time.Second):
		t.Fatal("Expiry never fired")
	}

	// The stop arrives after the expiry already owns the outcome; its
	// artifact must be discarded, never submitted.
	if err := orchestrator.StopRecording(); err != nil {
		t.Fatalf("Late stop should be a quiet no-op, got %v", err)
	}

	select {
	case <-client.answered:
		t.Fatal("Late artifact was submitted after a timeout")
	case <-time.After(50 * time.Millisecond):
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.timeoutCalls) != 1 {
		t.Fatalf("Expected exactly one timeout report, got %d", len(client.timeoutCalls))
	}
}

func TestOrchestratorResubmitRetriesFailedDispatch(t *testing.T) {
	client := newFakeInterviewClient()
	capture := &fakeCaptureClient{}
	client.answerResponses = []turnReply{
		{err: errors.New("gateway timeout")},
		{response: &interviews.TurnResponse{Transcript: "done", Complete: true}},
	}

	orchestrator := NewOrchestrator(
		WithClient(client),
		WithCaptureClient(capture),
		WithTickInterval(10*time.Millisecond),
	)
	defer orchestrator.Close()

	errs := make(chan error, 8)
	results := make(chan TurnOutcome, 8)
	err := orchestrator.Run(context.Background(),
		interviews.StartSessionResponse{
			SessionID:   42,
			Question:    "Why Go?",
			TurnIndex:   0,
			DeadlineUTC: time.Now().Add(time.Minute),
		},
		WithErrorCallback(func(err error) { errs <- err }),
		WithResultCallback(func(outcome TurnOutcome) { results <- outcome }),
	)
	if err != nil {
		t.Fatalf("Failed to run session: %v", err)
	}

	if err := orchestrator.StartRecording(); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	capture.emit(make([]byte, 640))
	if err := orchestrator.StopRecording(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}

	select {
	case <-errs:
	case <-time.After(time.Second):
		t.Fatal("Failed submission never surfaced an error")
	}

	// The engine holds position instead of advancing or retrying on its own.
	<-client.answered
	if state := orchestrator.State(); state != StateProcessing {
		t.Fatalf("Expected the session to stay in processing, got %q", state)
	}
	select {
	case <-client.answered:
		t.Fatal("Submission was retried without an explicit resubmit")
	case <-time.After(50 * time.Millisecond):
	}

	if err := orchestrator.Resubmit(); err != nil {
		t.Fatalf("Failed to resubmit: %v", err)
	}

	select {
	case outcome := <-results:
		if outcome.Transcript != "done" || outcome.TurnIndex != 0 {
			t.Fatalf("Unexpected outcome after resubmit: %+v", outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("Resubmit never resolved the turn")
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.answerCalls) != 2 || client.answerCalls[1].turnIndex != 0 {
		t.Fatalf("Expected two submissions of the same turn, got %+v", client.answerCalls)
	}
}

func TestOrchestratorResubmitWhileRoundTripOutstanding(t *testing.T) {
	client := newFakeInterviewClient()
	client.answerHold = make(chan struct{})
	client.answerResponses = []turnReply{{response: &interviews.TurnResponse{
		Transcript: "done",
		Complete:   true,
	}}}
	capture := &fakeCaptureClient{}

	orchestrator := NewOrchestrator(
		WithClient(client),
		WithCaptureClient(capture),
		WithTickInterval(10*time.Millisecond),
	)
	defer orchestrator.Close()

	results := make(chan TurnOutcome, 8)
	err := orchestrator.Run(context.Background(),
		interviews.StartSessionResponse{
			SessionID:   42,
			Question:    "Why Go?",
			TurnIndex:   0,
			DeadlineUTC: time.Now().Add(time.Minute),
		},
		WithResultCallback(func(outcome TurnOutcome) { results <- outcome }),
	)
	if err != nil {
		t.Fatalf("Failed to run session: %v", err)
	}

	if err := orchestrator.StartRecording(); err != nil {
		t.Fatalf("Failed to start recording: %v", err)
	}
	capture.emit(make([]byte, 640))
	if err := orchestrator.StopRecording(); err != nil {
		t.Fatalf("Failed to stop recording: %v", err)
	}

	select {
	case <-client.answered:
	case <-time.After(time.Second):
		t.Fatal("Answer was never submitted")
	}

	// The round trip is held open; a retry now would double the submission.
	if err := orchestrator.Resubmit(); !errors.Is(err, ErrSubmissionInFlight) {
		t.Fatalf("Expected ErrSubmissionInFlight while the round trip is outstanding, got %v", err)
	}

	close(client.answerHold)

	select {
	case outcome := <-results:
		if outcome.TurnIndex != 0 || outcome.Transcript != "done" {
			t.Fatalf("Unexpected outcome: %+v", outcome)
		}
	case <-time.After(time.Second):
		t.Fatal("Turn was never resolved")
	}
	select {
	case <-results:
		t.Fatal("Turn was resolved more than once")
	case <-time.After(50 * time.Millisecond):
	}

	if history := orchestrator.Snapshot().History; len(history) != 1 {
		t.Fatalf("Expected one history record, got %+v", history)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.answerCalls) != 1 {
		t.Fatalf("Expected exactly one submission, got %d", len(client.answerCalls))
	}
}

func TestOrchestratorResubmitWithNothingPending(t *testing.T) {
	orchestrator := NewOrchestrator(WithClient(newFakeInterviewClient()))
	defer orchestrator.Close()

	if err := orchestrator.Resubmit(); !errors.Is(err, ErrNothingToResubmit) {
		t.Fatalf("Expected ErrNothingToResubmit, got %v", err)
	}
}

func TestOrchestratorRecordingOutsideAnsweringWindow(t *testing.T) {
	orchestrator := NewOrchestrator(
		WithClient(newFakeInterviewClient()),
		WithCaptureClient(&fakeCaptureClient{}),
	)
	defer orchestrator.Close()

	if err := orchestrator.StartRecording(); !errors.Is(err, ErrNotAnswering) {
		t.Fatalf("Expected ErrNotAnswering before the session starts, got %v", err)
	}
	if err := orchestrator.StopRecording(); err != nil {
		t.Fatalf("Expected an idle stop to be a no-op, got %v", err)
	}
}

func TestOrchestratorExpiryDuringDeviceAcquisition(t *testing.T) {
	client := newFakeInterviewClient()
	client.timeoutResponses = []turnReply{{response: &interviews.TurnResponse{Complete: true}}}
	capture := &fakeCaptureClient{startHold: make(chan struct{})}

	base := time.Now()
	current := atomic.Pointer[time.Time]{}
	current.Store(&base)

	orchestrator := NewOrchestrator(
		WithClient(client),
		WithCaptureClient(capture),
		WithClock(func() time.Time { return *current.Load() }),
		WithTickInterval(10*time.Millisecond),
	)
	defer orchestrator.Close()

	err := orchestrator.Run(context.Background(), interviews.StartSessionResponse{
		SessionID:   42,
		Question:    "Explain channels.",
		TurnIndex:   0,
		DeadlineUTC: base.Add(5 * time.Second),
	})
	if err != nil {
		t.Fatalf("Failed to run session: %v", err)
	}

	startErrs := make(chan error, 1)
	go func() { startErrs <- orchestrator.StartRecording() }()

	for deadline := time.Now().Add(time.Second); capture.startCalls.Load() == 0; {
		if time.Now().After(deadline) {
			t.Fatal("Device acquisition never started")
		}
		time.Sleep(time.Millisecond)
	}

	// Expire the deadline while the acquisition is still underway.
	expired := base.Add(6 * time.Second)
	current.Store(&expired)
	select {
	case <-client.timedOut:
	case <-time.After(time.Second):
		t.Fatal("Expiry never fired")
	}

	close(capture.startHold)

	select {
	case err := <-startErrs:
		if !errors.Is(err, ErrNotAnswering) {
			t.Fatalf("Expected ErrNotAnswering after the expiry claimed the turn, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("StartRecording never returned")
	}

	if orchestrator.IsRecording() {
		t.Fatal("Microphone stayed open after the turn expired")
	}
	if capture.stopCalls.Load() == 0 {
		t.Fatal("Expected the device to be released")
	}
}

func TestOrchestratorReportsPresenceTransitions(t *testing.T) {
	client := newFakeInterviewClient()

	orchestrator := NewOrchestrator(WithClient(client))
	defer orchestrator.Close()

	err := orchestrator.Run(context.Background(), interviews.StartSessionResponse{
		SessionID:   42,
		Question:    "What is a goroutine?",
		TurnIndex:   0,
		DeadlineUTC: time.Now().Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Failed to run session: %v", err)
	}

	orchestrator.ReportPresence(false, nil)
	select {
	case <-client.proctored:
	case <-time.After(time.Second):
		t.Fatal("Presence transition was never reported")
	}

	events := client.recordedProctorEvents()
	if len(events) != 1 || events[0].Type != "tab_hidden" {
		t.Fatalf("Unexpected proctor events: %+v", events)
	}
}

func TestOrchestratorCloseAfterRun(t *testing.T) {
	client := newFakeInterviewClient()
	capture := &fakeCaptureClient{}

	orchestrator := NewOrchestrator(
		WithClient(client),
		WithCaptureClient(capture),
		WithTickInterval(10*time.Millisecond),
	)

	err := orchestrator.Run(context.Background(), interviews.StartSessionResponse{
		SessionID:   42,
		Question:    "Describe your ideal team.",
		TurnIndex:   0,
		DeadlineUTC: time.Now().Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("Failed to run session: %v", err)
	}

	orchestrator.Close()
	orchestrator.Close()

	if capture.closeCalls.Load() != 1 {
		t.Fatalf("Expected the capture client to be closed once, got %d", capture.closeCalls.Load())
	}
	if err := orchestrator.Run(context.Background(), interviews.StartSessionResponse{}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("Expected ErrSessionClosed on a reused orchestrator, got %v", err)
	}
}
