package interview

import "time"

// State is the engine's position in the turn lifecycle. Answering accepts
// capture; Processing and TimedOut wait on the backend; Buffering waits on a
// server-scheduled reveal; Complete is terminal for the session.
type State string

const (
	StateIdle       State = "idle"
	StateAnswering  State = "answering"
	StateProcessing State = "processing"
	StateTimedOut   State = "timed_out"
	StateBuffering  State = "buffering"
	StateComplete   State = "complete"
)

func (s State) Terminal() bool { return s == StateComplete }

// Question describes one issued turn. The deadline is the server's absolute
// instant; the countdown is always derived from it, never from a locally
// counted AnswerSeconds.
type Question struct {
	Text          string
	TurnIndex     int
	AnswerSeconds int
	BufferSeconds int
	Deadline      time.Time
}

// TurnOutcome is reported once per resolved turn, for both the answered and
// the timed-out path; the two are distinguished only by TimedOut.
type TurnOutcome struct {
	TurnIndex  int
	Question   string
	TimedOut   bool
	Transcript string
	Score      *float64
	Complete   bool
}

// TurnRecord is the retained history entry for a resolved turn.
type TurnRecord struct {
	Index      int
	Question   string
	TimedOut   bool
	Transcript string
	Score      *float64
	ResolvedAt time.Time
}

// Summary describes a completed session.
type Summary struct {
	SessionID       int64
	Turns           []TurnRecord
	FinalTranscript string
}

// SessionView is a point-in-time snapshot of session state.
type SessionView struct {
	SessionID        int64
	State            State
	Question         *Question
	SecondsRemaining int
	Recording        bool
	History          []TurnRecord
}
