package interviews

import (
	"context"
	"time"

	"github.com/vvskad1/interview-core/core/audio"
)

// StartSessionResponse describes the first turn of a freshly started session.
// The deadline is an absolute server instant; clients derive their countdown
// from it rather than counting AnswerSeconds locally.
type StartSessionResponse struct {
	SessionID     int64     `json:"session_id"`
	Question      string    `json:"question"`
	TurnIndex     int       `json:"turn_idx"`
	AnswerSeconds int       `json:"answer_seconds"`
	BufferSeconds int       `json:"buffer_seconds"`
	DeadlineUTC   time.Time `json:"deadline_utc"`
}

// TurnResponse is the shared shape of answer and timeout submissions. When
// Complete is false the next-question fields are populated and ShowAtUTC
// schedules the buffered reveal.
type TurnResponse struct {
	Transcript    string     `json:"transcript,omitempty"`
	Score         *float64   `json:"score,omitempty"`
	Missing       []string   `json:"missing,omitempty"`
	Complete      bool       `json:"complete"`
	NextQuestion  string     `json:"next_question,omitempty"`
	NextTurnIndex int        `json:"next_turn_idx,omitempty"`
	AnswerSeconds int        `json:"answer_seconds,omitempty"`
	BufferSeconds int        `json:"buffer_seconds,omitempty"`
	ShowAtUTC     *time.Time `json:"show_at_utc,omitempty"`
}

// ProctorEvent is one point-in-time integrity signal. Delivery is best
// effort; the engine never retries a lost event.
type ProctorEvent struct {
	Type    string         `json:"type"`
	Present *bool          `json:"present,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

type ProctorResponse struct {
	Risk float64 `json:"risk"`
}

// Client is the interview backend as seen by the session engine: session
// start, the two turn-resolution calls, and proctor telemetry. Transcription
// and scoring live entirely behind these calls.
type Client interface {
	StartSession(ctx context.Context, inviteID int64) (*StartSessionResponse, error)
	SubmitAnswer(ctx context.Context, sessionID int64, artifact *audio.Artifact, question string, turnIndex int) (*TurnResponse, error)
	SubmitTimeout(ctx context.Context, sessionID int64, turnIndex int) (*TurnResponse, error)
	RecordProctorEvent(ctx context.Context, sessionID int64, event ProctorEvent) (*ProctorResponse, error)
}
