package interview

import (
	"sync/atomic"
	"time"

	"github.com/vvskad1/interview-core/core/audio"
)

// activeTurn is the single turn currently accepting an answer. The resolved
// gate is the tie-break between a capture stop and a deadline expiry: whoever
// wins the CompareAndSwap owns the turn's outcome and the loser is a no-op.
type activeTurn struct {
	question  Question
	startedAt time.Time

	resolvedGate atomic.Bool
}

func newActiveTurn(question Question, startedAt time.Time) *activeTurn {
	return &activeTurn{question: question, startedAt: startedAt}
}

// resolve claims the turn's outcome. It returns true exactly once per turn.
func (t *activeTurn) resolve() bool {
	return t.resolvedGate.CompareAndSwap(false, true)
}

func (t *activeTurn) isResolved() bool {
	return t.resolvedGate.Load()
}

// pendingDispatch is a turn outcome waiting on (or retrying) its backend
// round trip: either an answer artifact or a timeout report. It is discarded
// once the backend accepts it.
type pendingDispatch struct {
	question Question
	timedOut bool
	artifact *audio.Artifact
}
