package interview

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vvskad1/interview-core/core/interviews"
	"github.com/vvskad1/interview-core/internal/utils"
)

const (
	proctorEventTabHidden  = "tab_hidden"
	proctorEventTabVisible = "tab_visible"
)

const proctorDispatchTimeout = 10 * time.Second

// proctorReporter emits best-effort presence telemetry. Each transition maps
// to one event, dispatched off the turn timeline; failures are logged and
// swallowed, and lost events are never retried.
type proctorReporter struct {
	client    interviews.Client
	sessionID int64

	baseContext context.Context

	// lastPresent holds the last reported presence: -1 unknown, 0 hidden,
	// 1 visible. Repeated reports of the same presence are deduplicated.
	lastPresent atomic.Int32
}

func newProctorReporter() *proctorReporter {
	reporter := &proctorReporter{baseContext: context.Background()}
	reporter.lastPresent.Store(-1)
	return reporter
}

func (p *proctorReporter) configure(ctx context.Context, client interviews.Client, sessionID int64) {
	if p == nil {
		return
	}

	p.baseContext = ctx
	p.client = client
	p.sessionID = sessionID
	p.lastPresent.Store(-1)
}

func (p *proctorReporter) isConfigured() bool {
	return p != nil && p.client != nil
}

// reportPresence records one presence transition. At most one event is
// emitted per transition; reporting the same presence twice is a no-op.
func (p *proctorReporter) reportPresence(present bool, details map[string]any) {
	if !p.isConfigured() {
		return
	}

	target := int32(0)
	if present {
		target = 1
	}
	if p.lastPresent.Swap(target) == target {
		return
	}

	eventType := proctorEventTabHidden
	if present {
		eventType = proctorEventTabVisible
	}

	go func() {
		ctx, cancel := context.WithTimeout(p.baseContext, proctorDispatchTimeout)
		defer cancel()

		response, err := p.client.RecordProctorEvent(ctx, p.sessionID, interviews.ProctorEvent{
			Type:    eventType,
			Present: utils.Ptr(present),
			Details: details,
		})
		if err != nil {
			logger.Warn("failed to record proctor event", "type", eventType, "error", err)
			return
		}

		logger.Debug("recorded proctor event", "type", eventType, "risk", response.Risk)
	}()
}
