package interview

type event interface{ kind() string }

type questionRevealedEvent struct{ question Question }
type countdownTickEvent struct{ seconds int }
type bufferCountdownTickEvent struct{ seconds int }
type inputLevelEvent struct{ level float64 }
type captionUpdatedEvent struct{ caption string }
type stateChangedEvent struct{ state State }
type turnResolvedEvent struct{ outcome TurnOutcome }
type sessionCompletedEvent struct{ summary Summary }

func (questionRevealedEvent) kind() string    { return "question_revealed" }
func (countdownTickEvent) kind() string       { return "countdown_tick" }
func (bufferCountdownTickEvent) kind() string { return "buffer_countdown_tick" }
func (inputLevelEvent) kind() string          { return "input_level" }
func (captionUpdatedEvent) kind() string      { return "caption_updated" }
func (stateChangedEvent) kind() string        { return "state_changed" }
func (turnResolvedEvent) kind() string        { return "turn_resolved" }
func (sessionCompletedEvent) kind() string    { return "session_completed" }

type eventEmitter func(event)

func noopEventEmitter(event) {}

func newCallbackEventEmitter(opts RunOptions) eventEmitter {
	return func(ev event) {
		switch typedEvent := ev.(type) {
		case questionRevealedEvent:
			if opts.onQuestion != nil {
				opts.onQuestion(typedEvent.question)
			}
		case countdownTickEvent:
			if opts.onCountdown != nil {
				opts.onCountdown(typedEvent.seconds)
			}
		case bufferCountdownTickEvent:
			if opts.onBufferCountdown != nil {
				opts.onBufferCountdown(typedEvent.seconds)
			}
		case inputLevelEvent:
			if opts.onLevel != nil {
				opts.onLevel(typedEvent.level)
			}
		case captionUpdatedEvent:
			if opts.onCaption != nil {
				opts.onCaption(typedEvent.caption)
			}
		case stateChangedEvent:
			if opts.onStateChanged != nil {
				opts.onStateChanged(typedEvent.state)
			}
		case turnResolvedEvent:
			if opts.onResult != nil {
				opts.onResult(typedEvent.outcome)
			}
		case sessionCompletedEvent:
			if opts.onCompletion != nil {
				opts.onCompletion(typedEvent.summary)
			}
		}
	}
}
