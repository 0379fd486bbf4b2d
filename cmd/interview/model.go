package main

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	interview "github.com/vvskad1/interview-core/core"
)

// Engine messages, delivered through the bubbletea loop via the event
// channel so the session callbacks never touch the model directly.
type questionMsg struct{ question interview.Question }
type countdownMsg struct{ seconds int }
type bufferCountdownMsg struct{ seconds int }
type levelMsg struct{ level float64 }
type captionMsg struct{ caption string }
type stateMsg struct{ state interview.State }
type resultMsg struct{ outcome interview.TurnOutcome }
type completionMsg struct{ summary interview.Summary }
type sessionErrMsg struct{ err error }

// Model is the top-level bubbletea model for the candidate client.
type Model struct {
	engine *interview.Orchestrator
	events <-chan tea.Msg
	start  func() error

	keys  KeyMap
	theme Theme

	width  int
	height int
	ready  bool

	state            interview.State
	question         interview.Question
	secondsRemaining int
	bufferRemaining  int

	recording bool
	level     float64
	levelBar  progress.Model
	caption   string

	spin spinner.Model

	lastOutcome *interview.TurnOutcome
	summary     *interview.Summary
	errorNotice string
}

// NewModel creates a Model around a configured session engine. start
// launches the session (backend call included) once the program is
// running; events carries the engine callbacks into the update loop.
func NewModel(engine *interview.Orchestrator, events <-chan tea.Msg, start func() error) Model {
	theme := DefaultTheme

	return Model{
		engine: engine,
		events: events,
		start:  start,
		keys:   DefaultKeyMap,
		theme:  theme,
		state:  interview.StateIdle,
		levelBar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithoutPercentage(),
		),
		spin: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Accent)),
		),
	}
}

// Init implements tea.Model. Starts the session in the background and
// begins draining the engine event channel.
func (model Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			if err := model.start(); err != nil {
				return sessionErrMsg{err: err}
			}
			return nil
		},
		listenForEngineEvent(model.events),
	)
}

// listenForEngineEvent returns a tea.Cmd that blocks until the engine
// emits an event, then delivers it as a message. Re-armed after every
// delivery.
func listenForEngineEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		message, ok := <-events
		if !ok {
			return nil
		}
		return message
	}
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return model.handleKeys(message)

	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		model.ready = true
		model.levelBar.Width = min(40, max(10, message.Width-20))

	// Terminal focus tracking is the presence signal: losing focus is
	// the closest terminal analogue of hiding the interview tab.
	case tea.FocusMsg:
		model.engine.ReportPresence(true, nil)

	case tea.BlurMsg:
		model.engine.ReportPresence(false, map[string]any{"source": "terminal_blur"})

	case questionMsg:
		model.question = message.question
		model.caption = ""
		model.lastOutcome = nil
		model.errorNotice = ""
		model.secondsRemaining = message.question.AnswerSeconds
		return model, listenForEngineEvent(model.events)

	case countdownMsg:
		model.secondsRemaining = message.seconds
		return model, listenForEngineEvent(model.events)

	case bufferCountdownMsg:
		model.bufferRemaining = message.seconds
		return model, listenForEngineEvent(model.events)

	case levelMsg:
		model.level = message.level
		return model, listenForEngineEvent(model.events)

	case captionMsg:
		model.caption = message.caption
		return model, listenForEngineEvent(model.events)

	case stateMsg:
		model.state = message.state
		model.recording = model.engine.IsRecording()
		commands := []tea.Cmd{listenForEngineEvent(model.events)}
		if message.state == interview.StateProcessing || message.state == interview.StateTimedOut {
			commands = append(commands, model.spin.Tick)
		}
		if message.state == interview.StateAnswering {
			model.level = 0
			model.errorNotice = ""
		}
		return model, tea.Batch(commands...)

	case resultMsg:
		outcome := message.outcome
		model.lastOutcome = &outcome
		model.errorNotice = ""
		return model, listenForEngineEvent(model.events)

	case completionMsg:
		summary := message.summary
		model.summary = &summary
		return model, listenForEngineEvent(model.events)

	case sessionErrMsg:
		if message.err != nil {
			model.errorNotice = message.err.Error()
		}
		return model, listenForEngineEvent(model.events)

	case spinner.TickMsg:
		var command tea.Cmd
		model.spin, command = model.spin.Update(message)
		if model.state == interview.StateProcessing || model.state == interview.StateTimedOut {
			return model, command
		}
	}

	return model, nil
}

func (model Model) handleKeys(message tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(message, model.keys.Quit):
		model.engine.Close()
		return model, tea.Quit

	case key.Matches(message, model.keys.ToggleRecording):
		if model.engine.IsRecording() {
			if err := model.engine.StopRecording(); err != nil {
				model.errorNotice = err.Error()
			}
			model.recording = false
			return model, nil
		}

		err := model.engine.StartRecording()
		switch {
		case err == nil:
			model.recording = true
			model.caption = ""
		case errors.Is(err, interview.ErrNotAnswering):
			// Space outside the answering window is just ignored.
		default:
			model.errorNotice = err.Error()
		}

	case key.Matches(message, model.keys.Resubmit):
		if err := model.engine.Resubmit(); err != nil && !errors.Is(err, interview.ErrNothingToResubmit) {
			model.errorNotice = err.Error()
		}
	}

	return model, nil
}
