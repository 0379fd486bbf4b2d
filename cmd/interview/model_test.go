package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	interview "github.com/vvskad1/interview-core/core"
	"github.com/vvskad1/interview-core/core/interviews"
)

func testModel() Model {
	engine := interview.NewOrchestrator()
	events := make(chan tea.Msg, 8)
	model := NewModel(engine, events, func() error { return nil })
	model.width = 80
	model.height = 24
	model.ready = true
	return model
}

func TestModelTracksQuestionAndCountdown(t *testing.T) {
	model := testModel()

	updated, _ := model.Update(questionMsg{question: interview.Question{
		Text:          "Design a rate limiter.",
		TurnIndex:     0,
		AnswerSeconds: 30,
	}})
	model = updated.(Model)
	if model.question.Text != "Design a rate limiter." {
		t.Fatalf("Question was not applied: %+v", model.question)
	}
	if model.secondsRemaining != 30 {
		t.Fatalf("Expected the countdown seeded from the answer window, got %d", model.secondsRemaining)
	}

	updated, _ = model.Update(countdownMsg{seconds: 12})
	model = updated.(Model)
	if model.secondsRemaining != 12 {
		t.Fatalf("Countdown was not applied, got %d", model.secondsRemaining)
	}
}

func TestModelStateChangeClearsStaleNotices(t *testing.T) {
	model := testModel()
	model.errorNotice = "gateway timeout"
	model.level = 0.8

	updated, _ := model.Update(stateMsg{state: interview.StateAnswering})
	model = updated.(Model)

	if model.errorNotice != "" {
		t.Fatal("Expected a fresh answering window to clear the error notice")
	}
	if model.level != 0 {
		t.Fatal("Expected the level meter to reset on a fresh answering window")
	}
}

func TestModelCountdownStyling(t *testing.T) {
	model := testModel()

	if got := model.countdownStyle(30).GetForeground(); got != model.theme.CountdownCalm {
		t.Fatalf("Expected the calm color for a wide window, got %v", got)
	}
	if got := model.countdownStyle(8).GetForeground(); got != model.theme.CountdownWarning {
		t.Fatalf("Expected the warning color under 10 seconds, got %v", got)
	}
	if got := model.countdownStyle(3).GetForeground(); got != model.theme.CountdownDanger {
		t.Fatalf("Expected the danger color under 5 seconds, got %v", got)
	}
}

func TestModelQuitClosesTheEngine(t *testing.T) {
	model := testModel()

	_, command := model.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if command == nil {
		t.Fatal("Expected quit to produce a command")
	}
	if _, ok := command().(tea.QuitMsg); !ok {
		t.Fatal("Expected quit to return tea.Quit")
	}

	// The engine is closed, so a later run attempt is rejected.
	if err := model.engine.Run(t.Context(), interviews.StartSessionResponse{}); err == nil {
		t.Fatal("Expected the engine to be closed after quit")
	}
}
