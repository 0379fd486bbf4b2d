package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	interview "github.com/vvskad1/interview-core/core"
)

// View implements tea.Model.
func (model Model) View() string {
	if !model.ready {
		return "loading..."
	}

	var sections []string
	sections = append(sections, model.renderHeader())

	switch model.state {
	case interview.StateIdle:
		sections = append(sections, model.faintStyle().Render("starting session..."))

	case interview.StateAnswering:
		sections = append(sections,
			model.renderQuestion(),
			model.renderCountdown(),
			model.renderRecorder(),
		)

	case interview.StateProcessing:
		sections = append(sections,
			model.renderQuestion(),
			model.spin.View()+" scoring your answer...",
		)

	case interview.StateTimedOut:
		sections = append(sections,
			model.renderQuestion(),
			model.countdownStyle(0).Render("time is up"),
			model.spin.View()+" recording the timeout...",
		)

	case interview.StateBuffering:
		sections = append(sections, model.renderInterlude())

	case interview.StateComplete:
		sections = append(sections, model.renderSummary())
	}

	if model.errorNotice != "" {
		errorStyle := lipgloss.NewStyle().Foreground(model.theme.ErrorText)
		sections = append(sections,
			errorStyle.Render(wordwrap.String("error: "+model.errorNotice, model.contentWidth())),
			model.faintStyle().Render("press r to retry the submission"),
		)
	}

	sections = append(sections, model.renderHelp())
	return lipgloss.JoinVertical(lipgloss.Left, sections...) + "\n"
}

func (model Model) contentWidth() int {
	return max(20, min(model.width-4, 76))
}

func (model Model) faintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(model.theme.FaintText)
}

func (model Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(model.theme.Accent).
		Bold(true).
		Render("interview")

	status := model.faintStyle().Render(string(model.state))
	return title + "  " + status + "\n"
}

func (model Model) renderQuestion() string {
	questionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(model.theme.Accent).
		Padding(0, 1).
		Width(model.contentWidth())

	label := model.faintStyle().Render(fmt.Sprintf("question %d", model.question.TurnIndex+1))
	text := wordwrap.String(model.question.Text, model.contentWidth()-2)
	return label + "\n" + questionStyle.Render(text)
}

// renderCountdown shows the remaining answer window as M:SS, shifting
// from calm to warning to danger as the deadline closes in.
func (model Model) renderCountdown() string {
	seconds := model.secondsRemaining
	clock := fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
	return model.countdownStyle(seconds).Render("⏱ "+clock) +
		model.faintStyle().Render(" remaining")
}

func (model Model) countdownStyle(seconds int) lipgloss.Style {
	color := model.theme.CountdownCalm
	switch {
	case seconds <= 5:
		color = model.theme.CountdownDanger
	case seconds <= 10:
		color = model.theme.CountdownWarning
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}

func (model Model) renderRecorder() string {
	if !model.recording {
		return model.faintStyle().Render("press space to start recording")
	}

	dot := lipgloss.NewStyle().Foreground(model.theme.RecordingDot).Render("●")
	line := fmt.Sprintf("%s rec  %s", dot, model.levelBar.ViewAs(model.level))

	if model.caption != "" {
		captionStyle := lipgloss.NewStyle().
			Foreground(model.theme.CaptionText).
			Italic(true).
			Width(model.contentWidth())
		line += "\n" + captionStyle.Render(wordwrap.String(model.caption, model.contentWidth()))
	}

	return line + "\n" + model.faintStyle().Render("press space to stop and submit")
}

// renderInterlude is the buffering screen between turns: the resolved
// turn's transcript, then the reveal countdown for the next question.
func (model Model) renderInterlude() string {
	var lines []string

	if outcome := model.lastOutcome; outcome != nil {
		if outcome.TimedOut {
			lines = append(lines, model.countdownStyle(0).Render("answer window expired"))
		} else if outcome.Transcript != "" {
			lines = append(lines,
				model.faintStyle().Render("heard:"),
				wordwrap.String(outcome.Transcript, model.contentWidth()),
			)
		}
	}

	next := fmt.Sprintf("next question in %ds", model.bufferRemaining)
	lines = append(lines, "", lipgloss.NewStyle().Foreground(model.theme.Accent).Render(next))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (model Model) renderSummary() string {
	done := lipgloss.NewStyle().
		Foreground(model.theme.CountdownCalm).
		Bold(true).
		Render("interview complete")

	lines := []string{done, ""}
	if model.summary != nil {
		for _, turn := range model.summary.Turns {
			mark := "answered"
			if turn.TimedOut {
				mark = "timed out"
			}
			entry := fmt.Sprintf("%2d. %s", turn.Index+1, mark)
			if turn.Score != nil {
				entry += fmt.Sprintf("  (%.0f%%)", *turn.Score*100)
			}
			lines = append(lines, entry)
		}
		if model.summary.FinalTranscript != "" {
			lines = append(lines, "",
				model.faintStyle().Render("last answer:"),
				wordwrap.String(model.summary.FinalTranscript, model.contentWidth()),
			)
		}
	}

	lines = append(lines, "", model.faintStyle().Render("thank you for your time, you can close this window"))
	return strings.Join(lines, "\n")
}

func (model Model) renderHelp() string {
	bindings := []string{
		model.keys.ToggleRecording.Help().Key + " " + model.keys.ToggleRecording.Help().Desc,
		model.keys.Quit.Help().Key + " " + model.keys.Quit.Help().Desc,
	}
	if model.errorNotice != "" {
		bindings = append(bindings, model.keys.Resubmit.Help().Key+" "+model.keys.Resubmit.Help().Desc)
	}
	return "\n" + model.faintStyle().Render(strings.Join(bindings, " · "))
}
