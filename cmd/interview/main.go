// interview is the candidate-facing terminal client for a timed,
// turn-based interview session.
//
// The flow mirrors the web client: one question at a time with a hard
// countdown, push-to-talk recording, server-side transcription and
// scoring, and a short buffered pause before each reveal. Losing
// terminal focus is reported as a presence signal, the terminal
// analogue of hiding the interview tab.
//
// Configuration comes from the environment (INTERVIEW_API_BASE_URL,
// INTERVIEW_API_TOKEN, DEEPGRAM_API_KEY), optionally loaded from a
// .env file in the working directory.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	interview "github.com/vvskad1/interview-core/core"
	"github.com/vvskad1/interview-core/core/audio/miniaudio"
	"github.com/vvskad1/interview-core/core/audio/portaudio"
	"github.com/vvskad1/interview-core/core/captions/deepgram"
	"github.com/vvskad1/interview-core/core/interviews/rest"
)

const eventBufferSize = 256

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var inviteID int64
	var baseURL string
	var captureBackend string
	var noCaptions bool

	flagSet := pflag.NewFlagSet("interview", pflag.ContinueOnError)
	flagSet.Int64Var(&inviteID, "invite", 0, "invite id for the session (required)")
	flagSet.StringVar(&baseURL, "base-url", "", "interview backend base URL (overrides INTERVIEW_API_BASE_URL)")
	flagSet.StringVar(&captureBackend, "capture", "miniaudio", "audio backend: miniaudio, portaudio or none")
	flagSet.BoolVar(&noCaptions, "no-captions", false, "disable the live caption preview")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			flagSet.PrintDefaults()
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.PrintDefaults()
		return nil
	}
	if inviteID == 0 {
		return fmt.Errorf("--invite is required")
	}

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	var clientOptions []rest.ClientOption
	if baseURL != "" {
		clientOptions = append(clientOptions, rest.WithBaseURL(baseURL))
	}
	backend := rest.NewClient(clientOptions...)

	engineOptions := []interview.OrchestratorOption{interview.WithClient(backend)}

	switch captureBackend {
	case "miniaudio":
		captureClient, err := miniaudio.NewClient()
		if err != nil {
			return fmt.Errorf("failed to initialize audio capture: %w", err)
		}
		engineOptions = append(engineOptions, interview.WithCaptureClient(captureClient))
	case "portaudio":
		captureClient, err := portaudio.NewClient(480)
		if err != nil {
			return fmt.Errorf("failed to initialize audio capture: %w", err)
		}
		engineOptions = append(engineOptions, interview.WithCaptureClient(captureClient))
	case "none":
		engineOptions = append(engineOptions, interview.WithCaptureDisabled())
	default:
		return fmt.Errorf("unknown capture backend %q", captureBackend)
	}

	if !noCaptions && os.Getenv("DEEPGRAM_API_KEY") != "" {
		engineOptions = append(engineOptions, interview.WithCaptionClient(deepgram.NewClient()))
	}

	engine := interview.NewOrchestrator(engineOptions...)
	defer engine.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan tea.Msg, eventBufferSize)

	// High-rate cosmetic events (levels, ticks, captions) are dropped
	// when the UI lags; lifecycle events always go through.
	offer := func(message tea.Msg) {
		select {
		case events <- message:
		default:
		}
	}

	start := func() error {
		startResponse, err := backend.StartSession(ctx, inviteID)
		if err != nil {
			return fmt.Errorf("failed to start session: %w", err)
		}

		return engine.Run(ctx, *startResponse,
			interview.WithQuestionCallback(func(question interview.Question) {
				events <- questionMsg{question: question}
			}),
			interview.WithCountdownCallback(func(seconds int) {
				offer(countdownMsg{seconds: seconds})
			}),
			interview.WithBufferCountdownCallback(func(seconds int) {
				offer(bufferCountdownMsg{seconds: seconds})
			}),
			interview.WithLevelCallback(func(level float64) {
				offer(levelMsg{level: level})
			}),
			interview.WithCaptionCallback(func(caption string) {
				offer(captionMsg{caption: caption})
			}),
			interview.WithStateChangedCallback(func(state interview.State) {
				events <- stateMsg{state: state}
			}),
			interview.WithResultCallback(func(outcome interview.TurnOutcome) {
				events <- resultMsg{outcome: outcome}
			}),
			interview.WithCompletionCallback(func(summary interview.Summary) {
				events <- completionMsg{summary: summary}
			}),
			interview.WithErrorCallback(func(err error) {
				events <- sessionErrMsg{err: err}
			}),
		)
	}

	model := NewModel(engine, events, start)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	_, err := program.Run()
	return err
}
