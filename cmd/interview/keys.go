package main

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the interview client.
type KeyMap struct {
	// ToggleRecording starts the microphone, or stops it and submits
	// the answer when a recording is running.
	ToggleRecording key.Binding

	// Resubmit retries the last failed submission.
	Resubmit key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set. Deliberately tiny:
// the candidate should never need more than push-to-talk and quit.
var DefaultKeyMap = KeyMap{
	ToggleRecording: key.NewBinding(
		key.WithKeys(" "),
		key.WithHelp("space", "record / submit"),
	),
	Resubmit: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "retry submission"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
