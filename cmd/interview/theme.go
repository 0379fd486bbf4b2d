package main

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the interview client. All colors
// use ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Accent colors the question panel border and the header.
	Accent lipgloss.Color

	// Countdown colors: calm for most of the window, then warning
	// and danger as the deadline closes in.
	CountdownCalm    lipgloss.Color
	CountdownWarning lipgloss.Color
	CountdownDanger  lipgloss.Color

	// Recording indicator and caption preview.
	RecordingDot lipgloss.Color
	CaptionText  lipgloss.Color

	ErrorText lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	Accent: lipgloss.Color("39"),

	CountdownCalm:    lipgloss.Color("42"),
	CountdownWarning: lipgloss.Color("214"),
	CountdownDanger:  lipgloss.Color("196"),

	RecordingDot: lipgloss.Color("196"),
	CaptionText:  lipgloss.Color("245"),

	ErrorText: lipgloss.Color("203"),
}
