package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"lifeplanner/internal/timer"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWork    = lipgloss.Color("196") // tomato
	cMuted   = lipgloss.Color("244") // gray
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Clock = lipgloss.NewStyle().Bold(true).Padding(0, 2)

	Panel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
)

func modeStyle(m timer.Mode) lipgloss.Style {
	if m == timer.Break {
		return lipgloss.NewStyle().Bold(true).Foreground(cGood)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(cWork)
}

// bar renders percent as a fixed-width progress bar.
func bar(percent float64, width int, m timer.Mode) string {
	filled := int(percent / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return modeStyle(m).Render(strings.Repeat("█", filled)) + Muted.Render(strings.Repeat("░", width-filled))
}
