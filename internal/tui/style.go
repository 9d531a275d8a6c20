// Package tui holds the terminal styles of the CLI output.
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("2")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3")).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	KeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6"))

	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("4")).
			Bold(true)

	LocationStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5"))

	TypeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Italic(true)
)

func Header(text string) string {
	return HeaderStyle.Render(text)
}

func Success(text string) string {
	return SuccessStyle.Render(text)
}

func Warning(text string) string {
	return WarningStyle.Render(text)
}

func Error(text string) string {
	return ErrorStyle.Render(text)
}

func Muted(text string) string {
	return MutedStyle.Render(text)
}

func Key(text string) string {
	return KeyStyle.Render(text)
}

func Label(text string) string {
	return LabelStyle.Render(text)
}

func FormatKeyDisplay(key string) string {
	if len(key) <= 20 {
		return Key(key)
	}
	return Key(key[:12] + "...")
}

// Location renders a file:line reference.
func Location(file string, line int) string {
	if file == "" {
		return LocationStyle.Render(fmt.Sprintf("line %d", line))
	}
	return LocationStyle.Render(fmt.Sprintf("%s:%d", file, line))
}

// Type renders the kind of a typed value, e.g. "number".
func Type(kind string) string {
	return TypeStyle.Render(kind)
}

// Count renders "n noun" with a plural s.
func Count(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
