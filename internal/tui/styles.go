package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Header style for titles and section headers
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// Success style for positive feedback
	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// Error style for error messages
	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	// Warning style for degraded-but-working conditions
	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// Muted style for secondary text
	StyleMuted = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

const logoASCII = `
 _       _                  _   _
| |_ ___| | ___ _ __   __ _| |_| |__  _   _
| __/ _ \ |/ _ \ '_ \ / _` + "`" + ` | __| '_ \| | | |
| ||  __/ |  __/ |_) | (_| | |_| | | | |_| |
 \__\___|_|\___| .__/ \__,_|\__|_| |_|\__, |
               |_|                    |___/ `

// Logo returns the telepathy ASCII art
func Logo() string {
	return StyleHeader.Render(strings.Trim(logoASCII, "\n"))
}
