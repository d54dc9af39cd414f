package ui

import "github.com/charmbracelet/lipgloss"

const (
	spotifyGreen = "#1DB954"
	successGreen = "#04B575"
	errorRed     = "#E22134"
	warnAmber    = "#FFA500"
)

var muted = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}

var styles = newTheme()

// theme holds the styles for the title bar, banners and help text.
type theme struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style
}

func newTheme() theme {
	return theme{
		title: fg(spotifyGreen).Bold(true).MarginBottom(1),
		ok:    fg(successGreen).Bold(true),
		err:   fg(errorRed).Bold(true),
		warn:  fg(warnAmber),
		help:  lipgloss.NewStyle().Foreground(muted).Italic(true),
		label: fg(spotifyGreen).Bold(true),
	}
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}
