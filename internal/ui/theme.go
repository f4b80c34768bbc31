package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Theme is the single style set used by the terminal front end.
type Theme struct {
	Name    string
	Title   lipgloss.Style
	Text    lipgloss.Style
	Dim     lipgloss.Style
	Error   lipgloss.Style
	Border  lipgloss.Style
	Cursor  lipgloss.Style // selected tree row
	Match   lipgloss.Style // rows that matched the filter
	Artist  lipgloss.Style
	Album   lipgloss.Style
	Lyric   lipgloss.Style // the current lyric line
	Context lipgloss.Style // neighbouring lyric lines
	Note    lipgloss.Style
}

// Current returns the colored theme, or NoColor when NO_COLOR is set.
func Current() Theme {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return NoColor()
	}
	return Default()
}

func Default() Theme {
	return Theme{
		Name:    "april",
		Title:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F4A7BB")).Bold(true),
		Text:    lipgloss.NewStyle().Foreground(lipgloss.Color("#E6E6FA")),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("#6C6F93")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F56")).Bold(true),
		Border:  lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#7C7CFF")).Padding(0, 1),
		Cursor:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#5A4FCF")).Bold(true),
		Match:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166")),
		Artist:  lipgloss.NewStyle().Foreground(lipgloss.Color("#8EEBFF")).Bold(true),
		Album:   lipgloss.NewStyle().Foreground(lipgloss.Color("#B8A1FF")),
		Lyric:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6FF7")).Bold(true),
		Context: lipgloss.NewStyle().Foreground(lipgloss.Color("#9A9CC0")),
		Note:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5CFF5C")).Italic(true),
	}
}

// NoColor uses only bold, italic and reverse.
func NoColor() Theme {
	reset := lipgloss.NewStyle()
	return Theme{
		Name:    "nocolor",
		Title:   reset.Bold(true),
		Text:    reset,
		Dim:     reset,
		Error:   reset.Bold(true),
		Border:  reset.BorderStyle(lipgloss.NormalBorder()).Padding(0, 1),
		Cursor:  reset.Reverse(true),
		Match:   reset.Underline(true),
		Artist:  reset.Bold(true),
		Album:   reset,
		Lyric:   reset.Bold(true),
		Context: reset,
		Note:    reset.Italic(true),
	}
}
