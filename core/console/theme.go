package console

import "github.com/charmbracelet/lipgloss"

type theme struct {
	header    lipgloss.Style
	status    map[string]lipgloss.Style
	listening lipgloss.Style
	muted     lipgloss.Style
	user      lipgloss.Style
	agent     lipgloss.Style
	thought   lipgloss.Style
	errorLine lipgloss.Style
	panel     lipgloss.Style
	input     lipgloss.Style
}

func newTheme() theme {
	green := lipgloss.Color("#05ffa1")
	blue := lipgloss.Color("#01cdfe")
	pink := lipgloss.Color("#ff71ce")
	yellow := lipgloss.Color("#ffd166")
	muted := lipgloss.Color("#7f8c8d")

	badge := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#1a1a1a"))

	return theme{
		header: lipgloss.NewStyle().Bold(true).Foreground(blue),
		status: map[string]lipgloss.Style{
			"IDLE":      badge.Background(muted),
			"LISTENING": badge.Background(green),
			"THINKING":  badge.Background(yellow),
			"SPEAKING":  badge.Background(blue),
		},
		listening: lipgloss.NewStyle().Foreground(green).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(muted),
		user:      lipgloss.NewStyle().Foreground(green).Bold(true),
		agent:     lipgloss.NewStyle().Foreground(blue).Bold(true),
		thought:   lipgloss.NewStyle().Foreground(muted).Italic(true),
		errorLine: lipgloss.NewStyle().Foreground(pink).Bold(true),
		panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted),
		input: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(muted),
	}
}

func (t theme) statusBadge(status string) string {
	style, ok := t.status[status]
	if !ok {
		style = t.status["IDLE"]
	}
	return style.Render(status)
}
