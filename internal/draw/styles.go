package draw

import "github.com/charmbracelet/lipgloss"

// Styles are the lipgloss styles applied to drawn symbols.
type Styles struct {
	Frame   lipgloss.Style
	Title   lipgloss.Style
	Label   lipgloss.Style
	Gate    lipgloss.Style
	Control lipgloss.Style
	Measure lipgloss.Style
	Barrier lipgloss.Style
	Classic lipgloss.Style
}

// DefaultStyles returns the colour scheme used by the CLI.
func DefaultStyles() Styles {
	return Styles{
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7aa2f7")).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff9e64")),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7dcfff")),
		Gate: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#73daca")),
		Control: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68")),
		Measure: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#bb9af7")),
		Barrier: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#565f89")),
		Classic: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e0af68")),
	}
}

// plainStyles render every symbol unchanged.
func plainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{Frame: s, Title: s, Label: s, Gate: s, Control: s, Measure: s, Barrier: s, Classic: s}
}
