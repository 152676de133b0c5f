package tui

import "github.com/charmbracelet/lipgloss"

// StyleConfig holds all customizable style colors for the feed watcher.
type StyleConfig struct {
	PrimaryBlue    lipgloss.Color
	DarkBackground lipgloss.Color
	CardBackground lipgloss.Color
	TextPrimary    lipgloss.Color
	TextSecondary  lipgloss.Color
	BorderColor    lipgloss.Color
	SelectedColor  lipgloss.Color

	// SubjectColors tint each subject's tab, in registry order.
	SubjectColors []lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		PrimaryBlue:    lipgloss.Color("#8AB4F8"),
		DarkBackground: lipgloss.Color("#1E1E1E"),
		CardBackground: lipgloss.Color("#2D2D2D"),
		TextPrimary:    lipgloss.Color("#E8EAED"),
		TextSecondary:  lipgloss.Color("#9AA0A6"),
		BorderColor:    lipgloss.Color("#5F6368"),
		SelectedColor:  lipgloss.Color("#303134"),
		SubjectColors: []lipgloss.Color{
			lipgloss.Color("#34A853"), // Green
			lipgloss.Color("#FBBC04"), // Yellow
			lipgloss.Color("#EA4335"), // Red
			lipgloss.Color("#A142F4"), // Purple
			lipgloss.Color("#24C1E0"), // Cyan
		},
	}
}

// SubjectColor returns the tint for the i-th subject.
func (s *StyleConfig) SubjectColor(i int) lipgloss.Color {
	if len(s.SubjectColors) == 0 {
		return s.PrimaryBlue
	}
	return s.SubjectColors[i%len(s.SubjectColors)]
}

// TabStyle returns the style of a subject tab.
func (s *StyleConfig) TabStyle(i int, active bool) lipgloss.Style {
	style := lipgloss.NewStyle().
		Foreground(s.SubjectColor(i)).
		Padding(0, 1)
	if active {
		style = style.Bold(true).Underline(true).Background(s.SelectedColor)
	}
	return style
}

// HelpStyle returns a help text lipgloss style using this config
func (s *StyleConfig) HelpStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Padding(0, 2)
}

// ViewportStyle returns a viewport container lipgloss style using this config
func (s *StyleConfig) ViewportStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextPrimary).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(s.BorderColor)
}

// EmptyStyle renders the placeholder of an empty feed.
func (s *StyleConfig) EmptyStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.TextSecondary).
		Italic(true)
}
