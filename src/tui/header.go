package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const maxSearchWidth = 24

// Header represents the top status bar: one tab per subject plus the search state.
type Header struct {
	mode        string
	subjects    []string
	counts      map[string]int
	active      int
	searchQuery string
	searchMode  bool
	styles      *StyleConfig
}

// NewHeader creates a new header with default styles
func NewHeader(mode string, subjects []string) Header {
	return NewHeaderWithStyles(mode, subjects, DefaultStyles())
}

// NewHeaderWithStyles creates a new header with custom styles
func NewHeaderWithStyles(mode string, subjects []string, styles *StyleConfig) Header {
	return Header{
		mode:     mode,
		subjects: subjects,
		counts:   make(map[string]int),
		styles:   styles,
	}
}

// Active returns the selected subject.
func (h Header) Active() string {
	if len(h.subjects) == 0 {
		return ""
	}
	return h.subjects[h.active]
}

// Next selects the following subject, wrapping around.
func (h *Header) Next() {
	if len(h.subjects) > 0 {
		h.active = (h.active + 1) % len(h.subjects)
	}
}

// Prev selects the preceding subject, wrapping around.
func (h *Header) Prev() {
	if len(h.subjects) > 0 {
		h.active = (h.active - 1 + len(h.subjects)) % len(h.subjects)
	}
}

// Select jumps to subject index i; out-of-range values are ignored.
func (h *Header) Select(i int) {
	if i >= 0 && i < len(h.subjects) {
		h.active = i
	}
}

// SetCount records how many messages subject holds.
func (h *Header) SetCount(subject string, n int) {
	h.counts[subject] = n
}

// SetSearch updates the search state
func (h *Header) SetSearch(query string, mode bool) {
	h.searchQuery = query
	h.searchMode = mode
}

// Render renders the header
func (h Header) Render(width int) string {
	modeStyle := lipgloss.NewStyle().
		Foreground(h.styles.PrimaryBlue).
		Bold(true).
		Padding(0, 1)

	parts := []string{modeStyle.Render(fmt.Sprintf("feed (%s)", h.mode))}
	for i, name := range h.subjects {
		parts = append(parts, h.styles.TabStyle(i, i == h.active).Render(fmt.Sprintf("%d %s (%d)", i+1, name, h.counts[name])))
	}

	query := Truncate(h.searchQuery, maxSearchWidth, true)
	var searchText string
	switch {
	case h.searchMode:
		searchText = fmt.Sprintf("/ %s█", query)
	case h.searchQuery != "":
		searchText = fmt.Sprintf("/ %s", query)
	default:
		searchText = "[/] search"
	}
	searchStyle := lipgloss.NewStyle().
		Foreground(h.styles.TextSecondary).
		Padding(0, 1)
	if h.searchMode {
		searchStyle = searchStyle.Foreground(h.styles.PrimaryBlue)
	}
	parts = append(parts, searchStyle.Render(searchText))

	content := lipgloss.JoinHorizontal(lipgloss.Left, parts...)
	if width > 0 {
		content = ansi.Truncate(content, width, "…")
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(h.styles.BorderColor)
	if width > 0 {
		headerStyle = headerStyle.Width(width)
	}

	return headerStyle.Render(content)
}
