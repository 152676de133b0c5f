// Package tui provides the terminal feed watcher.
// It polls a feed source and shows one subject at a time, newest lines at the bottom.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultRefresh is how often the watcher re-reads the feed.
const DefaultRefresh = 500 * time.Millisecond

const continuationIndent = "    "

// FeedSource is the read side of a feed store.
type FeedSource interface {
	Read(topic string) []string
	Count(topic string) int
}

type tickMsg time.Time

// Model is the Bubble Tea model for the feed watcher.
type Model struct {
	source   FeedSource
	subjects []string
	header   Header
	viewport viewport.Model
	styles   *StyleConfig
	refresh  time.Duration

	width, height int
	ready         bool
	follow        bool
	searchMode    bool
	searchQuery   string
	shown         int
}

// NewModel creates a watcher over subjects. mode is shown in the header.
func NewModel(source FeedSource, mode string, subjects []string) Model {
	styles := DefaultStyles()
	return Model{
		source:   source,
		subjects: subjects,
		header:   NewHeaderWithStyles(mode, subjects, styles),
		viewport: viewport.New(0, 0),
		styles:   styles,
		refresh:  DefaultRefresh,
		follow:   true,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the refresh ticker. Required by tea.Model interface.
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		m.reload()
		return m, nil

	case tickMsg:
		m.reload()
		return m, m.tick()

	case tea.KeyMsg:
		if m.searchMode {
			return m.updateSearch(msg), nil
		}

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			m.header.Next()
			m.follow = true
			m.reload()
			return m, nil
		case "shift+tab", "left", "h":
			m.header.Prev()
			m.follow = true
			m.reload()
			return m, nil
		case "/":
			m.searchMode = true
			m.header.SetSearch(m.searchQuery, true)
			return m, nil
		case "G", "end":
			m.follow = true
			m.viewport.GotoBottom()
			return m, nil
		case "g", "home":
			m.follow = false
			m.viewport.GotoTop()
			return m, nil
		}

		if n, err := strconv.Atoi(msg.String()); err == nil {
			m.header.Select(n - 1)
			m.follow = true
			m.reload()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	m.follow = m.viewport.AtBottom()
	return m, cmd
}

func (m Model) updateSearch(msg tea.KeyMsg) Model {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchMode = false
		m.searchQuery = ""
	case tea.KeyEnter:
		m.searchMode = false
	case tea.KeyBackspace:
		if r := []rune(m.searchQuery); len(r) > 0 {
			m.searchQuery = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.searchQuery += string(msg.Runes)
	}
	m.header.SetSearch(m.searchQuery, m.searchMode)
	m.reload()
	return m
}

func (m *Model) resize() {
	headerHeight := lipgloss.Height(m.header.Render(m.width))
	// header + help line (1) + viewport borders (2)
	height := m.height - headerHeight - 1 - 2
	if height < 1 {
		height = 1
	}
	width := m.width - 4
	if width < 1 {
		width = 1
	}
	m.viewport.Width = width
	m.viewport.Height = height
}

// reload re-reads the active subject and rebuilds the viewport content.
func (m *Model) reload() {
	for _, name := range m.subjects {
		m.header.SetCount(name, m.source.Count(name))
	}

	active := m.header.Active()
	lines := filterLines(m.source.Read(active), m.searchQuery)
	m.shown = len(lines)

	var content string
	switch {
	case len(lines) == 0 && m.searchQuery != "":
		content = m.styles.EmptyStyle().Render("No messages match the search.")
	case len(lines) == 0:
		content = m.styles.EmptyStyle().Render("No messages yet for this subject.")
	default:
		var wrapped []string
		for _, line := range lines {
			wrapped = append(wrapped, Wrap(line, m.viewport.Width, continuationIndent)...)
		}
		content = lipgloss.JoinVertical(lipgloss.Left, wrapped...)
	}

	m.viewport.SetContent(content)
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// View renders the complete watcher layout.
func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	header := m.header.Render(m.width)
	body := m.styles.ViewportStyle().Render(m.viewport.View())
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderHelpText())
}

// renderHelpText renders context-aware help text at the bottom
func (m Model) renderHelpText() string {
	keyStyle := lipgloss.NewStyle().Foreground(m.styles.PrimaryBlue).Bold(true)
	sepStyle := lipgloss.NewStyle().Foreground(m.styles.TextSecondary)

	var helpText string
	if m.searchMode {
		helpText = fmt.Sprintf("%s: Apply %s %s: Clear",
			keyStyle.Render("Enter"), sepStyle.Render("•"),
			keyStyle.Render("Esc"))
	} else {
		helpText = fmt.Sprintf("%s: Subject %s %s: Jump %s %s: Scroll %s %s: Top/Follow %s %d shown %s %s",
			keyStyle.Render("Tab"), sepStyle.Render("•"),
			keyStyle.Render("1-5"), sepStyle.Render("•"),
			keyStyle.Render("j/k"), sepStyle.Render("•"),
			keyStyle.Render("g/G"), sepStyle.Render("•"),
			m.shown, sepStyle.Render("•"),
			keyStyle.Render("q"))
	}

	return m.styles.HelpStyle().Render(helpText)
}

// Run starts the watcher in the alternate screen until the user quits or ctx ends.
func Run(ctx context.Context, source FeedSource, mode string, subjects []string) error {
	p := tea.NewProgram(NewModel(source, mode, subjects), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
