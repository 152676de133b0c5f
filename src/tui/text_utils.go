package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// VisualWidth returns the display width of text, accounting for wide characters.
func VisualWidth(s string) int {
	return runewidth.StringWidth(s)
}

// Truncate shortens s to maxLen columns, ending with "..." when ellipsis is set and there is room.
func Truncate(s string, maxLen int, ellipsis bool) string {
	if maxLen <= 0 {
		return ""
	}
	if VisualWidth(s) <= maxLen {
		return s
	}
	if ellipsis && maxLen > 3 {
		return runewidth.Truncate(s, maxLen, "...")
	}
	return runewidth.Truncate(s, maxLen, "")
}

// Wrap breaks text into lines of at most width columns, on word boundaries when possible.
// Continuation lines start with indent. Words wider than a line are split.
func Wrap(text string, width int, indent string) []string {
	words := strings.Fields(text)
	if width <= 0 || len(words) == 0 {
		return []string{text}
	}

	indentWidth := VisualWidth(indent)
	if indentWidth >= width {
		indent, indentWidth = "", 0
	}

	var lines []string
	var line strings.Builder
	lineWidth := 0

	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		line.WriteString(indent)
		lineWidth = indentWidth
	}

	for _, word := range words {
		wordWidth := VisualWidth(word)
		empty := lineWidth == 0 || (len(lines) > 0 && lineWidth == indentWidth)

		switch {
		case !empty && lineWidth+1+wordWidth <= width:
			line.WriteString(" ")
			line.WriteString(word)
			lineWidth += 1 + wordWidth
			continue
		case !empty:
			flush()
		}

		// Split words that cannot fit on a line of their own.
		for lineWidth+wordWidth > width {
			room := width - lineWidth
			chunk := runewidth.Truncate(word, room, "")
			if chunk == "" {
				// A wide rune wider than the room left still has to go somewhere.
				chunk = string([]rune(word)[:1])
			}
			line.WriteString(chunk)
			word = word[len(chunk):]
			wordWidth = VisualWidth(word)
			flush()
		}
		line.WriteString(word)
		lineWidth += wordWidth
	}

	if line.Len() > 0 && lineWidth > indentWidth || len(lines) == 0 {
		lines = append(lines, line.String())
	}
	return lines
}
