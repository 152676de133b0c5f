package tui

import (
	"strings"
)

// filterLines keeps the lines containing query, case-insensitively.
// An empty query keeps everything.
func filterLines(lines []string, query string) []string {
	if query == "" {
		return lines
	}

	query = strings.ToLower(query)
	var filtered []string
	for _, line := range lines {
		if strings.Contains(strings.ToLower(line), query) {
			filtered = append(filtered, line)
		}
	}
	return filtered
}
