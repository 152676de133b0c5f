// Package sanitize cleans user-supplied text before it is written to a terminal.
// It removes ANSI escape sequences and other control characters so a published
// message cannot move the cursor, recolor, or clear the watcher's screen.
//
// HTML escaping for the web feed lives in the render package.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	// CSI sequences: \x1b[...<final byte>
	csiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

	// OSC and APC strings terminated by BEL or ST: \x1b]...\x07, \x1b_...\x1b\\
	oscPattern = regexp.MustCompile(`\x1b[\]_P^][^\x07\x1b]*(\x07|\x1b\\)`)
)

// StripANSI removes ANSI escape sequences.
func StripANSI(s string) string {
	s = oscPattern.ReplaceAllString(s, "")
	s = csiPattern.ReplaceAllString(s, "")
	return s
}

// ForTerminal strips escape sequences, turns newlines and tabs into spaces,
// and drops any remaining control characters.
func ForTerminal(s string) string {
	s = StripANSI(s)
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}
