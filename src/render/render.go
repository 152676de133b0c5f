// Package render turns published messages into display fragments.
// Functions here are pure: no I/O and the same input always yields the same output.
package render

import (
	"fmt"
	"strings"

	"subject-feed/src/contracts"
	"subject-feed/src/sanitize"
)

// Func renders one message into the string stored in a feed.
type Func func(contracts.PublishedMessage) string

// htmlEscaper replaces HTML-significant characters. The ampersand comes first so
// entities produced by the later pairs are not escaped twice.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML escapes &, <, >, " and ' in s.
func EscapeHTML(s string) string {
	return htmlEscaper.Replace(s)
}

// Fragment renders msg as an HTML list item:
//
//	<li>[<timestamp>] <b><username></b>: <content></li>
//
// Username and content are escaped; the timestamp is emitted as received.
func Fragment(msg contracts.PublishedMessage) string {
	return fmt.Sprintf("<li>[%s] <b>%s</b>: %s</li>",
		msg.Timestamp, EscapeHTML(msg.Username), EscapeHTML(msg.Content))
}

// PlainText renders msg as a single terminal line, "[timestamp] username: content".
func PlainText(msg contracts.PublishedMessage) string {
	return fmt.Sprintf("[%s] %s: %s",
		sanitize.ForTerminal(msg.Timestamp),
		sanitize.ForTerminal(msg.Username),
		sanitize.ForTerminal(msg.Content))
}
