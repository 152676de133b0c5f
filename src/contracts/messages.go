// Package contracts defines the data exchanged between the publisher and the feed consumer.
package contracts

import "time"

// TimestampLayout is the ISO-8601 layout used for PublishedMessage.Timestamp.
// Timestamps are always UTC with millisecond precision, e.g. 2024-03-01T09:30:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// PublishedMessage is the payload carried through the broker, one per publish call.
// The JSON field names are shared with every producer and consumer of the topics.
type PublishedMessage struct {
	// Unique identifier.
	ID string `json:"id"`
	// Identity of the author, as supplied by the auth layer.
	UserID string `json:"userId"`
	// Display name of the author.
	Username string `json:"username"`
	// Trimmed message text.
	Content string `json:"content"`
	// Creation time, formatted with TimestampLayout.
	Timestamp string `json:"timestamp"`
}

// Principal is the authenticated caller publishing a message.
type Principal struct {
	UserID   string
	Username string
}

// Valid reports whether both identity fields are present.
func (p Principal) Valid() bool {
	return p.UserID != "" && p.Username != ""
}

// FormatTimestamp formats t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
