// Package store holds the rendered feeds served to readers.
package store

// Feed is the read/append contract for per-subject fragment sequences.
// The consumer appends; the HTTP surface and tools read.
type Feed interface {
	// EnsureTopic creates an empty sequence for topic if none exists.
	EnsureTopic(topic string)
	// Append adds fragment to the end of topic's sequence, creating the topic if needed.
	Append(topic string, fragment string)
	// Read returns a point-in-time copy of topic's sequence.
	Read(topic string) []string
	// Count returns the number of fragments stored for topic.
	Count(topic string) int
	// Topics returns every known topic name, sorted.
	Topics() []string
}
