package store

import (
	"sort"
	"sync"
)

// InMemoryStore is a thread-safe in-memory implementation of Feed.
// Each topic carries its own lock, so appends and reads on one topic never
// wait on another. The outer lock only guards the topic map itself.
type InMemoryStore struct {
	mu     sync.RWMutex
	topics map[string]*topicFeed
}

type topicFeed struct {
	mu        sync.RWMutex
	fragments []string
}

// NewInMemoryStore creates a new in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		topics: make(map[string]*topicFeed),
	}
}

// NewInMemoryStoreWithTopics creates a store with empty sequences for topics.
func NewInMemoryStoreWithTopics(topics []string) *InMemoryStore {
	s := NewInMemoryStore()
	for _, t := range topics {
		s.EnsureTopic(t)
	}
	return s
}

// lookup returns the feed for topic, or nil.
func (s *InMemoryStore) lookup(topic string) *topicFeed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.topics[topic]
}

// ensure returns the feed for topic, creating it if absent.
func (s *InMemoryStore) ensure(topic string) *topicFeed {
	if f := s.lookup(topic); f != nil {
		return f
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check: another writer may have created it between the two locks.
	if f, ok := s.topics[topic]; ok {
		return f
	}
	f := &topicFeed{}
	s.topics[topic] = f
	return f
}

// EnsureTopic creates an empty sequence for topic if none exists. Calling it again is a no-op.
func (s *InMemoryStore) EnsureTopic(topic string) {
	s.ensure(topic)
}

// Append adds fragment to the end of topic's sequence.
func (s *InMemoryStore) Append(topic string, fragment string) {
	f := s.ensure(topic)

	f.mu.Lock()
	f.fragments = append(f.fragments, fragment)
	f.mu.Unlock()
}

// Read returns a copy of topic's fragments in arrival order.
// Unknown topics yield an empty, non-nil slice.
func (s *InMemoryStore) Read(topic string) []string {
	f := s.lookup(topic)
	if f == nil {
		return []string{}
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	result := make([]string, len(f.fragments))
	copy(result, f.fragments)
	return result
}

// Count returns the number of fragments stored for topic.
func (s *InMemoryStore) Count(topic string) int {
	f := s.lookup(topic)
	if f == nil {
		return 0
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.fragments)
}

// Topics returns every known topic, sorted by name.
func (s *InMemoryStore) Topics() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.topics))
	for name := range s.topics {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	return names
}

// Reset clears topic's fragments, keeping the topic. Intended for test isolation.
func (s *InMemoryStore) Reset(topic string) {
	f := s.lookup(topic)
	if f == nil {
		return
	}

	f.mu.Lock()
	f.fragments = nil
	f.mu.Unlock()
}

// ResetAll clears the fragments of every topic, keeping the topics. Intended for test isolation.
func (s *InMemoryStore) ResetAll() {
	for _, topic := range s.Topics() {
		s.Reset(topic)
	}
}
