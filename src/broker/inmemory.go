package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"subject-feed/src/logger"
)

// InMemoryBroker is an in-process Broker.
// Each topic is an append-only log kept for the life of the process; consumer
// groups read it in offset order starting after their last committed offset,
// the way a Redpanda group would. A watermill Go channel pub/sub wakes live
// subscriptions when a topic grows.
type InMemoryBroker struct {
	pubsub   *gochannel.GoChannel
	log      logger.Logger
	pollWait time.Duration

	mu        sync.RWMutex
	closed    bool
	topics    map[string]*memoryTopic
	committed map[groupTopic]int64
	subs      map[*memorySubscription]struct{}
}

type memoryTopic struct {
	mu      sync.RWMutex
	records []Message
}

type groupTopic struct {
	group string
	topic string
}

// NewInMemoryBroker creates a new InMemoryBroker instance.
func NewInMemoryBroker(log logger.Logger) *InMemoryBroker {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, newWatermillLogger(log))

	return &InMemoryBroker{
		pubsub:    pubsub,
		log:       log,
		pollWait:  DefaultPollWait,
		topics:    make(map[string]*memoryTopic),
		committed: make(map[groupTopic]int64),
		subs:      make(map[*memorySubscription]struct{}),
	}
}

// SetPollWait overrides how long Poll waits for the first record.
func (b *InMemoryBroker) SetPollWait(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if d > 0 {
		b.pollWait = d
	}
}

// Connect is a no-op for the in-process broker.
func (b *InMemoryBroker) Connect(ctx context.Context) error {
	if b.isClosed() {
		return ErrClosed
	}
	return nil
}

// Ping reports whether the broker is still open.
func (b *InMemoryBroker) Ping(ctx context.Context) error {
	if b.isClosed() {
		return ErrClosed
	}
	return nil
}

func (b *InMemoryBroker) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

func (b *InMemoryBroker) topic(name string) (*memoryTopic, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	t, ok := b.topics[name]
	if !ok {
		t = &memoryTopic{}
		b.topics[name] = t
	}
	return t, nil
}

// Publish appends value to topic's log. The record is durable for the life of
// the broker once Publish returns nil; it does not wait for consumers.
func (b *InMemoryBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("failed to publish message to %s: %w", topic, err)
	}
	t, err := b.topic(topic)
	if err != nil {
		return err
	}

	t.mu.Lock()
	offset := int64(len(t.records))
	t.records = append(t.records, Message{
		Topic:     topic,
		Key:       key,
		Value:     value,
		Offset:    offset,
		Partition: 0,
		Timestamp: time.Now().UnixMilli(),
	})
	t.mu.Unlock()

	// The log already holds the record; a lost wake-up only delays delivery until the next poll.
	if err := b.pubsub.Publish(topic, message.NewMessage(watermill.NewUUID(), nil)); err != nil {
		b.log.Debug("[InMemoryBroker] Wake-up for topic '%s' not sent: %v", topic, err)
	}

	b.log.Debug("[InMemoryBroker] Published to topic '%s' at offset %d (%d bytes)", topic, offset, len(value))
	return nil
}

// read returns up to max records of topic starting at offset.
func (b *InMemoryBroker) read(topic string, offset int64, max int) []Message {
	b.mu.RLock()
	t := b.topics[topic]
	b.mu.RUnlock()
	if t == nil {
		return nil
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if offset >= int64(len(t.records)) {
		return nil
	}
	end := offset + int64(max)
	if end > int64(len(t.records)) {
		end = int64(len(t.records))
	}
	out := make([]Message, end-offset)
	copy(out, t.records[offset:end])
	return out
}

// Subscribe joins groupID on topics. Reading starts after the group's last
// committed offset on each topic, or at the beginning for a new group.
func (b *InMemoryBroker) Subscribe(ctx context.Context, topics []string, groupID string) (Subscription, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("at least one topic is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &memorySubscription{
		broker:   b,
		group:    groupID,
		topics:   append([]string(nil), topics...),
		cancel:   cancel,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		pollWait: b.pollWait,
		cursors:  make(map[string]int64, len(topics)),
	}

	for _, topic := range topics {
		ch, err := b.pubsub.Subscribe(subCtx, topic)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
		sub.cursors[topic] = b.committed[groupTopic{group: groupID, topic: topic}]
		sub.wg.Add(1)
		go sub.listen(ch)
	}

	b.subs[sub] = struct{}{}
	b.log.Debug("[InMemoryBroker] Group '%s' subscribed to %v at %v", groupID, topics, sub.cursors)
	return sub, nil
}

// commit advances groupID's position on each topic past the given records.
func (b *InMemoryBroker) commit(groupID string, msgs []Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, m := range msgs {
		key := groupTopic{group: groupID, topic: m.Topic}
		if next := m.Offset + 1; next > b.committed[key] {
			b.committed[key] = next
		}
	}
}

// Close shuts down every subscription and the underlying pub/sub.
func (b *InMemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*memorySubscription, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subs = make(map[*memorySubscription]struct{})
	b.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
	return b.pubsub.Close()
}

func (b *InMemoryBroker) forget(sub *memorySubscription) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
}

// memorySubscription reads the topic logs in offset order through per-topic cursors.
// Cursors advance on Poll; only Commit moves the group's position, so records
// polled but never committed are seen again by the group's next subscription.
type memorySubscription struct {
	broker   *InMemoryBroker
	group    string
	topics   []string
	cancel   context.CancelFunc
	wake     chan struct{}
	done     chan struct{}
	pollWait time.Duration
	wg       sync.WaitGroup

	mu        sync.Mutex
	cursors   map[string]int64
	closeOnce sync.Once
}

func (s *memorySubscription) listen(ch <-chan *message.Message) {
	defer s.wg.Done()
	for msg := range ch {
		msg.Ack()
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// fetch takes the next records from every topic, oldest first within a topic.
func (s *memorySubscription) fetch() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var batch []Message
	for _, topic := range s.topics {
		room := DefaultMaxPollRecords - len(batch)
		if room <= 0 {
			break
		}
		records := s.broker.read(topic, s.cursors[topic], room)
		s.cursors[topic] += int64(len(records))
		batch = append(batch, records...)
	}
	return batch
}

// Poll returns whatever is ready, or waits up to pollWait for a topic to grow.
func (s *memorySubscription) Poll(ctx context.Context) ([]Message, error) {
	timer := time.NewTimer(s.pollWait)
	defer timer.Stop()

	for {
		select {
		case <-s.done:
			return nil, ErrClosed
		default:
		}

		if batch := s.fetch(); len(batch) > 0 {
			return batch, nil
		}

		select {
		case <-s.wake:
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.done:
			return nil, ErrClosed
		}
	}
}

// Commit records the group's position after msgs.
func (s *memorySubscription) Commit(ctx context.Context, msgs []Message) error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	s.broker.commit(s.group, msgs)
	return nil
}

// Close stops delivery. Uncommitted records stay available to the group.
func (s *memorySubscription) Close() error {
	s.broker.forget(s)
	s.shutdown()
	return nil
}

func (s *memorySubscription) shutdown() {
	s.closeOnce.Do(func() {
		s.cancel()
		close(s.done)
		s.wg.Wait()
	})
}
