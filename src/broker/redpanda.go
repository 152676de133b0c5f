package broker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"subject-feed/src/logger"
)

const pingTimeout = 10 * time.Second

// RedpandaOptions tunes a RedpandaBroker. Zero values fall back to defaults.
type RedpandaOptions struct {
	ClientID       string
	SendTimeout    time.Duration
	PollWait       time.Duration
	MaxPollRecords int
	Backoff        Backoff
	Logger         logger.Logger
}

func (o RedpandaOptions) withDefaults() RedpandaOptions {
	if o.ClientID == "" {
		o.ClientID = "subject-feed"
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = DefaultSendTimeout
	}
	if o.PollWait <= 0 {
		o.PollWait = DefaultPollWait
	}
	if o.MaxPollRecords <= 0 {
		o.MaxPollRecords = DefaultMaxPollRecords
	}
	if o.Backoff.Attempts == 0 {
		o.Backoff = DefaultBackoff
	}
	if o.Logger == nil {
		o.Logger = logger.NewSilentLogger()
	}
	return o
}

// RedpandaBroker is a Kafka-compatible broker implementation using franz-go.
// The producer is idempotent and waits for all in-sync replicas.
type RedpandaBroker struct {
	client    *kgo.Client
	brokers   []string
	opts      RedpandaOptions
	mu        sync.RWMutex
	consumers map[string]*redpandaSubscription // groupID:topics -> subscription
	closed    bool
}

// NewRedpandaBroker creates a new RedpandaBroker instance.
// brokers is a slice of broker addresses (e.g., ["localhost:19092"]).
// No network traffic happens until Connect or the first Publish.
func NewRedpandaBroker(brokers []string, opts RedpandaOptions) (*RedpandaBroker, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker address is required")
	}
	opts = opts.withDefaults()

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(opts.ClientID),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.RecordDeliveryTimeout(opts.SendTimeout),
		kgo.RetryBackoffFn(opts.Backoff.Delay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}

	return &RedpandaBroker{
		client:    client,
		brokers:   brokers,
		opts:      opts,
		consumers: make(map[string]*redpandaSubscription),
	}, nil
}

// Connect probes the cluster until it answers or the backoff is exhausted.
func (b *RedpandaBroker) Connect(ctx context.Context) error {
	if b.isClosed() {
		return ErrClosed
	}

	err := retry(ctx, b.opts.Backoff, b.opts.Logger, "connect", func(ctx context.Context) error {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return b.client.Ping(pctx)
	})
	if err != nil {
		return err
	}

	b.opts.Logger.Info("[RedpandaBroker] Connected to %s", strings.Join(b.brokers, ","))
	return nil
}

// Publish sends a message to a topic with the specified key.
// An empty key leaves partition choice to the client.
func (b *RedpandaBroker) Publish(ctx context.Context, topic string, key string, value []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrClosed
	}

	ctx, cancel := context.WithTimeout(ctx, b.opts.SendTimeout)
	defer cancel()

	record := &kgo.Record{
		Topic: topic,
		Value: value,
	}
	if key != "" {
		record.Key = []byte(key)
	}

	if err := b.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("failed to produce message to %s: %w", topic, err)
	}
	return nil
}

// Subscribe creates a dedicated consumer client that joins groupID on topics.
// Offsets are committed only through Subscription.Commit.
func (b *RedpandaBroker) Subscribe(ctx context.Context, topics []string, groupID string) (Subscription, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("at least one topic is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}

	consumerKey := fmt.Sprintf("%s:%s", groupID, strings.Join(topics, ","))
	if _, exists := b.consumers[consumerKey]; exists {
		return nil, fmt.Errorf("consumer already exists for topics %v and group %s", topics, groupID)
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(b.brokers...),
		kgo.ClientID(b.opts.ClientID),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topics...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.AllowAutoTopicCreation(),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
		kgo.FetchMaxWait(b.opts.PollWait),
		kgo.RetryBackoffFn(b.opts.Backoff.Delay),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	err = retry(ctx, b.opts.Backoff, b.opts.Logger, "subscribe", func(ctx context.Context) error {
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		return consumer.Ping(pctx)
	})
	if err != nil {
		consumer.Close()
		return nil, err
	}

	sub := &redpandaSubscription{
		broker:     b,
		key:        consumerKey,
		client:     consumer,
		pollWait:   b.opts.PollWait,
		maxRecords: b.opts.MaxPollRecords,
		pending:    make(map[string]*kgo.Record),
	}
	b.consumers[consumerKey] = sub

	b.opts.Logger.Info("[RedpandaBroker] Subscribed group %s to %s", groupID, strings.Join(topics, ","))
	return sub, nil
}

// Ping checks that at least one broker answers.
func (b *RedpandaBroker) Ping(ctx context.Context) error {
	if b.isClosed() {
		return ErrClosed
	}
	return b.client.Ping(ctx)
}

// Close shuts down the broker and all consumer connections.
func (b *RedpandaBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*redpandaSubscription, 0, len(b.consumers))
	for _, sub := range b.consumers {
		subs = append(subs, sub)
	}
	b.consumers = make(map[string]*redpandaSubscription)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.shutdown()
	}
	b.client.Close()
	return nil
}

func (b *RedpandaBroker) isClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

func (b *RedpandaBroker) forget(key string) {
	b.mu.Lock()
	delete(b.consumers, key)
	b.mu.Unlock()
}

// redpandaSubscription polls one consumer group client.
type redpandaSubscription struct {
	broker     *RedpandaBroker
	key        string
	client     *kgo.Client
	pollWait   time.Duration
	maxRecords int

	mu      sync.Mutex
	pending map[string]*kgo.Record
	closed  bool
}

func recordHandle(topic string, partition int32, offset int64) string {
	return topic + "/" + strconv.FormatInt(int64(partition), 10) + "/" + strconv.FormatInt(offset, 10)
}

// Poll fetches up to maxRecords, waiting at most pollWait.
func (s *redpandaSubscription) Poll(ctx context.Context) ([]Message, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	pctx, cancel := context.WithTimeout(ctx, s.pollWait)
	defer cancel()

	fetches := s.client.PollRecords(pctx, s.maxRecords)
	if fetches.IsClientClosed() {
		return nil, ErrClosed
	}

	var errs []error
	fetches.EachError(func(topic string, partition int32, err error) {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return
		}
		errs = append(errs, fmt.Errorf("fetch %s[%d]: %w", topic, partition, err))
	})

	records := fetches.Records()
	if len(records) == 0 {
		s.client.AllowRebalance()
		return nil, errors.Join(errs...)
	}

	msgs := make([]Message, 0, len(records))
	s.mu.Lock()
	for _, record := range records {
		handle := recordHandle(record.Topic, record.Partition, record.Offset)
		s.pending[handle] = record
		msgs = append(msgs, Message{
			Topic:     record.Topic,
			Key:       string(record.Key),
			Value:     record.Value,
			Offset:    record.Offset,
			Partition: record.Partition,
			Timestamp: record.Timestamp.UnixMilli(),
			handle:    handle,
		})
	}
	s.mu.Unlock()

	return msgs, errors.Join(errs...)
}

// Commit commits the offsets of msgs and lets a blocked rebalance proceed.
func (s *redpandaSubscription) Commit(ctx context.Context, msgs []Message) error {
	defer s.client.AllowRebalance()

	s.mu.Lock()
	records := make([]*kgo.Record, 0, len(msgs))
	for _, m := range msgs {
		if r, ok := s.pending[m.handle]; ok {
			records = append(records, r)
			delete(s.pending, m.handle)
		}
	}
	s.mu.Unlock()

	if len(records) == 0 {
		return nil
	}
	if err := s.client.CommitRecords(ctx, records...); err != nil {
		return fmt.Errorf("failed to commit %d records: %w", len(records), err)
	}
	return nil
}

// Close leaves the group. Records polled but not committed are redelivered to the group.
func (s *redpandaSubscription) Close() error {
	s.broker.forget(s.key)
	s.shutdown()
	return nil
}

func (s *redpandaSubscription) shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.pending = make(map[string]*kgo.Record)
	s.mu.Unlock()

	s.client.CloseAllowingRebalance()
}
