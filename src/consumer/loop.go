// Package consumer drains the subject topics into the feed store.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"subject-feed/src/broker"
	"subject-feed/src/contracts"
	"subject-feed/src/logger"
	"subject-feed/src/render"
	"subject-feed/src/store"
	"subject-feed/src/subjects"
)

const (
	// DefaultStopTimeout bounds how long Stop waits for the loop to drain.
	DefaultStopTimeout = 5 * time.Second
	// DefaultRetryDelay is the pause after a failed poll.
	DefaultRetryDelay = 500 * time.Millisecond

	commitTimeout = 5 * time.Second
)

// ErrSubscribe is returned by Start when the subscription cannot be established.
var ErrSubscribe = errors.New("failed to subscribe to subject topics")

// State is the lifecycle state of a Loop.
type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Subscriber is the part of the broker the loop needs.
type Subscriber interface {
	Subscribe(ctx context.Context, topics []string, groupID string) (broker.Subscription, error)
}

// Option configures a Loop.
type Option func(*Loop)

// WithRenderer replaces the HTML fragment renderer.
func WithRenderer(fn render.Func) Option {
	return func(l *Loop) { l.render = fn }
}

// WithRetryDelay sets the pause after a failed poll.
func WithRetryDelay(d time.Duration) Option {
	return func(l *Loop) { l.retryDelay = d }
}

// WithStopTimeout sets how long Stop waits for the loop to drain.
func WithStopTimeout(d time.Duration) Option {
	return func(l *Loop) { l.stopTimeout = d }
}

// Loop polls every subject topic, renders each message, and appends it to the store.
// Offsets are committed only after the whole batch has been appended.
type Loop struct {
	subscriber  Subscriber
	store       store.Feed
	logger      logger.Logger
	groupID     string
	topics      []string
	render      render.Func
	retryDelay  time.Duration
	stopTimeout time.Duration

	mu      sync.Mutex
	state   State
	healthy bool
	cancel  context.CancelFunc
	done    chan struct{}
	sub     broker.Subscription
	offsets map[broker.TopicPartition]int64
}

// NewLoop creates a stopped loop over every registry subject.
func NewLoop(sub Subscriber, feed store.Feed, groupID string, log logger.Logger, opts ...Option) *Loop {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	l := &Loop{
		subscriber:  sub,
		store:       feed,
		logger:      log,
		groupID:     groupID,
		topics:      subjects.Names(),
		render:      render.Fragment,
		retryDelay:  DefaultRetryDelay,
		stopTimeout: DefaultStopTimeout,
		offsets:     make(map[broker.TopicPartition]int64),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Start subscribes and launches the poll loop. It is a no-op unless the loop is stopped.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.state != Stopped {
		state := l.state
		l.mu.Unlock()
		l.logger.Warn("[Consumer] Start called while %s, ignoring", state)
		return nil
	}
	l.state = Starting
	l.mu.Unlock()

	for _, topic := range l.topics {
		l.store.EnsureTopic(topic)
	}

	sub, err := l.subscriber.Subscribe(ctx, l.topics, l.groupID)
	if err != nil {
		l.mu.Lock()
		l.state = Stopped
		l.healthy = false
		l.mu.Unlock()
		l.logger.Error("[Consumer] Failed to subscribe: %v", err)
		return fmt.Errorf("%w: %w", ErrSubscribe, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	l.mu.Lock()
	l.sub = sub
	l.cancel = cancel
	l.done = done
	l.state = Running
	l.healthy = true
	l.mu.Unlock()

	go l.run(runCtx, sub, done)

	l.logger.Info("[Consumer] Listening on %d topics as group '%s'", len(l.topics), l.groupID)
	return nil
}

// Stop cancels the loop, waits for it to drain, and closes the subscription.
// It is safe to call from any goroutine and a no-op unless the loop is running.
// If the loop outlives the drain timeout, the state stays Stopping until it exits.
func (l *Loop) Stop(ctx context.Context) error {
	l.mu.Lock()
	if l.state != Running {
		l.mu.Unlock()
		return nil
	}
	l.state = Stopping
	cancel, done, sub := l.cancel, l.done, l.sub
	l.mu.Unlock()

	l.logger.Info("[Consumer] Stopping...")
	cancel()

	timer := time.NewTimer(l.stopTimeout)
	defer timer.Stop()

	var err error
	select {
	case <-done:
	case <-timer.C:
		err = fmt.Errorf("consumer did not drain within %s", l.stopTimeout)
		l.logger.Warn("[Consumer] %v", err)
	case <-ctx.Done():
		err = ctx.Err()
		l.logger.Warn("[Consumer] Stop interrupted: %v", err)
	}

	if cerr := sub.Close(); cerr != nil {
		l.logger.Warn("[Consumer] Failed to close subscription: %v", cerr)
	}

	select {
	case <-done:
		l.markStopped()
	default:
		// Still inside a batch. Stay Stopping so Start cannot run a second loop beside it.
		go func() {
			<-done
			l.markStopped()
		}()
	}
	return err
}

func (l *Loop) markStopped() {
	l.mu.Lock()
	l.state = Stopped
	l.healthy = false
	l.sub = nil
	l.cancel = nil
	l.done = nil
	l.mu.Unlock()

	l.logger.Info("[Consumer] Stopped")
}

// State returns the current lifecycle state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Healthy reports whether the loop is running and its subscription is usable.
func (l *Loop) Healthy() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == Running && l.healthy
}

// Offsets returns the offset of the last committed record per topic-partition.
func (l *Loop) Offsets() map[broker.TopicPartition]int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make(map[broker.TopicPartition]int64, len(l.offsets))
	for tp, off := range l.offsets {
		result[tp] = off
	}
	return result
}

func (l *Loop) run(ctx context.Context, sub broker.Subscription, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}

		batch, err := sub.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, broker.ErrClosed) {
				l.logger.Error("[Consumer] Subscription closed underneath the loop")
				l.setHealthy(false)
				return
			}
			l.logger.Warn("[Consumer] Poll error: %v", err)
		}

		if len(batch) > 0 {
			l.process(ctx, sub, batch)
			continue
		}

		if err != nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.retryDelay):
			}
		}
	}
}

// process appends every decodable record, then commits the whole batch.
func (l *Loop) process(ctx context.Context, sub broker.Subscription, batch []broker.Message) {
	for _, msg := range batch {
		published, err := contracts.Decode(msg.Value)
		if err != nil {
			l.logger.Warn("[Consumer] Skipping record %s[%d]@%d: %v", msg.Topic, msg.Partition, msg.Offset, err)
			continue
		}
		l.store.Append(msg.Topic, l.render(published))
	}

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	if err := sub.Commit(commitCtx, batch); err != nil {
		l.logger.Error("[Consumer] Failed to commit %d records: %v", len(batch), err)
		return
	}

	l.mu.Lock()
	for _, msg := range batch {
		tp := broker.TopicPartition{Topic: msg.Topic, Partition: msg.Partition}
		if cur, ok := l.offsets[tp]; !ok || msg.Offset > cur {
			l.offsets[tp] = msg.Offset
		}
	}
	l.mu.Unlock()

	l.logger.Debug("[Consumer] Committed %d records", len(batch))
}

func (l *Loop) setHealthy(v bool) {
	l.mu.Lock()
	l.healthy = v
	l.mu.Unlock()
}
