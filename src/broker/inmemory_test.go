package broker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

var _ Broker = (*InMemoryBroker)(nil)
var _ Broker = (*RedpandaBroker)(nil)

func newTestBroker(t *testing.T) *InMemoryBroker {
	t.Helper()
	b := NewInMemoryBroker(nil)
	b.SetPollWait(50 * time.Millisecond)
	t.Cleanup(func() { b.Close() })
	return b
}

// pollUntil polls sub, committing every batch, until n messages arrived.
func pollUntil(t *testing.T, sub Subscription, n int) []Message {
	t.Helper()
	ctx := context.Background()
	deadline := time.Now().Add(2 * time.Second)

	var got []Message
	for len(got) < n {
		if time.Now().After(deadline) {
			t.Fatalf("Timeout waiting for messages: got %d, want %d", len(got), n)
		}
		batch, err := sub.Poll(ctx)
		if err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		if err := sub.Commit(ctx, batch); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		got = append(got, batch...)
	}
	return got
}

// TestPublishDeliverToSubscriber verifies a message is published and received successfully.
func TestPublishDeliverToSubscriber(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	if err := b.Publish(ctx, "sports", "k1", []byte("hello world")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	sub, err := b.Subscribe(ctx, []string{"sports"}, "feed-service")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	got := pollUntil(t, sub, 1)
	msg := got[0]
	if msg.Topic != "sports" {
		t.Errorf("Expected topic sports, got %s", msg.Topic)
	}
	if msg.Key != "k1" {
		t.Errorf("Expected key k1, got %s", msg.Key)
	}
	if string(msg.Value) != "hello world" {
		t.Errorf("Expected %q, got %q", "hello world", msg.Value)
	}
	if msg.Offset != 0 || msg.Partition != 0 {
		t.Errorf("Expected offset 0 partition 0, got %d/%d", msg.Offset, msg.Partition)
	}
	if msg.Timestamp == 0 {
		t.Error("Expected a timestamp")
	}
}

// TestTopicIsolation verifies subscribers on different topics do not receive wrong messages.
func TestTopicIsolation(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	if err := b.Publish(ctx, "topic-a", "", []byte("for a")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	sub, err := b.Subscribe(ctx, []string{"topic-b"}, "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	batch, err := sub.Poll(ctx)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("topic-b should not receive topic-a messages, got %d", len(batch))
	}
}

func TestPollTimeoutReturnsEmptyBatch(t *testing.T) {
	b := newTestBroker(t)

	sub, err := b.Subscribe(context.Background(), []string{"news"}, "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	start := time.Now()
	batch, err := sub.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("Expected empty batch, got %d", len(batch))
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Poll waited too long: %s", elapsed)
	}
}

// TestOrderWithinTopic publishes while a subscriber is live.
func TestOrderWithinTopic(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, []string{"food"}, "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	const n = 5
	errCh := make(chan error, 1)
	go func() {
		for i := 0; i < n; i++ {
			if err := b.Publish(ctx, "food", "", []byte(fmt.Sprintf("m%d", i))); err != nil {
				errCh <- err
				return
			}
		}
		errCh <- nil
	}()

	got := pollUntil(t, sub, n)
	for i, msg := range got {
		if want := fmt.Sprintf("m%d", i); string(msg.Value) != want {
			t.Errorf("message %d: expected %s, got %s", i, want, msg.Value)
		}
		if msg.Offset != int64(i) {
			t.Errorf("message %d: expected offset %d, got %d", i, i, msg.Offset)
		}
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Publisher did not finish")
	}
}

func TestMultiTopicSubscription(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	for _, topic := range []string{"sports", "autos"} {
		if err := b.Publish(ctx, topic, "", []byte(topic)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	sub, err := b.Subscribe(ctx, []string{"sports", "autos"}, "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	got := pollUntil(t, sub, 2)
	seen := map[string]bool{}
	for _, msg := range got {
		if msg.Topic != string(msg.Value) {
			t.Errorf("message %q arrived on topic %q", msg.Value, msg.Topic)
		}
		seen[msg.Topic] = true
	}
	if !seen["sports"] || !seen["autos"] {
		t.Errorf("Expected both topics, got %v", seen)
	}
}

func TestUncommittedMessageIsRedelivered(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	if err := b.Publish(ctx, "healthy", "", []byte("again")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	first, err := b.Subscribe(ctx, []string{"healthy"}, "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	batch, err := first.Poll(ctx)
	if err != nil || len(batch) != 1 {
		t.Fatalf("Expected one message, got %d (err %v)", len(batch), err)
	}
	first.Close()

	second, err := b.Subscribe(ctx, []string{"healthy"}, "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer second.Close()

	got := pollUntil(t, second, 1)
	if string(got[0].Value) != "again" {
		t.Errorf("Expected redelivery of %q, got %q", "again", got[0].Value)
	}
}

// TestBacklogReplaysInOffsetOrder publishes before anyone subscribes.
func TestBacklogReplaysInOffsetOrder(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	const n = 20
	for i := 0; i < n; i++ {
		if err := b.Publish(ctx, "autos", "", []byte(fmt.Sprintf("m%d", i))); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	sub, err := b.Subscribe(ctx, []string{"autos"}, "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	got := pollUntil(t, sub, n)
	if len(got) != n {
		t.Fatalf("Expected %d messages, got %d", n, len(got))
	}
	for i, msg := range got {
		if want := fmt.Sprintf("m%d", i); string(msg.Value) != want || msg.Offset != int64(i) {
			t.Errorf("position %d: expected %s at offset %d, got %s at offset %d", i, want, i, msg.Value, msg.Offset)
		}
	}
}

func TestCommittedMessagesAreNotRedelivered(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Publish(ctx, "news", "", []byte(fmt.Sprintf("m%d", i))); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	first, err := b.Subscribe(ctx, []string{"news"}, "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	pollUntil(t, first, 3)
	first.Close()

	if err := b.Publish(ctx, "news", "", []byte("m3")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	second, err := b.Subscribe(ctx, []string{"news"}, "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer second.Close()

	got := pollUntil(t, second, 1)
	if len(got) != 1 || string(got[0].Value) != "m3" || got[0].Offset != 3 {
		t.Fatalf("Expected only m3 at offset 3, got %d messages starting with %q", len(got), got[0].Value)
	}

	batch, err := second.Poll(ctx)
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("Expected nothing further, got %d", len(batch))
	}
}

func TestGroupsReadIndependently(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	if err := b.Publish(ctx, "food", "", []byte("shared")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	for _, group := range []string{"feed-service", "feed-service-watch"} {
		sub, err := b.Subscribe(ctx, []string{"food"}, group)
		if err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
		got := pollUntil(t, sub, 1)
		if string(got[0].Value) != "shared" {
			t.Errorf("group %s: expected %q, got %q", group, "shared", got[0].Value)
		}
		sub.Close()
	}
}

func TestPublishWithCancelledContext(t *testing.T) {
	b := newTestBroker(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := b.Publish(ctx, "sports", "", []byte("late")); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}

	sub, err := b.Subscribe(context.Background(), []string{"sports"}, "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	batch, err := sub.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(batch) != 0 {
		t.Errorf("A failed publish must not be delivered, got %d", len(batch))
	}
}

func TestPollAfterSubscriptionClose(t *testing.T) {
	b := newTestBroker(t)

	sub, err := b.Subscribe(context.Background(), []string{"news"}, "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	sub.Close()

	if _, err := sub.Poll(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := sub.Commit(context.Background(), nil); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Commit, got %v", err)
	}
	// Closing twice is safe.
	if err := sub.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}

func TestPublishAfterClose(t *testing.T) {
	b := NewInMemoryBroker(nil)
	b.Close()

	if err := b.Publish(context.Background(), "sports", "", []byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := b.Ping(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Ping, got %v", err)
	}
	if err := b.Connect(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed from Connect, got %v", err)
	}
}

func TestSubscribeAfterClose(t *testing.T) {
	b := NewInMemoryBroker(nil)
	b.Close()

	if _, err := b.Subscribe(context.Background(), []string{"sports"}, "g"); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestSubscribeRequiresTopics(t *testing.T) {
	b := newTestBroker(t)
	if _, err := b.Subscribe(context.Background(), nil, "g"); err == nil {
		t.Error("Expected error for empty topic list")
	}
}

func TestCloseWithOpenSubscription(t *testing.T) {
	b := NewInMemoryBroker(nil)
	b.SetPollWait(time.Second)

	sub, err := b.Subscribe(context.Background(), []string{"autos"}, "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := sub.Poll(context.Background())
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Expected ErrClosed from blocked Poll, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Poll did not return after Close")
	}
}

func TestNewRedpandaBrokerRequiresAddress(t *testing.T) {
	if _, err := NewRedpandaBroker(nil, RedpandaOptions{}); err == nil {
		t.Error("Expected error for empty broker list")
	}
}
