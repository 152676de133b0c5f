package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"subject-feed/src/logger"
)

func TestBackoffDelay(t *testing.T) {
	want := []time.Duration{
		300 * time.Millisecond,
		600 * time.Millisecond,
		1200 * time.Millisecond,
		2400 * time.Millisecond,
		4800 * time.Millisecond,
		9600 * time.Millisecond,
		19200 * time.Millisecond,
		30 * time.Second,
		30 * time.Second,
	}
	for i, w := range want {
		if got := DefaultBackoff.Delay(i + 1); got != w {
			t.Errorf("Delay(%d) = %s, want %s", i+1, got, w)
		}
	}
	if got := DefaultBackoff.Delay(0); got != 300*time.Millisecond {
		t.Errorf("Delay(0) = %s, want initial delay", got)
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	b := Backoff{Attempts: 5, Initial: time.Millisecond, Max: 5 * time.Millisecond}

	calls := 0
	err := retry(context.Background(), b, logger.NewSilentLogger(), "connect", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestRetryExhausted(t *testing.T) {
	b := Backoff{Attempts: 4, Initial: time.Millisecond, Max: 2 * time.Millisecond}
	cause := errors.New("connection refused")

	calls := 0
	err := retry(context.Background(), b, logger.NewSilentLogger(), "connect", func(ctx context.Context) error {
		calls++
		return cause
	})
	if !errors.Is(err, ErrConnectionFailure) {
		t.Errorf("Expected ErrConnectionFailure, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected cause to be wrapped, got %v", err)
	}
	if calls != 4 {
		t.Errorf("Expected 4 calls, got %d", calls)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	b := Backoff{Attempts: 8, Initial: time.Hour, Max: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- retry(ctx, b, logger.NewSilentLogger(), "connect", func(ctx context.Context) error {
			calls++
			return errors.New("down")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrConnectionFailure) || !errors.Is(err, context.Canceled) {
			t.Errorf("Expected connection failure caused by cancel, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("retry did not stop on cancel")
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got %d", calls)
	}
}
