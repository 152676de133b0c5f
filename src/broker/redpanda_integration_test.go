//go:build integration

package broker

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedpandaIntegration(t *testing.T) {
	raw := os.Getenv("REDPANDA_BROKERS")
	if raw == "" {
		t.Skip("REDPANDA_BROKERS not set, skipping integration test")
	}

	b, err := NewRedpandaBroker(strings.Split(raw, ","), RedpandaOptions{ClientID: "feed-integration"})
	if err != nil {
		t.Fatalf("NewRedpandaBroker failed: %v", err)
	}
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := b.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	topic := "news"
	marker := fmt.Sprintf("integration-%s", uuid.NewString())
	if err := b.Publish(ctx, topic, "", []byte(marker)); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	sub, err := b.Subscribe(ctx, []string{topic}, "feed-integration-"+uuid.NewString())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	for ctx.Err() == nil {
		msgs, _ := sub.Poll(ctx)
		for _, m := range msgs {
			if string(m.Value) == marker {
				if err := sub.Commit(ctx, msgs); err != nil {
					t.Errorf("Commit failed: %v", err)
				}
				return
			}
		}
		if err := sub.Commit(ctx, msgs); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
	}
	t.Fatal("published message was never consumed")
}
