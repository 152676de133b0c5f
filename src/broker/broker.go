// Package broker defines the interface for message brokers and provides implementations.
package broker

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultSendTimeout bounds a single Publish call.
	DefaultSendTimeout = 30 * time.Second
	// DefaultPollWait bounds how long Poll waits for records before returning an empty batch.
	DefaultPollWait = time.Second
	// DefaultMaxPollRecords caps the size of a polled batch.
	DefaultMaxPollRecords = 500
)

var (
	// ErrClosed is returned by operations on a closed broker or subscription.
	ErrClosed = errors.New("broker is closed")
	// ErrConnectionFailure is returned when a session cannot be established after every retry attempt.
	ErrConnectionFailure = errors.New("broker connection failure")
)

// Broker abstracts message publishing and consumption.
// This interface supports both in-process (watermill) and distributed (Redpanda/Kafka) implementations.
type Broker interface {
	// Connect establishes the producer session, retrying with bounded backoff.
	Connect(ctx context.Context) error

	// Publish sends a message to a topic with an optional key for partitioning.
	// It returns once the message is durably accepted or fails with an error; it never hangs
	// past the configured send timeout. Safe for concurrent use.
	Publish(ctx context.Context, topic string, key string, value []byte) error

	// Subscribe joins groupID and starts consuming topics.
	// For the in-process broker, groupID is ignored.
	Subscribe(ctx context.Context, topics []string, groupID string) (Subscription, error)

	// Ping probes connectivity to the broker.
	Ping(ctx context.Context) error

	// Close shuts down the broker connection and all subscriptions.
	Close() error
}

// Subscription is a consumer-side session over one or more topics.
type Subscription interface {
	// Poll waits up to the poll interval for records. An empty batch with a nil error
	// means nothing arrived. A partial transport failure returns the records that were
	// fetched together with the error.
	Poll(ctx context.Context) ([]Message, error)

	// Commit marks msgs as processed so they are not delivered to the group again.
	Commit(ctx context.Context, msgs []Message) error

	// Close ends the session. Uncommitted records will be redelivered.
	Close() error
}

// Message represents a consumed message from a broker.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Offset    int64
	Partition int32
	Timestamp int64

	// handle identifies the underlying broker record for Commit.
	handle string
}

// TopicPartition names one partition of a topic.
type TopicPartition struct {
	Topic     string
	Partition int32
}
