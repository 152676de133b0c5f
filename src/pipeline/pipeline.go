// Package pipeline wires the broker, publisher, consumer loop, and feed store together.
// It is shared by the HTTP service, the MCP server, and the terminal watcher.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"subject-feed/src/broker"
	"subject-feed/src/config"
	"subject-feed/src/consumer"
	"subject-feed/src/logger"
	"subject-feed/src/publish"
	"subject-feed/src/store"
	"subject-feed/src/subjects"
)

// Mode selects the broker implementation.
type Mode int

const (
	// LocalMode runs the broker in-process. Nothing leaves the process.
	LocalMode Mode = iota
	// DistributedMode talks to a Redpanda/Kafka cluster.
	DistributedMode
)

func (m Mode) String() string {
	if m == DistributedMode {
		return "distributed"
	}
	return "local"
}

// DetectMode picks DistributedMode when brokers are configured.
func DetectMode(cfg *config.Config) Mode {
	if len(cfg.RedpandaBrokers) > 0 {
		return DistributedMode
	}
	return LocalMode
}

// Pipeline owns every long-lived component of the feed.
type Pipeline struct {
	Mode      Mode
	Broker    broker.Broker
	Store     *store.InMemoryStore
	Publisher *publish.Publisher
	Consumer  *consumer.Loop

	logger   logger.Logger
	stopOnce sync.Once
}

// New builds the components for cfg without touching the network.
// opts are passed to the consumer loop.
func New(cfg *config.Config, log logger.Logger, opts ...consumer.Option) (*Pipeline, error) {
	if log == nil {
		log = logger.NewSilentLogger()
	}

	mode := DetectMode(cfg)

	var brk broker.Broker
	switch mode {
	case DistributedMode:
		rp, err := broker.NewRedpandaBroker(cfg.RedpandaBrokers, broker.RedpandaOptions{
			ClientID: cfg.ClientID,
			Logger:   log,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Redpanda broker: %w", err)
		}
		brk = rp
	default:
		brk = broker.NewInMemoryBroker(log)
	}

	feed := store.NewInMemoryStoreWithTopics(subjects.Names())

	return &Pipeline{
		Mode:      mode,
		Broker:    brk,
		Store:     feed,
		Publisher: publish.NewPublisher(brk, log),
		Consumer:  consumer.NewLoop(brk, feed, cfg.ConsumerGroup, log, opts...),
		logger:    log,
	}, nil
}

// Connect establishes the broker session. Publishing works once it returns nil.
func (p *Pipeline) Connect(ctx context.Context) error {
	p.logger.Info("[Pipeline] Connecting to broker (%s mode)", p.Mode)
	if err := p.Broker.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to broker: %w", err)
	}
	return nil
}

// Start connects the broker and starts the consumer loop.
// Failures leave the pipeline degraded rather than stopped: the store keeps
// serving what it has and health reports the problem. The returned error
// describes the degradation, if any.
func (p *Pipeline) Start(ctx context.Context) error {
	for _, name := range subjects.Names() {
		p.Store.EnsureTopic(name)
	}

	if err := p.Connect(ctx); err != nil {
		p.logger.Error("[Pipeline] %v; running degraded", err)
		return err
	}

	if err := p.Consumer.Start(ctx); err != nil {
		p.logger.Error("[Pipeline] %v; running degraded", err)
		return err
	}
	return nil
}

// StartBackground ensures the store topics, then runs Start on its own goroutine
// so callers can serve the store while the broker connects. The channel yields
// Start's result once and is then closed. Cancel ctx to abandon the connect backoff.
func (p *Pipeline) StartBackground(ctx context.Context) <-chan error {
	for _, name := range subjects.Names() {
		p.Store.EnsureTopic(name)
	}

	result := make(chan error, 1)
	go func() {
		defer close(result)
		result <- p.Start(ctx)
	}()
	return result
}

// Stop drains the consumer and then closes the broker. Calling it again is a no-op.
func (p *Pipeline) Stop(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		if cerr := p.Consumer.Stop(ctx); cerr != nil {
			p.logger.Warn("[Pipeline] Consumer stop: %v", cerr)
			err = cerr
		}
		if berr := p.Broker.Close(); berr != nil {
			p.logger.Warn("[Pipeline] Broker close: %v", berr)
		}
		p.logger.Info("[Pipeline] Stopped")
	})
	return err
}
