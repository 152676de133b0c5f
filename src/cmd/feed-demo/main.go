// Demo program to showcase the feed watcher with a steady stream of sample messages.
// It runs a local pipeline, so no broker is needed.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subject-feed/src/config"
	"subject-feed/src/consumer"
	"subject-feed/src/contracts"
	"subject-feed/src/logger"
	"subject-feed/src/pipeline"
	"subject-feed/src/render"
	"subject-feed/src/subjects"
	"subject-feed/src/tui"
)

var authors = []contracts.Principal{
	{UserID: "u-1", Username: "alice"},
	{UserID: "u-2", Username: "bob"},
	{UserID: "u-3", Username: "carol"},
	{UserID: "u-4", Username: "dmitri"},
}

var samples = map[string][]string{
	"sports":  {"Home side wins 3-1 in extra time", "Marathon route announced", "Keeper signs a two year deal"},
	"healthy": {"Ten minute stretch before work", "Swapped soda for sparkling water", "Sleep is the best supplement"},
	"news":    {"Council approves the new bike lanes", "Rail strike called off", "Library opens late on Fridays"},
	"food":    {"Tried the new ramen place <b>really</b> good", "Sourdough attempt number four", "Farmers market is back"},
	"autos":   {"Test drove the new hatchback", "Winter tyres on already?", "EV charging map updated"},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{ConsumerGroup: "feed-demo"}
	p, err := pipeline.New(cfg, logger.NewSilentLogger(), consumer.WithRenderer(render.PlainText))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create pipeline: %v\n", err)
		os.Exit(1)
	}
	if err := p.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start pipeline: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Stop(stopCtx)
	}()

	go generate(ctx, p)

	if err := tui.Run(ctx, p.Store, "demo", subjects.Names()); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}

// generate publishes a random sample every few hundred milliseconds until ctx ends.
func generate(ctx context.Context, p *pipeline.Pipeline) {
	names := subjects.Names()
	ticker := time.NewTicker(400 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			subject := names[rand.Intn(len(names))]
			lines := samples[subject]
			author := authors[rand.Intn(len(authors))]
			_, _ = p.Publisher.Publish(ctx, subject, lines[rand.Intn(len(lines))], author)
		}
	}
}
