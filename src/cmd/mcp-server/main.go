// Package main provides the MCP server entry point for the subject feeds.
// It exposes list_subjects, get_feed, and publish_message over stdio.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"subject-feed/src/config"
	logpkg "subject-feed/src/logger"
	"subject-feed/src/mcp"
	"subject-feed/src/pipeline"
)

func main() {
	cfg := config.MustLoadFromEnv()

	// stdout carries the protocol, so logs go to stderr.
	lg, err := logpkg.New(logpkg.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: os.Stderr})
	if err != nil {
		log.Fatalf("Logger error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.New(cfg, lg)
	if err != nil {
		log.Fatalf("Pipeline error: %v", err)
	}
	_ = p.Start(ctx)

	runErr := mcp.NewServer(p.Store, p.Publisher, lg).Run()

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = p.Stop(stopCtx)

	if runErr != nil {
		log.Fatalf("MCP server error: %v", runErr)
	}
}
