// Package main provides the feed CLI: the HTTP service, a one-shot publisher,
// the terminal watcher, and the MCP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"subject-feed/src/config"
	"subject-feed/src/consumer"
	"subject-feed/src/contracts"
	"subject-feed/src/logger"
	"subject-feed/src/mcp"
	"subject-feed/src/pipeline"
	"subject-feed/src/render"
	"subject-feed/src/server"
	"subject-feed/src/subjects"
	"subject-feed/src/tui"
)

const (
	httpShutdownTimeout     = 10 * time.Second
	pipelineShutdownTimeout = 5 * time.Second
)

var (
	appConfig *config.Config
	mode      pipeline.Mode
)

var rootCmd = &cobra.Command{
	Use:   "feed",
	Short: "feed - A subject fan-out message feed",
	Long: `feed publishes short messages to a fixed set of subjects and serves
each subject's history as an HTML page.

It supports two modes:
- Local Mode: In-process broker, nothing leaves the process (default)
- Distributed Mode: Redpanda/Kafka topics, one per subject

Mode is auto-detected based on REDPANDA_BROKERS environment variable.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		appConfig, err = config.LoadFromEnv()
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		mode = pipeline.DetectMode(appConfig)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP feed service",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := logger.New(logger.Options{Level: appConfig.LogLevel, Format: appConfig.LogFormat})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		p, err := pipeline.New(appConfig, log)
		if err != nil {
			return err
		}

		srv := server.New(server.Deps{
			Feed:      p.Store,
			Publisher: p.Publisher,
			Broker:    p.Broker,
			Consumer:  p.Consumer,
			Logger:    log,
		})

		errCh := make(chan error, 1)
		go func() {
			log.Info("[Server] Listening on %s (%s mode)", appConfig.Addr(), mode)
			errCh <- srv.Start(appConfig.Addr())
		}()

		// Pages are served while the broker connects; a failed start leaves the
		// service degraded and /health reports it.
		started := p.StartBackground(ctx)

		var serveErr error
		select {
		case <-ctx.Done():
			log.Info("[Server] Shutting down")
		case serveErr = <-errCh:
			if serveErr != nil {
				log.Error("[Server] %v", serveErr)
			}
		}

		httpCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(httpCtx); err != nil {
			log.Warn("[Server] Shutdown: %v", err)
		}

		// Abandon any connect backoff still running before stopping the pipeline.
		stop()
		<-started

		stopCtx, cancelStop := context.WithTimeout(context.Background(), pipelineShutdownTimeout)
		defer cancelStop()
		_ = p.Stop(stopCtx)

		return serveErr
	},
}

var (
	publishUserID   string
	publishUsername string
)

var publishCmd = &cobra.Command{
	Use:   "publish [subject] [message]",
	Short: "Publish one message to a subject",
	Long: `Publish one message to a subject topic.

This command requires distributed mode (REDPANDA_BROKERS must be set);
a local broker would discard the message when the command exits.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if mode != pipeline.DistributedMode {
			return errors.New("publish requires REDPANDA_BROKERS")
		}

		log, err := logger.New(logger.Options{Level: appConfig.LogLevel, Format: appConfig.LogFormat})
		if err != nil {
			return err
		}

		p, err := pipeline.New(appConfig, log)
		if err != nil {
			return err
		}
		defer func() { _ = p.Stop(context.Background()) }()

		ctx := cmd.Context()
		if err := p.Connect(ctx); err != nil {
			return err
		}

		result, err := p.Publisher.Publish(ctx, args[0], args[1], contracts.Principal{
			UserID:   publishUserID,
			Username: publishUsername,
		})
		if err != nil {
			return err
		}

		fmt.Println(result.Message)
		return nil
	},
}

var subjectsCmd = &cobra.Command{
	Use:   "subjects",
	Short: "List the feed subjects",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range subjects.Names() {
			fmt.Println(name)
		}
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch every subject feed in the terminal",
	Long: `Watch every subject feed in the terminal.

The watcher joins its own consumer group and replays each topic from the
start. This command requires distributed mode (REDPANDA_BROKERS must be set).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if mode != pipeline.DistributedMode {
			return errors.New("watch requires REDPANDA_BROKERS")
		}

		cfg := *appConfig
		cfg.ConsumerGroup = fmt.Sprintf("%s-watch-%s", appConfig.ConsumerGroup, uuid.NewString())

		// The terminal belongs to the TUI; logs would corrupt it.
		p, err := pipeline.New(&cfg, logger.NewSilentLogger(), consumer.WithRenderer(render.PlainText))
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := p.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), pipelineShutdownTimeout)
			defer cancel()
			_ = p.Stop(stopCtx)
		}()

		return tui.Run(ctx, p.Store, mode.String(), subjects.Names())
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the feeds as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMCP(cmd.Context(), appConfig)
	},
}

// runMCP runs the pipeline behind an MCP stdio server. Logs go to stderr;
// stdout carries the protocol.
func runMCP(ctx context.Context, cfg *config.Config) error {
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Out: os.Stderr})
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}
	_ = p.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), pipelineShutdownTimeout)
		defer cancel()
		_ = p.Stop(stopCtx)
	}()

	return mcp.NewServer(p.Store, p.Publisher, log).Run()
}

func init() {
	publishCmd.Flags().StringVar(&publishUserID, "user-id", "", "author user id (required)")
	publishCmd.Flags().StringVar(&publishUsername, "username", "", "author display name (required)")
	_ = publishCmd.MarkFlagRequired("user-id")
	_ = publishCmd.MarkFlagRequired("username")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(subjectsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
