package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger defines the interface for logging throughout the application.
// Different implementations can be used for different contexts (console, silent, structured, etc.)
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// Options configures a ZerologLogger.
type Options struct {
	// Level is a zerolog level name (debug, info, warn, error). Empty means info.
	Level string
	// Format is "console" for human-readable output or "json" for structured output.
	Format string
	// Out defaults to os.Stderr.
	Out io.Writer
}

// ZerologLogger writes leveled logs through zerolog.
// Used for normal operation of the service and the CLI.
type ZerologLogger struct {
	log zerolog.Logger
}

// New builds a ZerologLogger from opts.
func New(opts Options) (*ZerologLogger, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("failed to parse log level: %w", err)
		}
		level = parsed
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	switch opts.Format {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out}
	case "json":
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}

	return &ZerologLogger{
		log: zerolog.New(out).Level(level).With().Timestamp().Logger(),
	}, nil
}

func (z *ZerologLogger) Debug(msg string, args ...interface{}) {
	z.log.Debug().Msgf(msg, args...)
}

func (z *ZerologLogger) Info(msg string, args ...interface{}) {
	z.log.Info().Msgf(msg, args...)
}

func (z *ZerologLogger) Warn(msg string, args ...interface{}) {
	z.log.Warn().Msgf(msg, args...)
}

func (z *ZerologLogger) Error(msg string, args ...interface{}) {
	z.log.Error().Msgf(msg, args...)
}

// SilentLogger discards all log messages.
// Used when running in TUI mode to prevent log output from interfering with the display.
type SilentLogger struct{}

func NewSilentLogger() *SilentLogger {
	return &SilentLogger{}
}

func (s *SilentLogger) Debug(msg string, args ...interface{}) {}
func (s *SilentLogger) Info(msg string, args ...interface{})  {}
func (s *SilentLogger) Warn(msg string, args ...interface{})  {}
func (s *SilentLogger) Error(msg string, args ...interface{}) {}
