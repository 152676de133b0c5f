// Package config provides configuration management for the feed service.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPort          = 8080
	DefaultConsumerGroup = "feed-service"
	DefaultClientID      = "subject-feed"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
)

// Config holds the application configuration.
type Config struct {
	// RedpandaBrokers lists Kafka-compatible seed brokers. Empty selects the in-process broker.
	RedpandaBrokers []string
	// Port is the HTTP listening port.
	Port int
	// ConsumerGroup is the group the feed consumer joins.
	ConsumerGroup string
	// ClientID identifies this process to the brokers.
	ClientID string
	// LogLevel is a zerolog level name.
	LogLevel string
	// LogFormat is "console" or "json".
	LogFormat string
}

// Addr returns the HTTP listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadFromEnv loads configuration from environment variables.
// A .env file in the working directory is read first when present; real environment variables win.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	cfg := &Config{
		RedpandaBrokers: parseBrokers(firstNonEmpty(os.Getenv("REDPANDA_BROKERS"), os.Getenv("KAFKA_BROKER"))),
		Port:            DefaultPort,
		ConsumerGroup:   firstNonEmpty(os.Getenv("CONSUMER_GROUP"), DefaultConsumerGroup),
		ClientID:        firstNonEmpty(os.Getenv("KAFKA_CLIENT_ID"), DefaultClientID),
		LogLevel:        strings.ToLower(firstNonEmpty(os.Getenv("LOG_LEVEL"), DefaultLogLevel)),
		LogFormat:       strings.ToLower(firstNonEmpty(os.Getenv("LOG_FORMAT"), DefaultLogFormat)),
	}

	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return nil, fmt.Errorf("PORT must be a number between 1 and 65535, got %q", raw)
		}
		cfg.Port = port
	}

	switch cfg.LogLevel {
	case "trace", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", cfg.LogLevel)
	}

	switch cfg.LogFormat {
	case "console", "json":
	default:
		return nil, fmt.Errorf("LOG_FORMAT must be console or json, got %q", cfg.LogFormat)
	}

	return cfg, nil
}

// MustLoadFromEnv loads configuration from environment variables and panics on error.
// This is useful for initialization in main() where configuration errors should be fatal.
func MustLoadFromEnv() *Config {
	cfg, err := LoadFromEnv()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
