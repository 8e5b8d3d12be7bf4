package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Config carries the Kafka settings shared by the feed relay and the
// calendar sync worker. Writes always require acknowledgement from all
// in-sync replicas and offsets are committed synchronously; neither is
// tunable.
type Config struct {
	Brokers []string

	RelayMaxAttempts int
	RelayLinger      time.Duration
	RelayCompression string // none, gzip, snappy, lz4, zstd

	SyncStart        string // first or last
	SyncMaxWait      time.Duration
	SyncMaxRetries   int
	SyncRetryBackoff time.Duration

	// Instrument attaches the logging and metrics middleware.
	Instrument bool
}

// Load reads the Kafka settings from the environment and validates them.
func Load() (*Config, error) {
	cfg := &Config{
		Brokers: splitBrokers(getEnvStr(EnvKafkaBrokers, DefaultKafkaBrokers)),

		RelayMaxAttempts: getEnvInt(EnvKafkaRelayMaxAttempts, DefaultRelayMaxAttempts),
		RelayLinger:      getEnvDuration(EnvKafkaRelayLinger, DefaultRelayLinger),
		RelayCompression: strings.ToLower(getEnvStr(EnvKafkaRelayCompression, DefaultRelayCompression)),

		SyncStart:        strings.ToLower(getEnvStr(EnvKafkaSyncStart, DefaultSyncStart)),
		SyncMaxWait:      getEnvDuration(EnvKafkaSyncMaxWait, DefaultSyncMaxWait),
		SyncMaxRetries:   getEnvInt(EnvKafkaSyncMaxRetries, DefaultSyncMaxRetries),
		SyncRetryBackoff: getEnvDuration(EnvKafkaSyncRetryBackoff, DefaultSyncRetryBackoff),

		Instrument: getEnvBool(EnvKafkaInstrument, DefaultInstrument),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka configuration: %w", err)
	}

	return cfg, nil
}

// StartOffset maps SyncStart onto the reader's start offset.
func (cfg *Config) StartOffset() int64 {
	if cfg.SyncStart == StartLast {
		return kafka.LastOffset
	}
	return kafka.FirstOffset
}

func (cfg *Config) Validate() error {
	var errors []string

	if len(cfg.Brokers) == 0 {
		errors = append(errors, "At least one Kafka broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			errors = append(errors, fmt.Sprintf("Broker %d cannot be empty", i))
		}
	}

	if cfg.RelayMaxAttempts <= 0 {
		errors = append(errors, fmt.Sprintf("RelayMaxAttempts must be positive, got: %d", cfg.RelayMaxAttempts))
	}
	if cfg.RelayLinger <= 0 {
		errors = append(errors, fmt.Sprintf("RelayLinger must be positive, got: %s", cfg.RelayLinger))
	}
	switch cfg.RelayCompression {
	case "none", "gzip", "snappy", "lz4", "zstd":
	default:
		errors = append(errors, fmt.Sprintf("RelayCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.RelayCompression))
	}

	if cfg.SyncStart != StartFirst && cfg.SyncStart != StartLast {
		errors = append(errors, fmt.Sprintf("SyncStart must be %q or %q, got: %s", StartFirst, StartLast, cfg.SyncStart))
	}
	if cfg.SyncMaxWait <= 0 {
		errors = append(errors, fmt.Sprintf("SyncMaxWait must be positive, got: %s", cfg.SyncMaxWait))
	}
	if cfg.SyncMaxRetries < 0 {
		errors = append(errors, fmt.Sprintf("SyncMaxRetries cannot be negative, got: %d", cfg.SyncMaxRetries))
	}
	if cfg.SyncRetryBackoff < 0 {
		errors = append(errors, fmt.Sprintf("SyncRetryBackoff cannot be negative, got: %s", cfg.SyncRetryBackoff))
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration(logFunc func(msg string, keysAndValues ...any)) {
	if logFunc == nil {
		return
	}

	logFunc("Kafka configuration loaded",
		"brokers", cfg.Brokers,
		"relay_max_attempts", cfg.RelayMaxAttempts,
		"relay_linger", cfg.RelayLinger,
		"relay_compression", cfg.RelayCompression,
		"sync_start", cfg.SyncStart,
		"sync_max_wait", cfg.SyncMaxWait,
		"sync_max_retries", cfg.SyncMaxRetries,
		"sync_retry_backoff", cfg.SyncRetryBackoff,
		"instrument", cfg.Instrument,
	)
}

func splitBrokers(value string) []string {
	var brokers []string
	for _, broker := range strings.Split(value, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func getEnvStr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
