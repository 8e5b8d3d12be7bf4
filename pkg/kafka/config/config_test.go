package kafka_config

import (
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{EnvKafkaBrokers, EnvKafkaSyncStart, EnvKafkaInstrument} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Brokers) != 1 || cfg.Brokers[0] != DefaultKafkaBrokers {
		t.Errorf("Brokers = %v, want [%s]", cfg.Brokers, DefaultKafkaBrokers)
	}
	if cfg.SyncStart != StartFirst {
		t.Errorf("SyncStart = %q, want %q", cfg.SyncStart, StartFirst)
	}
	if cfg.StartOffset() != kafka.FirstOffset {
		t.Errorf("StartOffset() = %d, want first offset", cfg.StartOffset())
	}
	if !cfg.Instrument {
		t.Error("expected instrumentation on by default")
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(EnvKafkaBrokers, " kafka-1:9092, ,kafka-2:9092 ")
	t.Setenv(EnvKafkaRelayCompression, "ZSTD")
	t.Setenv(EnvKafkaRelayLinger, "20ms")
	t.Setenv(EnvKafkaSyncStart, "last")
	t.Setenv(EnvKafkaInstrument, "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if strings.Join(cfg.Brokers, ",") != "kafka-1:9092,kafka-2:9092" {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
	if cfg.RelayCompression != "zstd" {
		t.Errorf("RelayCompression = %q, want zstd", cfg.RelayCompression)
	}
	if cfg.RelayLinger != 20*time.Millisecond {
		t.Errorf("RelayLinger = %s, want 20ms", cfg.RelayLinger)
	}
	if cfg.StartOffset() != kafka.LastOffset {
		t.Errorf("StartOffset() = %d, want last offset", cfg.StartOffset())
	}
	if cfg.Instrument {
		t.Error("expected instrumentation off")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Brokers:          []string{DefaultKafkaBrokers},
			RelayMaxAttempts: DefaultRelayMaxAttempts,
			RelayLinger:      DefaultRelayLinger,
			RelayCompression: DefaultRelayCompression,
			SyncStart:        DefaultSyncStart,
			SyncMaxWait:      DefaultSyncMaxWait,
			SyncMaxRetries:   DefaultSyncMaxRetries,
			SyncRetryBackoff: DefaultSyncRetryBackoff,
		}
	}

	tests := []struct {
		name        string
		mutate      func(cfg *Config)
		expectError string
	}{
		{name: "defaults are valid", mutate: func(cfg *Config) {}},
		{name: "no brokers", mutate: func(cfg *Config) { cfg.Brokers = nil }, expectError: "broker"},
		{name: "zero attempts", mutate: func(cfg *Config) { cfg.RelayMaxAttempts = 0 }, expectError: "RelayMaxAttempts"},
		{name: "zero linger", mutate: func(cfg *Config) { cfg.RelayLinger = 0 }, expectError: "RelayLinger"},
		{name: "unknown codec", mutate: func(cfg *Config) { cfg.RelayCompression = "brotli" }, expectError: "RelayCompression"},
		{name: "unknown start", mutate: func(cfg *Config) { cfg.SyncStart = "middle" }, expectError: "SyncStart"},
		{name: "negative retries", mutate: func(cfg *Config) { cfg.SyncMaxRetries = -1 }, expectError: "SyncMaxRetries"},
		{name: "negative backoff", mutate: func(cfg *Config) { cfg.SyncRetryBackoff = -time.Second }, expectError: "SyncRetryBackoff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.expectError) {
				t.Fatalf("error = %v, want mention of %q", err, tt.expectError)
			}
		})
	}
}
