package kafka_config

import "time"

// Start positions for a consumer group with no committed offset.
const (
	StartFirst = "first"
	StartLast  = "last"
)

const (
	DefaultKafkaBrokers = "localhost:9092"

	// The relay writes one change at a time and waits for every in-sync
	// replica, so a short linger keeps feed latency low.
	DefaultRelayMaxAttempts = 10
	DefaultRelayLinger      = 5 * time.Millisecond
	DefaultRelayCompression = "none"

	// A fresh sync group replays whatever the topic still retains.
	DefaultSyncStart        = StartFirst
	DefaultSyncMaxWait      = time.Second
	DefaultSyncMaxRetries   = 5
	DefaultSyncRetryBackoff = 500 * time.Millisecond

	DefaultInstrument = true
)
