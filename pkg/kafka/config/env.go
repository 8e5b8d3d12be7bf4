package kafka_config

const (
	EnvKafkaBrokers = "KAFKA_BROKERS"

	// Feed relay (producer side)
	EnvKafkaRelayMaxAttempts = "KAFKA_RELAY_MAX_ATTEMPTS"
	EnvKafkaRelayLinger      = "KAFKA_RELAY_LINGER"
	EnvKafkaRelayCompression = "KAFKA_RELAY_COMPRESSION"

	// Calendar sync (consumer side)
	EnvKafkaSyncStart        = "KAFKA_SYNC_START"
	EnvKafkaSyncMaxWait      = "KAFKA_SYNC_MAX_WAIT"
	EnvKafkaSyncMaxRetries   = "KAFKA_SYNC_MAX_RETRIES"
	EnvKafkaSyncRetryBackoff = "KAFKA_SYNC_RETRY_BACKOFF"

	EnvKafkaInstrument = "KAFKA_INSTRUMENT"
)
