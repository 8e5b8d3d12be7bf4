package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvStoreBackend    = "STORE_BACKEND"
	EnvPostgresDSN     = "POSTGRES_DSN"
	EnvPostgresTracing = "POSTGRES_XRAY_TRACING"
	EnvStoreTimeout    = "STORE_TIMEOUT"

	EnvBookingConsistency = "BOOKING_CONSISTENCY"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret = "JWT_SECRET"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"
	EnvRoomCacheTTL  = "ROOM_CACHE_TTL"

	EnvRoomFeedLookback = "ROOM_FEED_LOOKBACK"

	EnvEventTransport         = "EVENT_TRANSPORT"
	EnvReservationEventsTopic = "RESERVATION_EVENTS_TOPIC"
	EnvReservationEventsDLQ   = "RESERVATION_EVENTS_DLQ"
	EnvSyncConsumerGroup      = "SYNC_CONSUMER_GROUP"
	EnvAMQPURL                = "AMQP_URL"
	EnvFeedPollInterval       = "FEED_POLL_INTERVAL"

	EnvCalendarProvider      = "CALENDAR_PROVIDER"
	EnvCalendarID            = "CALENDAR_ID"
	EnvCalendarTimeZone      = "CALENDAR_TIME_ZONE"
	EnvGoogleCredentialsFile = "GOOGLE_CREDENTIALS_FILE"

	EnvSyncMaxAttempts       = "SYNC_MAX_ATTEMPTS"
	EnvSyncRetryBackoff      = "SYNC_RETRY_BACKOFF"
	EnvSyncReconcileInterval = "SYNC_RECONCILE_INTERVAL"

	EnvRoomsSeedFile = "ROOMS_SEED_FILE"
)
