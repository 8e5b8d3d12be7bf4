package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"roomly/pkg/client"
	"roomly/pkg/logger"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	StoreBackend    string
	PostgresDSN     string
	PostgresTracing bool
	StoreTimeout    time.Duration

	BookingConsistency string

	Port string

	JWTSecret string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RoomCacheTTL  time.Duration

	RoomFeedLookback time.Duration

	EventTransport         string
	ReservationEventsTopic string
	ReservationEventsDLQ   string
	SyncConsumerGroup      string
	AMQPURL                string
	FeedPollInterval       time.Duration

	CalendarProvider      string
	CalendarID            string
	CalendarTimeZone      string
	GoogleCredentialsFile string

	SyncMaxAttempts       int
	SyncRetryBackoff      time.Duration
	SyncReconcileInterval time.Duration

	RoomsSeedFile string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	dotenvErr := godotenv.Load()

	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		StoreBackend:    strings.ToLower(getEnvStr(EnvStoreBackend, DefaultStoreBackend)),
		PostgresDSN:     getEnvStr(EnvPostgresDSN, ""),
		PostgresTracing: getEnvBool(EnvPostgresTracing, false),
		StoreTimeout:    getEnvDuration(EnvStoreTimeout, DefaultStoreTimeout),

		BookingConsistency: strings.ToLower(getEnvStr(EnvBookingConsistency, DefaultBookingConsistency)),

		Port: getEnvStr(EnvPort, DefaultPort),

		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, ""),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, 0),
		RoomCacheTTL:  getEnvDuration(EnvRoomCacheTTL, DefaultRoomCacheTTL),

		RoomFeedLookback: getEnvDuration(EnvRoomFeedLookback, DefaultRoomFeedLookback),

		EventTransport:         strings.ToLower(getEnvStr(EnvEventTransport, DefaultEventTransport)),
		ReservationEventsTopic: getEnvStr(EnvReservationEventsTopic, DefaultReservationEventsTopic),
		ReservationEventsDLQ:   getEnvStr(EnvReservationEventsDLQ, ""),
		SyncConsumerGroup:      getEnvStr(EnvSyncConsumerGroup, DefaultSyncConsumerGroup),
		AMQPURL:                getEnvStr(EnvAMQPURL, DefaultAMQPURL),
		FeedPollInterval:       getEnvDuration(EnvFeedPollInterval, DefaultFeedPollInterval),

		CalendarProvider:      strings.ToLower(getEnvStr(EnvCalendarProvider, DefaultCalendarProvider)),
		CalendarID:            getEnvStr(EnvCalendarID, DefaultCalendarID),
		CalendarTimeZone:      getEnvStr(EnvCalendarTimeZone, DefaultCalendarTimeZone),
		GoogleCredentialsFile: getEnvStr(EnvGoogleCredentialsFile, ""),

		SyncMaxAttempts:       getEnvNum(EnvSyncMaxAttempts, DefaultSyncMaxAttempts),
		SyncRetryBackoff:      getEnvDuration(EnvSyncRetryBackoff, DefaultSyncRetryBackoff),
		SyncReconcileInterval: getEnvDuration(EnvSyncReconcileInterval, 0),

		RoomsSeedFile: getEnvStr(EnvRoomsSeedFile, ""),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, logger.INFO),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		cfg.Log.Warn("Failed to read .env file", "error", dotenvErr)
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetPostgres() {
	cfg.Client.SetPostgres(cfg.Log, cfg.PostgresDSN, cfg.PostgresTracing)
}

// SetRedis connects to Redis when REDIS_ADDR is configured. Without it the
// room cache and idempotency store fall back to in-process implementations.
func (cfg *Config) SetRedis() {
	if cfg.RedisAddr == "" {
		cfg.Log.Info("Redis not configured, using in-memory fallbacks")
		return
	}
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
}

// SetStore connects whichever reservation store backend is configured.
func (cfg *Config) SetStore() {
	switch cfg.StoreBackend {
	case StorePostgres:
		cfg.SetPostgres()
	default:
		cfg.SetMongo()
	}
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	switch cfg.StoreBackend {
	case StoreMongo:
		if cfg.MongoURI == "" {
			errors = append(errors, "MongoURI cannot be empty")
		} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
			errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
		}
		if cfg.MongoDatabaseName == "" {
			errors = append(errors, "MongoDatabaseName cannot be empty")
		}
		if cfg.MongoConnTimeout <= 0 {
			errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
		}
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			errors = append(errors, "PostgresDSN cannot be empty when StoreBackend is postgres")
		}
	default:
		errors = append(errors, fmt.Sprintf("StoreBackend must be one of [mongo, postgres], got: %s", cfg.StoreBackend))
	}

	switch cfg.BookingConsistency {
	case ConsistencyStrict, ConsistencyRecheck, ConsistencyRelaxed:
	default:
		errors = append(errors, fmt.Sprintf("BookingConsistency must be one of [strict, recheck, relaxed], got: %s", cfg.BookingConsistency))
	}

	switch cfg.EventTransport {
	case TransportKafka, TransportAMQP:
	default:
		errors = append(errors, fmt.Sprintf("EventTransport must be one of [kafka, amqp], got: %s", cfg.EventTransport))
	}
	if cfg.ReservationEventsTopic == "" {
		errors = append(errors, "ReservationEventsTopic cannot be empty")
	}

	switch cfg.CalendarProvider {
	case CalendarMemory:
	case CalendarGoogle:
		if cfg.GoogleCredentialsFile == "" {
			errors = append(errors, "GoogleCredentialsFile cannot be empty when CalendarProvider is google")
		}
	default:
		errors = append(errors, fmt.Sprintf("CalendarProvider must be one of [google, memory], got: %s", cfg.CalendarProvider))
	}
	if cfg.CalendarID == "" {
		errors = append(errors, "CalendarID cannot be empty")
	}
	if _, err := time.LoadLocation(cfg.CalendarTimeZone); err != nil {
		errors = append(errors, fmt.Sprintf("CalendarTimeZone must be a valid IANA zone, got: %s", cfg.CalendarTimeZone))
	}

	if cfg.StoreTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("StoreTimeout must be positive, got: %s", cfg.StoreTimeout))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.FeedPollInterval <= 0 {
		errors = append(errors, fmt.Sprintf("FeedPollInterval must be positive, got: %s", cfg.FeedPollInterval))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.SyncMaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("SyncMaxAttempts must be at least 1, got: %d", cfg.SyncMaxAttempts))
	}
	if cfg.SyncMaxAttempts > 1 && cfg.SyncRetryBackoff <= 0 {
		errors = append(errors, fmt.Sprintf("SyncRetryBackoff must be positive when retries are enabled, got: %s", cfg.SyncRetryBackoff))
	}
	if cfg.RoomFeedLookback < 0 {
		errors = append(errors, fmt.Sprintf("RoomFeedLookback cannot be negative, got: %s", cfg.RoomFeedLookback))
	}
	if cfg.SyncReconcileInterval < 0 {
		errors = append(errors, fmt.Sprintf("SyncReconcileInterval cannot be negative, got: %s", cfg.SyncReconcileInterval))
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

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"store_backend", cfg.StoreBackend,
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"postgres_dsn_set", cfg.PostgresDSN != "",
		"postgres_tracing", cfg.PostgresTracing,
		"store_timeout", cfg.StoreTimeout,
		"booking_consistency", cfg.BookingConsistency,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"redis_addr", cfg.RedisAddr,
		"room_cache_ttl", cfg.RoomCacheTTL,
		"room_feed_lookback", cfg.RoomFeedLookback,
		"event_transport", cfg.EventTransport,
		"reservation_events_topic", cfg.ReservationEventsTopic,
		"reservation_events_dlq", cfg.ReservationEventsDLQ,
		"calendar_provider", cfg.CalendarProvider,
		"calendar_id", cfg.CalendarID,
		"calendar_time_zone", cfg.CalendarTimeZone,
		"sync_max_attempts", cfg.SyncMaxAttempts,
		"sync_reconcile_interval", cfg.SyncReconcileInterval,
	)

	if cfg.BookingConsistency == ConsistencyRelaxed {
		cfg.Log.Warn("Booking consistency is relaxed: concurrent overlapping bookings of the same room can both succeed")
	}
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = DefaultPageSize
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
