package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"roomly/internal/calendarsync"
	"roomly/internal/changefeed"
	reservationsrepo "roomly/internal/reservations/repository"
	roomsservice "roomly/internal/rooms/service"
	"roomly/pkg/amqp"
	"roomly/pkg/calendar"
	"roomly/pkg/config"
	"roomly/pkg/kafka"
	kafka_config "roomly/pkg/kafka/config"
	kafkamw "roomly/pkg/kafka/middleware"
)

const ServiceName = "calendar-sync"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := reservationsrepo.NewReservationRepository(cfg)
	bridge, err := calendarsync.NewBridge(store, roomsservice.NewCachedRoomDirectory(cfg), initCalendar(ctx, cfg), calendarsync.Options{
		CalendarID:   cfg.CalendarID,
		TimeZone:     cfg.CalendarTimeZone,
		MaxAttempts:  cfg.SyncMaxAttempts,
		RetryBackoff: cfg.SyncRetryBackoff,
	}, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create calendar bridge", "error", err)
	}

	subscriber := initSubscriber(cfg, bridge.Handle)
	defer func() {
		if err := subscriber.Close(); err != nil {
			cfg.Log.Error("Failed to close subscriber", "error", err)
		}
	}()

	var wg sync.WaitGroup
	if cfg.SyncReconcileInterval > 0 {
		reconciler := calendarsync.NewReconciler(bridge, store, cfg.SyncReconcileInterval, cfg.Log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reconciler.Run(ctx); err != nil {
				cfg.Log.Error("Reconciler stopped with error", "error", err)
			}
		}()
	}

	cfg.Log.Info("Starting calendar sync",
		"provider", cfg.CalendarProvider,
		"calendar_id", cfg.CalendarID,
		"transport", cfg.EventTransport,
		"reconcile_interval", cfg.SyncReconcileInterval,
	)
	if err := subscriber.Start(ctx); err != nil {
		cfg.Log.Error("Subscriber stopped with error", "error", err)
	}
	stop()
	wg.Wait()
	cfg.Log.Info("Calendar sync stopped")
}

func initCalendar(ctx context.Context, cfg *config.Config) calendar.Calendar {
	if cfg.CalendarProvider != config.CalendarGoogle {
		cfg.Log.Warn("Using in-memory calendar, mirrored events are not persisted")
		return calendar.NewMemoryCalendar()
	}

	cal, err := calendar.NewGoogleCalendar(ctx, cfg.GoogleCredentialsFile)
	if err != nil {
		cfg.Log.Fatal("Failed to create Google Calendar client", "error", err)
	}
	return cal
}

func initSubscriber(cfg *config.Config, handle changefeed.Handler) changefeed.Subscriber {
	if cfg.EventTransport == config.TransportAMQP {
		consumer, err := amqp.NewConsumer(cfg.AMQPURL, cfg.ReservationEventsTopic, 0, changefeed.AMQPHandler(handle), cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create AMQP consumer", "error", err)
		}
		return changefeed.NewAMQPSubscriber(consumer)
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.ReservationEventsTopic,
		cfg.SyncConsumerGroup,
		cfg.ReservationEventsDLQ,
		changefeed.KafkaHandler(handle),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	if kafkaCfg.Instrument {
		consumer.Use(kafkamw.LoggingConsumerMiddleware(cfg.Log))
	}
	return changefeed.NewKafkaSubscriber(consumer)
}
