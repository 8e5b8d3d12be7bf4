package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"roomly/internal/changefeed"
	"roomly/pkg/amqp"
	"roomly/pkg/config"
	"roomly/pkg/kafka"
	kafka_config "roomly/pkg/kafka/config"
	kafkamw "roomly/pkg/kafka/middleware"
)

const ServiceName = "feed-relay"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()
	defer cfg.GracefulShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source := initSource(cfg)
	publisher, metrics := initPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
		if metrics != nil {
			metrics.Log(cfg.Log)
		}
	}()

	cfg.Log.Info("Starting reservation feed relay",
		"store", cfg.StoreBackend,
		"transport", cfg.EventTransport,
		"topic", cfg.ReservationEventsTopic,
	)
	if err := changefeed.NewRelay(source, publisher, cfg.Log).Run(ctx); err != nil {
		cfg.Log.Error("Feed relay stopped with error", "error", err)
		return
	}
	cfg.Log.Info("Feed relay stopped")
}

func initSource(cfg *config.Config) changefeed.Source {
	if cfg.StoreBackend == config.StorePostgres {
		return changefeed.NewOutboxSource(cfg.Client.Postgres, cfg.FeedPollInterval, cfg.Log)
	}
	return changefeed.NewMongoSource(cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.Log)
}

func initPublisher(cfg *config.Config) (changefeed.Publisher, *kafkamw.Metrics) {
	if cfg.EventTransport == config.TransportAMQP {
		publisher, err := amqp.NewPublisher(cfg.AMQPURL, cfg.ReservationEventsTopic, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create AMQP publisher", "error", err)
		}
		return changefeed.NewAMQPPublisher(publisher), nil
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.ReservationEventsTopic, cfg.ReservationEventsDLQ, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	var metrics *kafkamw.Metrics
	if kafkaCfg.Instrument {
		metrics = kafkamw.NewMetrics()
		producer.Use(kafkamw.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafkamw.MetricsProducerMiddleware(metrics))
	}
	return changefeed.NewKafkaPublisher(producer), metrics
}
