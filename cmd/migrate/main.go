package main

import (
	"context"
	"time"

	mongoMigration "roomly/internal/migrations/mongo"
	postgresMigration "roomly/internal/migrations/postgres"
	"roomly/internal/migrations/seed"
	"roomly/internal/reservations/validator"
	roomsrepo "roomly/internal/rooms/repository"
	"roomly/pkg/config"
)

const JobName = "migrate"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetStore()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting migration job", "store", cfg.StoreBackend)
	if err := migrate(ctx, cfg); err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Migration failed", "error", err)
	}

	if cfg.RoomsSeedFile != "" {
		if err := seedRooms(ctx, cfg); err != nil {
			cfg.GracefulShutdown()
			cfg.Log.Fatal("Room seeding failed", "file", cfg.RoomsSeedFile, "error", err)
		}
	}
	cfg.Log.Info("Migration completed successfully")
}

func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.StoreBackend == config.StorePostgres {
		return postgresMigration.RunMigration(ctx, cfg.Client.Postgres, cfg.Log)
	}
	return mongoMigration.RunMigration(ctx, cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.Log)
}

func seedRooms(ctx context.Context, cfg *config.Config) error {
	rooms, err := seed.LoadRooms(cfg.RoomsSeedFile)
	if err != nil {
		return err
	}

	return seed.SeedRooms(ctx, roomsrepo.NewRoomRepository(cfg), validator.NewReservationValidator(cfg.Log), rooms, cfg.Log)
}
