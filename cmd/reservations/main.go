package main

import (
	reservationshandler "roomly/internal/reservations/handler"
	"roomly/internal/reservations/repository"
	"roomly/internal/reservations/service"
	"roomly/internal/reservations/validator"
	roomshandler "roomly/internal/rooms/handler"
	roomsservice "roomly/internal/rooms/service"
	"roomly/pkg/app"
	"roomly/pkg/config"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()
	cfg.SetRedis()

	cfg.Log.Info("Starting Reservations service")
	directory := roomsservice.NewCachedRoomDirectory(cfg)
	reservationService := initServices(cfg, directory)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		roomshandler.NewRoomHandler(directory, cfg.Log),
		reservationshandler.NewReservationHandler(reservationService, directory, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, rooms service.RoomLookup) service.ReservationService {
	reservationService := service.NewReservationService(
		repository.NewReservationRepository(cfg),
		rooms,
		validator.NewReservationValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Reservation service initialized",
		"store", cfg.StoreBackend,
		"consistency", cfg.BookingConsistency,
	)
	return reservationService
}
