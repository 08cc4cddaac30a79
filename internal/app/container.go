package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/marwilliams/reservo/internal/api"
	"github.com/marwilliams/reservo/internal/booking"
	"github.com/marwilliams/reservo/internal/resource"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	DBPool              *pgxpool.Pool
	Logger              zerolog.Logger
	RecurrenceExpansion time.Duration
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router *gin.Engine
}

// NewContainer wires the resource and booking modules onto the pool and
// returns the assembled HTTP router.
func NewContainer(cfg Config) *Container {
	// Resource module
	resRepo := resource.NewPgxRepository(cfg.DBPool)
	resService := resource.NewService(resRepo)

	// Booking module
	bookingRepo := booking.NewPgxRepository(cfg.DBPool)
	resolver := booking.NewResolver(bookingRepo, cfg.Logger)
	availability := booking.NewAvailability(resolver)
	writer := booking.NewWriter(bookingRepo, resolver, availability, cfg.Logger, cfg.RecurrenceExpansion)
	bookingService := booking.NewService(bookingRepo, writer, availability, resService)

	router := api.NewRouter(api.Config{
		ResourceService: resService,
		BookingService:  bookingService,
		Logger:          cfg.Logger,
	})

	return &Container{Router: router}
}
