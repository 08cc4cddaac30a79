package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/marwilliams/reservo/internal/booking"
	bookingHttp "github.com/marwilliams/reservo/internal/booking/http"
	"github.com/marwilliams/reservo/internal/resource"
	resHttp "github.com/marwilliams/reservo/internal/resource/http"
)

// Config holds all dependencies required to initialize the router.
type Config struct {
	ResourceService resource.Service
	BookingService  booking.Service
	Logger          zerolog.Logger
}

// NewRouter initializes the HTTP router engine using the provided config.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(cfg.Logger))

	resHandler := resHttp.NewHandler(cfg.ResourceService)
	bookingHandler := bookingHttp.NewHandler(cfg.BookingService, cfg.Logger)

	v1 := r.Group("/v1")
	{
		resHttp.RegisterRoutes(v1, resHandler)
		bookingHttp.RegisterRoutes(v1, bookingHandler)
	}

	return r
}

// requestLogger emits one structured log line per request in place of
// gin's default text logger, matching the rest of the service's
// zerolog-based logging.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("request handled")
	}
}
