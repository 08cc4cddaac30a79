package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers the booking engine's external HTTP surface:
// creation, lookup by id, and availability.
func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	g.POST("/bookings", h.Create)
	g.GET("/bookings/:id", h.Get)
	g.GET("/availability", h.Availability)
}
