package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/resources")
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
}
