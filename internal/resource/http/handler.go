package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marwilliams/reservo/internal/pkg/apperror"
	"github.com/marwilliams/reservo/internal/pkg/request"
	"github.com/marwilliams/reservo/internal/pkg/response"
	"github.com/marwilliams/reservo/internal/resource"
)

type Handler struct {
	service resource.Service
}

func NewHandler(service resource.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	res, err := h.service.Create(c.Request.Context(), resource.CreateRequest{Name: body.Name})
	if err != nil {
		response.Error(c, apperror.NewValidation(err.Error(), map[string]string{"name": err.Error()}))
		return
	}

	c.JSON(http.StatusCreated, NewResponse(res))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}
	if err := uri.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id", "details": err.Error()})
		return
	}

	res, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		if err == resource.ErrNotFound {
			response.Error(c, apperror.NewResourceNotFound(err.Error()))
			return
		}
		response.Error(c, apperror.NewStorage(err))
		return
	}

	c.JSON(http.StatusOK, NewResponse(res))
}
