package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/marwilliams/reservo/internal/booking"
	"github.com/marwilliams/reservo/internal/pkg/apperror"
	"github.com/marwilliams/reservo/internal/pkg/request"
	"github.com/marwilliams/reservo/internal/pkg/response"
	"github.com/marwilliams/reservo/internal/recurrence"
)

type Handler struct {
	service booking.Service
	logger  zerolog.Logger
}

func NewHandler(service booking.Service, logger zerolog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Create implements POST /bookings: it dispatches to the single or
// recurring path based on whether recurrence_rule is present.
func (h *Handler) Create(c *gin.Context) {
	var body CreateBookingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err := body.Validate(); err != nil {
		response.Error(c, toAppError(err))
		return
	}

	var created *booking.Booking
	var conflict *booking.Conflict
	var err error

	if body.RecurrenceRule == "" {
		created, conflict, err = h.service.CreateSingleBooking(c.Request.Context(), body.ResourceID, body.StartTime, body.EndTime, body.Metadata)
	} else {
		exceptions, exErr := body.toExceptions()
		if exErr != nil {
			response.Error(c, toAppError(exErr))
			return
		}
		created, conflict, err = h.service.CreateRecurringBooking(c.Request.Context(), body.ResourceID, body.StartTime, body.EndTime, body.RecurrenceRule, exceptions, body.Metadata)
	}

	if err != nil {
		h.logger.Error().Err(err).Str("resource_id", body.ResourceID).Msg("create booking failed")
		response.Error(c, toAppError(err))
		return
	}

	if conflict != nil {
		c.JSON(http.StatusConflict, NewConflictResponse(conflict))
		return
	}

	c.JSON(http.StatusCreated, CreateBookingResponse{Status: "success", Booking: NewBookingResponse(created)})
}

// Get implements a lookup by id, used by operators and by integration
// tests to confirm a created booking's persisted shape.
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

	b, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, toAppError(err))
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// Availability implements GET /availability.
func (h *Handler) Availability(c *gin.Context) {
	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, toAppError(err))
		return
	}

	resourceName, slots, busyCount, err := h.service.Availability(c.Request.Context(), req.ResourceID, req.From, req.To, req.Slot)
	if err != nil {
		response.Error(c, toAppError(err))
		return
	}

	available := make([]SlotResponse, 0, len(slots))
	for _, s := range slots {
		available = append(available, SlotResponse{Start: s.Start.UTC(), End: s.End.UTC(), DurationMinutes: s.DurationMinutes})
	}

	c.JSON(http.StatusOK, AvailabilityResponse{
		ResourceID:          req.ResourceID,
		ResourceName:        resourceName,
		From:                req.From.UTC(),
		To:                  req.To.UTC(),
		SlotDurationMinutes: req.Slot,
		AvailableSlots:      available,
		BusySlotsCount:      busyCount,
	})
}

// toAppError maps the core's error taxonomy onto apperror.AppError so
// response.Error can pick the right status code.
// Errors that are already an *apperror.AppError pass through unchanged.
func toAppError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperror.NewCancelled(err)
	case errors.Is(err, booking.ErrInvalidTimeRange),
		errors.Is(err, booking.ErrExceptionsNoRecur),
		errors.Is(err, booking.ErrInvalidReplacement):
		return apperror.NewValidation(err.Error(), nil)
	case errors.Is(err, booking.ErrResourceNotFound):
		return apperror.NewResourceNotFound(err.Error())
	case errors.Is(err, booking.ErrNotFound):
		return apperror.NewResourceNotFound(err.Error())
	case errors.Is(err, recurrence.ErrInvalidRecurrence):
		return apperror.NewInvalidRecurrence(err)
	default:
		return apperror.NewStorage(err)
	}
}
