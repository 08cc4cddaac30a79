package http

import (
	"encoding/json"
	"time"

	"github.com/marwilliams/reservo/internal/booking"
)

// ExceptionRequest is one entry of the create-booking request's
// exceptions list.
type ExceptionRequest struct {
	Date         string     `json:"date" binding:"required"`
	ReplaceStart *time.Time `json:"replace_start"`
	ReplaceEnd   *time.Time `json:"replace_end"`
}

// CreateBookingRequest is the POST /bookings request body. It accepts
// either a single booking (no recurrence_rule) or a recurring one.
type CreateBookingRequest struct {
	ResourceID     string             `json:"resource_id" binding:"required,uuid"`
	StartTime      time.Time          `json:"start_time" binding:"required"`
	EndTime        time.Time          `json:"end_time" binding:"required"`
	Metadata       json.RawMessage    `json:"metadata"`
	RecurrenceRule string             `json:"recurrence_rule"`
	Exceptions     []ExceptionRequest `json:"exceptions"`
}

// Validate performs the field-level checks required ahead of any store
// or core call.
func (r *CreateBookingRequest) Validate() error {
	if !r.EndTime.After(r.StartTime) {
		return booking.ErrInvalidTimeRange
	}
	if len(r.Exceptions) > 0 && r.RecurrenceRule == "" {
		return booking.ErrExceptionsNoRecur
	}
	for _, e := range r.Exceptions {
		if (e.ReplaceStart == nil) != (e.ReplaceEnd == nil) {
			return booking.ErrInvalidReplacement
		}
	}
	return nil
}

func (r *CreateBookingRequest) toExceptions() ([]booking.Exception, error) {
	out := make([]booking.Exception, 0, len(r.Exceptions))
	for _, e := range r.Exceptions {
		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			return nil, booking.ErrInvalidReplacement
		}
		out = append(out, booking.Exception{
			ExceptDate:   d,
			ReplaceStart: e.ReplaceStart,
			ReplaceEnd:   e.ReplaceEnd,
		})
	}
	return out, nil
}

// RecurrenceRuleResponse is the recurrence_rule object embedded in a
// BookingResponse for recurring bookings.
type RecurrenceRuleResponse struct {
	RRule      string `json:"rrule"`
	IsInfinite bool   `json:"is_infinite"`
}

// ExceptionResponse is one exceptions[] entry embedded in a
// BookingResponse.
type ExceptionResponse struct {
	Date         string     `json:"date"`
	ReplaceStart *time.Time `json:"replace_start,omitempty"`
	ReplaceEnd   *time.Time `json:"replace_end,omitempty"`
}

// BookingResponse is the booking object in the create-booking 201
// payload.
type BookingResponse struct {
	ID             string                  `json:"id"`
	ResourceID     string                  `json:"resource_id"`
	StartTime      time.Time               `json:"start_time"`
	EndTime        time.Time               `json:"end_time"`
	Metadata       json.RawMessage         `json:"metadata"`
	CreatedAt      time.Time               `json:"created_at"`
	IsRecurring    bool                    `json:"is_recurring"`
	RecurrenceRule *RecurrenceRuleResponse `json:"recurrence_rule,omitempty"`
	Exceptions     []ExceptionResponse     `json:"exceptions"`
}

// NewBookingResponse builds the wire representation of a persisted
// booking.
func NewBookingResponse(b *booking.Booking) BookingResponse {
	resp := BookingResponse{
		ID:          b.ID,
		ResourceID:  b.ResourceID,
		StartTime:   b.Start.UTC(),
		EndTime:     b.End.UTC(),
		Metadata:    b.Metadata,
		CreatedAt:   b.CreatedAt.UTC(),
		IsRecurring: b.IsRecurring,
		Exceptions:  make([]ExceptionResponse, 0, len(b.Exceptions)),
	}

	if b.Rule != nil {
		resp.RecurrenceRule = &RecurrenceRuleResponse{RRule: b.Rule.RRule, IsInfinite: b.Rule.IsInfinite}
	}

	for _, e := range b.Exceptions {
		resp.Exceptions = append(resp.Exceptions, ExceptionResponse{
			Date:         e.ExceptDate.UTC().Format("2006-01-02"),
			ReplaceStart: e.ReplaceStart,
			ReplaceEnd:   e.ReplaceEnd,
		})
	}

	return resp
}

// CreateBookingResponse is the 201 envelope.
type CreateBookingResponse struct {
	Status  string          `json:"status"`
	Booking BookingResponse `json:"booking"`
}

// ConflictEntryResponse is one conflicts[] entry in the 409 envelope.
type ConflictEntryResponse struct {
	BookingID       string     `json:"booking_id"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	IsRecurring     bool       `json:"is_recurring"`
	OccurrenceStart *time.Time `json:"occurrence_start,omitempty"`
	OccurrenceEnd   *time.Time `json:"occurrence_end,omitempty"`
}

// SlotResponse is one available_slots[]/next_available[] entry.
type SlotResponse struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
}

// ConflictResponse is the 409 envelope.
type ConflictResponse struct {
	Status        string                  `json:"status"`
	Message       string                  `json:"message"`
	Conflicts     []ConflictEntryResponse `json:"conflicts"`
	NextAvailable []SlotResponse          `json:"next_available"`
}

// NewConflictResponse builds the 409 body from a core Conflict value.
func NewConflictResponse(c *booking.Conflict) ConflictResponse {
	conflicts := make([]ConflictEntryResponse, 0, len(c.Conflicts))
	for _, entry := range c.Conflicts {
		conflicts = append(conflicts, ConflictEntryResponse{
			BookingID:       entry.BookingID,
			Start:           entry.Start.UTC(),
			End:             entry.End.UTC(),
			IsRecurring:     entry.IsRecurring,
			OccurrenceStart: entry.OccurrenceStart,
			OccurrenceEnd:   entry.OccurrenceEnd,
		})
	}

	next := make([]SlotResponse, 0, len(c.NextAvailable))
	for _, s := range c.NextAvailable {
		next = append(next, SlotResponse{Start: s.Start.UTC(), End: s.End.UTC()})
	}

	return ConflictResponse{
		Status:        "conflict",
		Message:       "requested interval overlaps an existing booking",
		Conflicts:     conflicts,
		NextAvailable: next,
	}
}

// AvailabilityRequest is the GET /availability query.
type AvailabilityRequest struct {
	ResourceID string    `form:"resource_id" binding:"required,uuid"`
	From       time.Time `form:"from" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	To         time.Time `form:"to" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
	Slot       int       `form:"slot"`
}

// Validate requires to > from and defaults Slot to 60 minutes when unset.
func (r *AvailabilityRequest) Validate() error {
	if !r.To.After(r.From) {
		return booking.ErrInvalidTimeRange
	}
	if r.Slot <= 0 {
		r.Slot = 60
	}
	return nil
}

// AvailabilityResponse is the GET /availability 200 envelope.
type AvailabilityResponse struct {
	ResourceID          string         `json:"resource_id"`
	ResourceName        string         `json:"resource_name"`
	From                time.Time      `json:"from"`
	To                  time.Time      `json:"to"`
	SlotDurationMinutes int            `json:"slot_duration_minutes"`
	AvailableSlots      []SlotResponse `json:"available_slots"`
	BusySlotsCount      int            `json:"busy_slots_count"`
}
