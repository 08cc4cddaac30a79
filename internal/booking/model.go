package booking

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("booking not found")
	ErrInvalidTimeRange   = errors.New("end time must be after start time")
	ErrResourceNotFound   = errors.New("resource not found")
	ErrExceptionsNoRecur  = errors.New("exceptions are only valid on a recurring booking")
	ErrInvalidReplacement = errors.New("replace_start and replace_end must both be present or both be absent")
)

// Booking is a reservation of a resource over an absolute half-open
// interval [Start, End). A Booking with a nil Rule is a single booking;
// one with a non-nil Rule is recurring and owns exactly one
// RecurrenceRule plus zero or more Exceptions.
type Booking struct {
	ID         string
	ResourceID string
	Start      time.Time
	End        time.Time
	Metadata   json.RawMessage
	CreatedAt  time.Time

	IsRecurring bool
	Rule        *RecurrenceRule
	Exceptions  []Exception
}

// RecurrenceRule is attached one-to-one to a recurring booking.
type RecurrenceRule struct {
	BookingID  string
	RRule      string
	IsInfinite bool
}

// Exception is a per-date override on a recurring booking's occurrences.
type Exception struct {
	ID           string
	BookingID    string
	ExceptDate   time.Time
	ReplaceStart *time.Time
	ReplaceEnd   *time.Time
}

// Validate checks that ReplaceStart/ReplaceEnd are both present or both
// absent and, when present, that the replacement interval is
// well-formed.
func (e Exception) Validate() error {
	if (e.ReplaceStart == nil) != (e.ReplaceEnd == nil) {
		return ErrInvalidReplacement
	}
	if e.ReplaceStart != nil && !e.ReplaceEnd.After(*e.ReplaceStart) {
		return ErrInvalidReplacement
	}
	return nil
}

// BusyInstance is one materialized occupied interval on a resource,
// tagged with its origin booking. It is the unit the busy-set resolver
// produces and the interval primitives (overlap, merge, gap) consume.
type BusyInstance struct {
	BookingID   string
	Start       time.Time
	End         time.Time
	IsRecurring bool
}

// validateTimeRange enforces end > start for single bookings and
// recurring templates. Exception replacements are checked by
// Exception.Validate.
func validateTimeRange(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidTimeRange
	}
	return nil
}
