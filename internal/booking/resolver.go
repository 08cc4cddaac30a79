package booking

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/marwilliams/reservo/internal/recurrence"
)

// busySetSource is the slice of Repository/Tx that BusySet needs. Both the
// top-level Repository and the resource-locked Tx satisfy it, so the
// resolver can run identically outside and inside the writer's
// transaction, which re-checks the busy set under the resource lock
// before committing a recurring booking.
type busySetSource interface {
	NonRecurringOverlapping(ctx context.Context, resourceID string, windowStart, windowEnd time.Time) ([]*Booking, error)
	RecurringStartingBefore(ctx context.Context, resourceID string, windowEnd time.Time) ([]*Booking, error)
}

// Resolver is the busy-set resolver. Given a resource and a window it
// produces the busy set: single bookings plus expanded recurring
// occurrences, sorted by start but not coalesced.
type Resolver struct {
	repo   Repository
	logger zerolog.Logger
}

func NewResolver(repo Repository, logger zerolog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

// BusySet returns the sorted busy instances on resourceID overlapping
// [windowStart, windowEnd).
func (r *Resolver) BusySet(ctx context.Context, resourceID string, windowStart, windowEnd time.Time) ([]BusyInstance, error) {
	return resolveBusySet(ctx, r.repo, r.logger, resourceID, windowStart, windowEnd)
}

func resolveBusySet(ctx context.Context, src busySetSource, logger zerolog.Logger, resourceID string, windowStart, windowEnd time.Time) ([]BusyInstance, error) {
	singles, err := src.NonRecurringOverlapping(ctx, resourceID, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	recurrings, err := src.RecurringStartingBefore(ctx, resourceID, windowEnd)
	if err != nil {
		return nil, err
	}

	instances := make([]BusyInstance, 0, len(singles))
	for _, b := range singles {
		instances = append(instances, BusyInstance{BookingID: b.ID, Start: b.Start, End: b.End, IsRecurring: false})
	}

	for _, b := range recurrings {
		occurrences, err := expandForWindow(b, windowStart, windowEnd)
		if err != nil {
			// A persisted rule that no longer parses is logged and
			// skipped rather than aborting the whole query.
			logger.Error().Err(err).Str("booking_id", b.ID).Str("resource_id", resourceID).
				Msg("skipping recurring booking with unparseable recurrence rule")
			continue
		}
		for _, o := range occurrences {
			if o.Start.Before(windowEnd) && o.End.After(windowStart) {
				instances = append(instances, BusyInstance{BookingID: b.ID, Start: o.Start, End: o.End, IsRecurring: true})
			}
		}
	}

	sort.SliceStable(instances, func(i, j int) bool {
		return instances[i].Start.Before(instances[j].Start)
	})

	return instances, nil
}

// expandForWindow expands a recurring booking's occurrences over
// [windowStart-D, windowEnd) so that an occurrence starting before
// windowStart but ending inside it is still produced.
func expandForWindow(b *Booking, windowStart, windowEnd time.Time) ([]recurrence.Occurrence, error) {
	duration := b.End.Sub(b.Start)
	expandFrom := windowStart.Add(-duration)

	exceptions := make([]recurrence.Exception, 0, len(b.Exceptions))
	for _, e := range b.Exceptions {
		exceptions = append(exceptions, recurrence.Exception{
			ExceptDate:   e.ExceptDate,
			ReplaceStart: e.ReplaceStart,
			ReplaceEnd:   e.ReplaceEnd,
		})
	}

	return recurrence.Expand(b.Rule.RRule, expandFrom, windowEnd, b.Start, b.End, exceptions)
}
