package booking

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/marwilliams/reservo/internal/recurrence"
)

// errConflictDetected is an internal sentinel used to abort (roll back)
// the resource-locked transaction in CreateRecurringBooking once any
// occurrence conflict is found, without persisting anything.
var errConflictDetected = errors.New("conflict detected")

// Writer is the conflict checker & writer. It assumes the caller
// (Service) has already confirmed the resource exists; Writer's only job
// is the non-overlap check and the atomic persist.
type Writer struct {
	repo            Repository
	resolver        *Resolver
	availability    *Availability
	logger          zerolog.Logger
	expansionWindow time.Duration
}

func NewWriter(repo Repository, resolver *Resolver, availability *Availability, logger zerolog.Logger, expansionWindow time.Duration) *Writer {
	if expansionWindow <= 0 {
		expansionWindow = 90 * 24 * time.Hour
	}
	return &Writer{repo: repo, resolver: resolver, availability: availability, logger: logger, expansionWindow: expansionWindow}
}

// CreateSingleBooking attempts the insert, relying on the storage
// exclusion constraint as the non-overlap invariant's source of truth,
// and builds a structured Conflict only when that constraint rejects
// it.
func (w *Writer) CreateSingleBooking(ctx context.Context, resourceID string, start, end time.Time, metadata json.RawMessage) (*Booking, *Conflict, error) {
	if err := validateTimeRange(start, end); err != nil {
		return nil, nil, err
	}

	b := &Booking{ResourceID: resourceID, Start: start, End: end, Metadata: metadata}
	err := w.repo.CreateSingle(ctx, b)
	if err == nil {
		return b, nil, nil
	}
	if !errors.Is(err, ErrOverlap) {
		return nil, nil, err
	}

	conflict, buildErr := w.buildSimpleConflict(ctx, resourceID, start, end)
	if buildErr != nil {
		return nil, nil, buildErr
	}
	return nil, conflict, nil
}

func (w *Writer) buildSimpleConflict(ctx context.Context, resourceID string, start, end time.Time) (*Conflict, error) {
	busy, err := w.resolver.BusySet(ctx, resourceID, start, end)
	if err != nil {
		return nil, err
	}

	entries := make([]ConflictEntry, 0, len(busy))
	for _, bi := range busy {
		entries = append(entries, ConflictEntry{BookingID: bi.BookingID, Start: bi.Start, End: bi.End, IsRecurring: bi.IsRecurring})
	}

	durationMinutes := int(end.Sub(start) / time.Minute)
	next, err := w.availability.NextAvailable(ctx, resourceID, start, durationMinutes, DefaultNextAvailableOptions())
	if err != nil {
		return nil, err
	}

	return &Conflict{Conflicts: entries, NextAvailable: next.Suggestions}, nil
}

// CreateRecurringBooking validates the RRULE, expands it over the
// configured validation window, checks every occurrence against the
// existing busy set without short-circuiting, and — only if nothing
// conflicts — persists the booking, rule, and exceptions atomically
// under a resource-scoped lock that also serializes concurrent
// recurring creates on the same resource.
func (w *Writer) CreateRecurringBooking(ctx context.Context, resourceID string, start, end time.Time, rruleText string, exceptions []Exception, metadata json.RawMessage) (*Booking, *Conflict, error) {
	if err := validateTimeRange(start, end); err != nil {
		return nil, nil, err
	}
	if err := recurrence.Validate(rruleText); err != nil {
		return nil, nil, err
	}
	for _, e := range exceptions {
		if err := e.Validate(); err != nil {
			return nil, nil, err
		}
	}

	infinite, err := recurrence.IsInfinite(rruleText)
	if err != nil {
		return nil, nil, err
	}

	validationEnd := start.Add(w.expansionWindow)
	recurExceptions := toRecurrenceExceptions(exceptions)

	occurrences, err := recurrence.Expand(rruleText, start, validationEnd, start, end, recurExceptions)
	if err != nil {
		return nil, nil, err
	}

	var collected []ConflictEntry
	var created *Booking

	lockErr := w.repo.WithResourceLock(ctx, resourceID, func(tx Tx) error {
		busy, err := resolveBusySet(ctx, tx, w.logger, resourceID, start, validationEnd)
		if err != nil {
			return err
		}

		for _, occ := range occurrences {
			for _, bi := range busy {
				if occ.Start.Before(bi.End) && bi.Start.Before(occ.End) {
					occStart, occEnd := occ.Start, occ.End
					collected = append(collected, ConflictEntry{
						BookingID:       bi.BookingID,
						Start:           bi.Start,
						End:             bi.End,
						IsRecurring:     bi.IsRecurring,
						OccurrenceStart: &occStart,
						OccurrenceEnd:   &occEnd,
					})
				}
			}
		}

		if len(collected) > 0 {
			return errConflictDetected
		}

		b := &Booking{
			ResourceID:  resourceID,
			Start:       start,
			End:         end,
			Metadata:    metadata,
			IsRecurring: true,
			Rule:        &RecurrenceRule{RRule: rruleText, IsInfinite: infinite},
			Exceptions:  exceptions,
		}
		if err := tx.InsertRecurring(ctx, b); err != nil {
			return err
		}
		created = b
		return nil
	})

	if lockErr == nil {
		return created, nil, nil
	}
	if !errors.Is(lockErr, errConflictDetected) {
		return nil, nil, lockErr
	}

	durationMinutes := int(end.Sub(start) / time.Minute)
	next, err := w.availability.NextAvailable(ctx, resourceID, start, durationMinutes, DefaultNextAvailableOptions())
	if err != nil {
		return nil, nil, err
	}
	return nil, &Conflict{Conflicts: collected, NextAvailable: next.Suggestions}, nil
}

func toRecurrenceExceptions(exceptions []Exception) []recurrence.Exception {
	out := make([]recurrence.Exception, len(exceptions))
	for i, e := range exceptions {
		out[i] = recurrence.Exception{ExceptDate: e.ExceptDate, ReplaceStart: e.ReplaceStart, ReplaceEnd: e.ReplaceEnd}
	}
	return out
}
