package booking

import (
	"context"
	"strconv"
	"time"

	"github.com/marwilliams/reservo/internal/interval"
)

// fakeRepo is an in-memory stand-in for Repository used across this
// package's unit tests. It mirrors the pgx implementation's overlap
// semantics closely enough to exercise the resolver, writer, and
// availability search without a database.
type fakeRepo struct {
	nextID     int
	singles    []*Booking
	recurrings []*Booking
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{}
}

func (r *fakeRepo) genID() string {
	r.nextID++
	return "b" + strconv.Itoa(r.nextID)
}

func (r *fakeRepo) CreateSingle(ctx context.Context, b *Booking) error {
	if err := validateTimeRange(b.Start, b.End); err != nil {
		return err
	}
	for _, existing := range r.allOccupied(b.ResourceID) {
		if interval.Overlaps(interval.Interval{Start: b.Start, End: b.End}, existing) {
			return ErrOverlap
		}
	}
	b.ID = r.genID()
	b.CreatedAt = time.Now()
	r.singles = append(r.singles, b)
	return nil
}

func (r *fakeRepo) allOccupied(resourceID string) []interval.Interval {
	var out []interval.Interval
	for _, b := range r.singles {
		if b.ResourceID == resourceID {
			out = append(out, interval.Interval{Start: b.Start, End: b.End})
		}
	}
	return out
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*Booking, error) {
	for _, b := range r.singles {
		if b.ID == id {
			return b, nil
		}
	}
	for _, b := range r.recurrings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, ErrNotFound
}

func (r *fakeRepo) NonRecurringOverlapping(ctx context.Context, resourceID string, windowStart, windowEnd time.Time) ([]*Booking, error) {
	var out []*Booking
	for _, b := range r.singles {
		if b.ResourceID != resourceID {
			continue
		}
		if b.Start.Before(windowEnd) && b.End.After(windowStart) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeRepo) RecurringStartingBefore(ctx context.Context, resourceID string, windowEnd time.Time) ([]*Booking, error) {
	var out []*Booking
	for _, b := range r.recurrings {
		if b.ResourceID != resourceID {
			continue
		}
		if b.Start.Before(windowEnd) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeRepo) WithResourceLock(ctx context.Context, resourceID string, fn func(tx Tx) error) error {
	return fn(&fakeTx{repo: r})
}

// fakeTx mirrors pgxTxWrapper: reads run against the same in-memory
// state (no real isolation is needed for these single-threaded tests),
// and InsertRecurring commits directly into r.recurrings.
type fakeTx struct {
	repo *fakeRepo
}

func (t *fakeTx) NonRecurringOverlapping(ctx context.Context, resourceID string, windowStart, windowEnd time.Time) ([]*Booking, error) {
	return t.repo.NonRecurringOverlapping(ctx, resourceID, windowStart, windowEnd)
}

func (t *fakeTx) RecurringStartingBefore(ctx context.Context, resourceID string, windowEnd time.Time) ([]*Booking, error) {
	return t.repo.RecurringStartingBefore(ctx, resourceID, windowEnd)
}

func (t *fakeTx) InsertRecurring(ctx context.Context, b *Booking) error {
	if err := validateTimeRange(b.Start, b.End); err != nil {
		return err
	}
	b.ID = t.repo.genID()
	b.CreatedAt = time.Now()
	b.IsRecurring = true
	if b.Rule != nil {
		b.Rule.BookingID = b.ID
	}
	for i := range b.Exceptions {
		b.Exceptions[i].BookingID = b.ID
	}
	t.repo.recurrings = append(t.repo.recurrings, b)
	return nil
}
