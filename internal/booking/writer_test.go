package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marwilliams/reservo/internal/recurrence"
)

func newTestWriter(repo *fakeRepo) *Writer {
	resolver := NewResolver(repo, zerolog.Nop())
	availability := NewAvailability(resolver)
	return NewWriter(repo, resolver, availability, zerolog.Nop(), 90*24*time.Hour)
}

// TestCreateSingleBooking_AdjacentOK covers a request starting exactly
// where an existing booking ends: adjacency at the end instant is not
// an overlap.
func TestCreateSingleBooking_AdjacentOK(t *testing.T) {
	repo := newFakeRepo()
	w := newTestWriter(repo)
	ctx := context.Background()

	b1Start := time.Date(2025, 12, 2, 10, 0, 0, 0, time.UTC)
	b1End := time.Date(2025, 12, 2, 11, 0, 0, 0, time.UTC)
	_, conflict, err := w.CreateSingleBooking(ctx, "R", b1Start, b1End, nil)
	require.NoError(t, err)
	require.Nil(t, conflict)

	b2Start := b1End
	b2End := time.Date(2025, 12, 2, 12, 0, 0, 0, time.UTC)
	created, conflict, err := w.CreateSingleBooking(ctx, "R", b2Start, b2End, nil)
	require.NoError(t, err)
	require.Nil(t, conflict)
	assert.NotEmpty(t, created.ID)
}

// TestCreateSingleBooking_OverlapConflict covers a request that
// partially overlaps an existing booking.
func TestCreateSingleBooking_OverlapConflict(t *testing.T) {
	repo := newFakeRepo()
	w := newTestWriter(repo)
	ctx := context.Background()

	b1Start := time.Date(2025, 12, 2, 10, 0, 0, 0, time.UTC)
	b1End := time.Date(2025, 12, 2, 11, 0, 0, 0, time.UTC)
	b1, _, err := w.CreateSingleBooking(ctx, "R", b1Start, b1End, nil)
	require.NoError(t, err)

	reqStart := time.Date(2025, 12, 2, 10, 30, 0, 0, time.UTC)
	reqEnd := time.Date(2025, 12, 2, 11, 30, 0, 0, time.UTC)
	created, conflict, err := w.CreateSingleBooking(ctx, "R", reqStart, reqEnd, nil)
	require.NoError(t, err)
	require.Nil(t, created)
	require.NotNil(t, conflict)

	require.Len(t, conflict.Conflicts, 1)
	assert.Equal(t, b1.ID, conflict.Conflicts[0].BookingID)
	assert.Equal(t, b1Start, conflict.Conflicts[0].Start)
	assert.Equal(t, b1End, conflict.Conflicts[0].End)

	require.NotEmpty(t, conflict.NextAvailable)
	assert.Equal(t, b1End, conflict.NextAvailable[0].Start)
}

// TestCreateRecurringBooking_ConflictCarriesOccurrenceTags covers each
// conflict entry naming the clashing occurrence's own interval, not
// just the owning booking's template.
func TestCreateRecurringBooking_ConflictCarriesOccurrenceTags(t *testing.T) {
	repo := newFakeRepo()
	w := newTestWriter(repo)
	ctx := context.Background()

	clash := time.Date(2025, 11, 17, 10, 30, 0, 0, time.UTC)
	clashEnd := time.Date(2025, 11, 17, 11, 30, 0, 0, time.UTC)
	existing, _, err := w.CreateSingleBooking(ctx, "R", clash, clashEnd, nil)
	require.NoError(t, err)

	rruleStart := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	rruleEnd := time.Date(2025, 11, 3, 11, 0, 0, 0, time.UTC)
	created, conflict, err := w.CreateRecurringBooking(ctx, "R", rruleStart, rruleEnd, "FREQ=WEEKLY;BYDAY=MO;COUNT=4", nil, nil)
	require.NoError(t, err)
	require.Nil(t, created)
	require.NotNil(t, conflict)

	require.Len(t, conflict.Conflicts, 1)
	entry := conflict.Conflicts[0]
	assert.Equal(t, existing.ID, entry.BookingID)
	require.NotNil(t, entry.OccurrenceStart)
	require.NotNil(t, entry.OccurrenceEnd)
	assert.Equal(t, time.Date(2025, 11, 17, 10, 0, 0, 0, time.UTC), *entry.OccurrenceStart)
}

// TestCreateRecurringBooking_InvalidRRULE covers a malformed RRULE being
// rejected before any expansion or conflict work happens.
func TestCreateRecurringBooking_InvalidRRULE(t *testing.T) {
	repo := newFakeRepo()
	w := newTestWriter(repo)

	start := time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 1, 11, 0, 0, 0, time.UTC)
	_, _, err := w.CreateRecurringBooking(context.Background(), "R", start, end, "INVALID", nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, recurrence.ErrInvalidRecurrence))
}
