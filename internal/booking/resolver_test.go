package booking

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestResolver_BusySet_SkipException covers a weekly recurrence with
// one occurrence skipped by an exception.
func TestResolver_BusySet_SkipException(t *testing.T) {
	repo := newFakeRepo()
	base := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	skip := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)

	repo.recurrings = append(repo.recurrings, &Booking{
		ID:          "rb1",
		ResourceID:  "R",
		Start:       base,
		End:         base.Add(time.Hour),
		IsRecurring: true,
		Rule:        &RecurrenceRule{BookingID: "rb1", RRule: "FREQ=WEEKLY;BYDAY=MO;COUNT=4"},
		Exceptions:  []Exception{{ExceptDate: skip}},
	})

	resolver := NewResolver(repo, zerolog.Nop())
	busy, err := resolver.BusySet(context.Background(), "R",
		time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, busy, 3)
	assert.Equal(t, time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC), busy[0].Start)
	assert.Equal(t, time.Date(2025, 11, 17, 10, 0, 0, 0, time.UTC), busy[1].Start)
	assert.Equal(t, time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC), busy[2].Start)
}

// TestResolver_BusySet_ReplaceException covers the same recurrence, but
// the Nov 10 occurrence is replaced rather than skipped.
func TestResolver_BusySet_ReplaceException(t *testing.T) {
	repo := newFakeRepo()
	base := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	replaceDate := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	replaceStart := time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC)
	replaceEnd := time.Date(2025, 11, 10, 15, 0, 0, 0, time.UTC)

	repo.recurrings = append(repo.recurrings, &Booking{
		ID:          "rb1",
		ResourceID:  "R",
		Start:       base,
		End:         base.Add(time.Hour),
		IsRecurring: true,
		Rule:        &RecurrenceRule{BookingID: "rb1", RRule: "FREQ=WEEKLY;BYDAY=MO;COUNT=4"},
		Exceptions:  []Exception{{ExceptDate: replaceDate, ReplaceStart: &replaceStart, ReplaceEnd: &replaceEnd}},
	})

	resolver := NewResolver(repo, zerolog.Nop())
	busy, err := resolver.BusySet(context.Background(), "R",
		time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, busy, 4)

	found := false
	for _, b := range busy {
		if b.Start.Equal(replaceStart) {
			found = true
			assert.Equal(t, replaceEnd, b.End)
		}
	}
	assert.True(t, found, "expected a busy instance at the replacement interval")
}

// TestResolver_BusySet_SkipsUnparseableRuleAtReadTime covers the
// read-time failure semantics: a persisted rule that no longer parses
// is logged and skipped, never aborting the query.
func TestResolver_BusySet_SkipsUnparseableRuleAtReadTime(t *testing.T) {
	repo := newFakeRepo()
	good := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	repo.recurrings = append(repo.recurrings,
		&Booking{ID: "bad", ResourceID: "R", Start: good, End: good.Add(time.Hour), IsRecurring: true, Rule: &RecurrenceRule{RRule: "NOT-A-RRULE"}},
		&Booking{ID: "good", ResourceID: "R", Start: good, End: good.Add(time.Hour), IsRecurring: true, Rule: &RecurrenceRule{RRule: "FREQ=WEEKLY;BYDAY=MO;COUNT=1"}},
	)

	resolver := NewResolver(repo, zerolog.Nop())
	busy, err := resolver.BusySet(context.Background(), "R",
		time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, busy, 1)
	assert.Equal(t, "good", busy[0].BookingID)
}
