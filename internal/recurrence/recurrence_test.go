package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_RejectsMalformedRRULE(t *testing.T) {
	err := Validate("INVALID")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRecurrence)
}

func TestIsInfinite(t *testing.T) {
	infinite, err := IsInfinite("FREQ=WEEKLY;BYDAY=MO")
	require.NoError(t, err)
	assert.True(t, infinite)

	bounded, err := IsInfinite("FREQ=WEEKLY;BYDAY=MO;COUNT=4")
	require.NoError(t, err)
	assert.False(t, bounded)

	untilBounded, err := IsInfinite("FREQ=DAILY;UNTIL=20261231T000000Z")
	require.NoError(t, err)
	assert.False(t, untilBounded)
}

func TestExpand_SkipException(t *testing.T) {
	base := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	skip := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)

	occurrences, err := Expand(
		"FREQ=WEEKLY;BYDAY=MO;COUNT=4",
		time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
		base, base.Add(time.Hour),
		[]Exception{{ExceptDate: skip}},
	)
	require.NoError(t, err)
	require.Len(t, occurrences, 3)
	assert.Equal(t, time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC), occurrences[0].Start)
	assert.Equal(t, time.Date(2025, 11, 17, 10, 0, 0, 0, time.UTC), occurrences[1].Start)
	assert.Equal(t, time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC), occurrences[2].Start)
}

func TestExpand_ReplaceException(t *testing.T) {
	base := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	replaceDate := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	replaceStart := time.Date(2025, 11, 10, 14, 0, 0, 0, time.UTC)
	replaceEnd := time.Date(2025, 11, 10, 15, 0, 0, 0, time.UTC)

	occurrences, err := Expand(
		"FREQ=WEEKLY;BYDAY=MO;COUNT=4",
		time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
		base, base.Add(time.Hour),
		[]Exception{{ExceptDate: replaceDate, ReplaceStart: &replaceStart, ReplaceEnd: &replaceEnd}},
	)
	require.NoError(t, err)
	require.Len(t, occurrences, 4)

	found := false
	for _, o := range occurrences {
		if o.Start.Equal(replaceStart) {
			found = true
			assert.Equal(t, replaceEnd, o.End)
		}
	}
	assert.True(t, found)
}

// TestExpand_DuplicateExceptionLastWriteWins covers two exceptions
// landing on the same date: the later one in the list wins.
func TestExpand_DuplicateExceptionLastWriteWins(t *testing.T) {
	base := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	dup := time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	replaceStart := time.Date(2025, 11, 3, 16, 0, 0, 0, time.UTC)
	replaceEnd := time.Date(2025, 11, 3, 17, 0, 0, 0, time.UTC)

	occurrences, err := Expand(
		"FREQ=WEEKLY;BYDAY=MO;COUNT=1",
		time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC),
		base, base.Add(time.Hour),
		[]Exception{
			{ExceptDate: dup}, // skip, superseded below
			{ExceptDate: dup, ReplaceStart: &replaceStart, ReplaceEnd: &replaceEnd},
		},
	)
	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	assert.Equal(t, replaceStart, occurrences[0].Start)
}

func TestExpand_BindsDtstartToBaseStartWhenAbsent(t *testing.T) {
	base := time.Date(2025, 11, 5, 9, 0, 0, 0, time.UTC)
	occurrences, err := Expand(
		"FREQ=DAILY;COUNT=2",
		base,
		time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC),
		base, base.Add(30*time.Minute),
		nil,
	)
	require.NoError(t, err)
	require.Len(t, occurrences, 2)
	assert.Equal(t, base, occurrences[0].Start)
	assert.Equal(t, base.AddDate(0, 0, 1), occurrences[1].Start)
}

func TestExpand_InvalidRRULE(t *testing.T) {
	base := time.Date(2025, 11, 5, 9, 0, 0, 0, time.UTC)
	_, err := Expand("INVALID", base, base.AddDate(0, 1, 0), base, base.Add(time.Hour), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRecurrence)
}
