package booking

import "time"

// ConflictEntry describes one busy instance that a candidate booking (or
// one occurrence of a candidate recurring booking) collided with.
type ConflictEntry struct {
	BookingID   string
	Start       time.Time
	End         time.Time
	IsRecurring bool

	// OccurrenceStart/OccurrenceEnd identify which occurrence of the new
	// recurring request clashed. Non-nil only for recurring-booking
	// conflicts, so a caller can tell which instance of the recurrence
	// collided rather than just the owning booking's template interval.
	OccurrenceStart *time.Time
	OccurrenceEnd   *time.Time
}

// Conflict is the non-fatal, success-typed return value the writer
// produces when the non-overlap invariant would be violated. It is
// never raised as an error; it always accompanies next-available
// suggestions, which may be empty.
type Conflict struct {
	Conflicts     []ConflictEntry
	NextAvailable []Slot
}
