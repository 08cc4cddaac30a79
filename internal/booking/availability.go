package booking

import (
	"context"
	"time"

	"github.com/marwilliams/reservo/internal/interval"
)

// Slot is a candidate or available time range, annotated with its
// duration in whole minutes.
type Slot struct {
	Start           time.Time
	End             time.Time
	DurationMinutes int
}

// Availability computes gap enumeration over a window and forward-searches
// for the next available slots.
type Availability struct {
	resolver *Resolver
}

func NewAvailability(resolver *Resolver) *Availability {
	return &Availability{resolver: resolver}
}

// Availability computes the gaps in [from, to) at least minSlotMinutes
// long, and reports how many busy instances (pre-merge) made up the
// underlying busy set.
func (a *Availability) Availability(ctx context.Context, resourceID string, from, to time.Time, minSlotMinutes int) ([]Slot, int, error) {
	if !to.After(from) {
		return nil, 0, ErrInvalidTimeRange
	}

	busy, err := a.resolver.BusySet(ctx, resourceID, from, to)
	if err != nil {
		return nil, 0, err
	}

	merged := interval.Merge(toIntervals(busy))
	gaps := interval.Gaps(merged, from, to, time.Duration(minSlotMinutes)*time.Minute)

	slots := make([]Slot, len(gaps))
	for i, g := range gaps {
		slots[i] = Slot{Start: g.Start, End: g.End, DurationMinutes: g.DurationMinutes}
	}

	return slots, len(busy), nil
}

// NextAvailableOptions configures the forward-search defaults.
type NextAvailableOptions struct {
	HorizonHours   int
	StepMinutes    int
	MaxSuggestions int
}

// DefaultNextAvailableOptions returns the forward-search defaults
// (horizonHours=720, stepMinutes=15, maxSuggestions=5).
func DefaultNextAvailableOptions() NextAvailableOptions {
	return NextAvailableOptions{HorizonHours: 720, StepMinutes: 15, MaxSuggestions: 5}
}

// NextAvailableResult is the forward-search outcome: the suggestions
// found (possibly fewer than MaxSuggestions if the horizon is exhausted
// first) and the cursor position the scan stopped at.
type NextAvailableResult struct {
	Suggestions   []Slot
	SearchedUntil time.Time
}

// NextAvailable forward-scans from desiredStart for up to
// opts.MaxSuggestions candidate slots of durationMinutes that don't
// overlap the busy set, jumping past each obstruction it meets.
func (a *Availability) NextAvailable(ctx context.Context, resourceID string, desiredStart time.Time, durationMinutes int, opts NextAvailableOptions) (NextAvailableResult, error) {
	if opts.HorizonHours <= 0 {
		opts.HorizonHours = 720
	}
	if opts.StepMinutes <= 0 {
		opts.StepMinutes = 15
	}
	if opts.MaxSuggestions <= 0 {
		opts.MaxSuggestions = 5
	}

	duration := time.Duration(durationMinutes) * time.Minute
	step := time.Duration(opts.StepMinutes) * time.Minute
	searchEnd := desiredStart.Add(time.Duration(opts.HorizonHours) * time.Hour)

	busy, err := a.resolver.BusySet(ctx, resourceID, desiredStart, searchEnd)
	if err != nil {
		return NextAvailableResult{}, err
	}
	merged := interval.Merge(toIntervals(busy))

	var suggestions []Slot
	cursor := desiredStart

	for cursor.Before(searchEnd) && len(suggestions) < opts.MaxSuggestions {
		candidate := interval.Interval{Start: cursor, End: cursor.Add(duration)}

		obstruction, hit := firstOverlap(merged, candidate)
		if hit {
			cursor = obstruction.End
			continue
		}

		suggestions = append(suggestions, Slot{
			Start:           candidate.Start,
			End:             candidate.End,
			DurationMinutes: durationMinutes,
		})
		cursor = cursor.Add(step)
	}

	return NextAvailableResult{Suggestions: suggestions, SearchedUntil: cursor}, nil
}

func firstOverlap(merged []interval.Interval, candidate interval.Interval) (interval.Interval, bool) {
	for _, m := range merged {
		if interval.Overlaps(candidate, m) {
			return m, true
		}
	}
	return interval.Interval{}, false
}

func toIntervals(busy []BusyInstance) []interval.Interval {
	out := make([]interval.Interval, len(busy))
	for i, b := range busy {
		out[i] = interval.Interval{Start: b.Start, End: b.End}
	}
	return out
}
