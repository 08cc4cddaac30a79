// Package interval implements the half-open interval primitives that the
// booking engine's availability/gap computation and next-available search
// are built on top of.
package interval

import (
	"sort"
	"time"
)

// Interval is a half-open range [Start, End) on the absolute instant line.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether a and b share any instant. Touching endpoints
// (a.End == b.Start) are not an overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Merge sorts intervals by start and coalesces any whose start falls at or
// before the running interval's end, so touching intervals are merged for
// gap-computation purposes (unlike Overlaps, which treats touching as
// disjoint). The input is not mutated.
func Merge(in []Interval) []Interval {
	if len(in) == 0 {
		return nil
	}

	sorted := make([]Interval, len(in))
	copy(sorted, in)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := make([]Interval, 0, len(sorted))
	cur := sorted[0]
	for _, next := range sorted[1:] {
		if !next.Start.After(cur.End) {
			if next.End.After(cur.End) {
				cur.End = next.End
			}
			continue
		}
		merged = append(merged, cur)
		cur = next
	}
	merged = append(merged, cur)
	return merged
}

// Gap is a maximal interval within a query window that is disjoint from
// every busy interval, annotated with its duration in whole minutes.
type Gap struct {
	Start           time.Time
	End             time.Time
	DurationMinutes int
}

// Gaps computes the gaps left in [windowStart, windowEnd) by a sorted,
// disjoint set of merged intervals, keeping only gaps at least
// minDuration long. merged must already be the output of Merge restricted
// to intervals overlapping the window; Gaps does not clip or re-sort.
func Gaps(merged []Interval, windowStart, windowEnd time.Time, minDuration time.Duration) []Gap {
	var gaps []Gap

	add := func(s, e time.Time) {
		if !e.After(s) {
			return
		}
		d := e.Sub(s)
		if d < minDuration {
			return
		}
		gaps = append(gaps, Gap{Start: s, End: e, DurationMinutes: int(d / time.Minute)})
	}

	if len(merged) == 0 {
		add(windowStart, windowEnd)
		return gaps
	}

	cursor := windowStart
	for _, m := range merged {
		add(cursor, m.Start)
		if m.End.After(cursor) {
			cursor = m.End
		}
	}
	add(cursor, windowEnd)

	return gaps
}
