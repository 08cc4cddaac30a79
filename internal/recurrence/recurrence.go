// Package recurrence turns an RFC 5545 RRULE plus a base template
// interval into a finite list of occurrences over a bounded window,
// applying per-date exceptions (skip or replace) along the way.
//
// It never touches storage: callers (the busy-set resolver, the
// conflict writer) supply the base interval, the window to expand over,
// and the exception list already loaded.
package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrInvalidRecurrence is returned when the RRULE text does not parse.
var ErrInvalidRecurrence = errors.New("invalid recurrence rule")

// Exception is a per-date override on a recurring booking's occurrences.
type Exception struct {
	// ExceptDate is the calendar date (UTC) of the occurrence being
	// overridden; only the Y/M/D components are significant.
	ExceptDate time.Time

	// ReplaceStart/ReplaceEnd are both present (a replacement) or both
	// absent (a skip). When present, ReplaceEnd must be after
	// ReplaceStart; the caller is responsible for that invariant, this
	// package does not re-validate it.
	ReplaceStart *time.Time
	ReplaceEnd   *time.Time
}

// Occurrence is one materialized interval produced by expansion.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

func dateKey(t time.Time) string {
	u := t.UTC()
	return u.Format("2006-01-02")
}

// IsInfinite reports whether rruleText carries neither COUNT nor UNTIL.
// It parses the rule but does not require a DTSTART — dtstart only
// changes occurrence instants, not the finiteness of the recurrence.
func IsInfinite(rruleText string) (bool, error) {
	opt, err := rrule.StrToROption(rruleText)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrInvalidRecurrence, err)
	}
	return opt.Count == 0 && opt.Until.IsZero(), nil
}

// Validate parses rruleText and reports ErrInvalidRecurrence if it does
// not conform to RFC 5545. It is the write-time gate called before any
// expansion or conflict work happens.
func Validate(rruleText string) error {
	_, err := rrule.StrToROption(rruleText)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRecurrence, err)
	}
	return nil
}

// Expand enumerates the occurrences of rruleText within
// [windowStart, windowEnd] (inclusive of both ends), applies the
// template duration baseEnd-baseStart to each raw start instant, and
// then applies exceptions keyed by UTC date (last-write-wins on
// duplicate dates). Occurrences are returned in RRULE-produced order.
//
// If rruleText carries no DTSTART of its own, baseStart is bound as the
// DTSTART.
func Expand(rruleText string, windowStart, windowEnd, baseStart, baseEnd time.Time, exceptions []Exception) ([]Occurrence, error) {
	if !baseEnd.After(baseStart) {
		return nil, fmt.Errorf("recurrence: base interval must satisfy end > start")
	}
	duration := baseEnd.Sub(baseStart)

	opt, err := rrule.StrToROption(rruleText)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecurrence, err)
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = baseStart
	}

	rule, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRecurrence, err)
	}

	raw := rule.Between(windowStart, windowEnd, true)

	exceptionByDate := make(map[string]Exception, len(exceptions))
	for _, e := range exceptions {
		exceptionByDate[dateKey(e.ExceptDate)] = e
	}

	occurrences := make([]Occurrence, 0, len(raw))
	for _, o := range raw {
		key := dateKey(o)
		if ex, ok := exceptionByDate[key]; ok {
			if ex.ReplaceStart == nil {
				continue // skipped occurrence
			}
			occurrences = append(occurrences, Occurrence{Start: *ex.ReplaceStart, End: *ex.ReplaceEnd})
			continue
		}
		occurrences = append(occurrences, Occurrence{Start: o, End: o.Add(duration)})
	}

	return occurrences, nil
}
