// Package schedule holds the half-open interval arithmetic behind the
// no-overlap rule of the calendar.
package schedule

import (
	"sort"
	"time"
)

// Interval is the half-open span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Span builds the interval starting at start and lasting d.
func Span(start time.Time, d time.Duration) Interval {
	return Interval{Start: start, End: start.Add(d)}
}

// Overlaps reports whether a and b share any instant. Intervals that only
// touch at an endpoint do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// FirstConflict returns the index of the first interval in existing that
// overlaps candidate, or -1.
func FirstConflict(candidate Interval, existing []Interval) int {
	for i, iv := range existing {
		if Overlaps(candidate, iv) {
			return i
		}
	}
	return -1
}

// Gaps returns the free sub-intervals of window not covered by busy.
// busy may be unsorted and may extend past the window.
func Gaps(window Interval, busy []Interval) []Interval {
	sorted := make([]Interval, 0, len(busy))
	for _, iv := range busy {
		if Overlaps(window, iv) {
			sorted = append(sorted, iv)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var gaps []Interval
	cursor := window.Start
	for _, iv := range sorted {
		if iv.Start.After(cursor) {
			gaps = append(gaps, Interval{Start: cursor, End: iv.Start})
		}
		if iv.End.After(cursor) {
			cursor = iv.End
		}
	}
	if cursor.Before(window.End) {
		gaps = append(gaps, Interval{Start: cursor, End: window.End})
	}
	return gaps
}
