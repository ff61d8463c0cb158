package scheduling

import (
	"iter"
	"slices"
)

// Gaps yields the free sub-intervals of slot once booked intervals are removed,
// in ascending order. booked is copied and never modified. The returned
// sequence may be ranged over any number of times.
func Gaps(slot Interval, booked []Interval) iter.Seq[Interval] {
	sorted := slices.Clone(booked)
	slices.SortStableFunc(sorted, func(a, b Interval) int {
		return a.Start - b.Start
	})

	return func(yield func(Interval) bool) {
		cursor := slot.Start
		for _, b := range sorted {
			if b.End <= slot.Start || b.Start >= slot.End {
				continue
			}
			if cursor < b.Start {
				if !yield(Interval{Start: cursor, End: min(b.Start, slot.End)}) {
					return
				}
			}
			cursor = max(cursor, b.End)
		}
		if cursor < slot.End {
			yield(Interval{Start: cursor, End: slot.End})
		}
	}
}
