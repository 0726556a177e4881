package domain

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval builds an interval of the given length starting at start.
func NewInterval(start time.Time, duration time.Duration) Interval {
	return Interval{Start: start, End: start.Add(duration)}
}

// IsEmpty reports whether the interval has no length.
func (i Interval) IsEmpty() bool {
	return !i.End.After(i.Start)
}

// Duration returns the interval length.
func (i Interval) Duration() time.Duration {
	if i.IsEmpty() {
		return 0
	}
	return i.End.Sub(i.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
// Touching endpoints do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains reports whether other lies entirely inside i.
func (i Interval) Contains(other Interval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// Expand widens the interval by d on both sides.
func (i Interval) Expand(d time.Duration) Interval {
	return Interval{Start: i.Start.Add(-d), End: i.End.Add(d)}
}

// Subtract removes other from i and returns what is left (zero, one or two pieces).
func (i Interval) Subtract(other Interval) []Interval {
	if !i.Overlaps(other) {
		return []Interval{i}
	}

	var rest []Interval
	if other.Start.After(i.Start) {
		rest = append(rest, Interval{Start: i.Start, End: other.Start})
	}
	if other.End.Before(i.End) {
		rest = append(rest, Interval{Start: other.End, End: i.End})
	}
	return rest
}

// MergeIntervals sorts intervals and joins the ones that overlap or touch.
func MergeIntervals(intervals []Interval) []Interval {
	items := make([]Interval, 0, len(intervals))
	for _, in := range intervals {
		if !in.IsEmpty() {
			items = append(items, in)
		}
	}
	if len(items) == 0 {
		return []Interval{}
	}

	sort.Slice(items, func(a, b int) bool {
		return items[a].Start.Before(items[b].Start)
	})

	merged := []Interval{items[0]}
	for _, in := range items[1:] {
		last := &merged[len(merged)-1]
		if !in.Start.After(last.End) {
			if in.End.After(last.End) {
				last.End = in.End
			}
			continue
		}
		merged = append(merged, in)
	}
	return merged
}

// SubtractAll removes every busy interval from every open interval.
// The result is sorted and contains no empty pieces.
func SubtractAll(open []Interval, busy []Interval) []Interval {
	free := MergeIntervals(open)
	for _, b := range busy {
		if b.IsEmpty() {
			continue
		}
		next := make([]Interval, 0, len(free))
		for _, f := range free {
			next = append(next, f.Subtract(b)...)
		}
		free = next
	}
	return free
}
