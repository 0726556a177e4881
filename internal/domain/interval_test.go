package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func span(h1, m1, h2, m2 int) Interval {
	return Interval{Start: at(h1, m1), End: at(h2, m2)}
}

func TestInterval_Overlaps(t *testing.T) {
	base := span(10, 0, 11, 30)

	assert.True(t, base.Overlaps(span(11, 0, 12, 0)))
	assert.True(t, base.Overlaps(span(9, 0, 10, 1)))
	assert.True(t, base.Overlaps(span(10, 15, 10, 45)))
	assert.False(t, base.Overlaps(span(11, 30, 12, 0)), "touching end")
	assert.False(t, base.Overlaps(span(9, 0, 10, 0)), "touching start")
}

func TestInterval_Subtract(t *testing.T) {
	base := span(9, 0, 12, 0)

	assert.Equal(t, []Interval{span(9, 0, 10, 0), span(11, 30, 12, 0)}, base.Subtract(span(10, 0, 11, 30)))
	assert.Equal(t, []Interval{span(10, 0, 12, 0)}, base.Subtract(span(8, 0, 10, 0)))
	assert.Empty(t, base.Subtract(span(8, 0, 13, 0)))
	assert.Equal(t, []Interval{base}, base.Subtract(span(12, 0, 13, 0)))
}

func TestMergeIntervals(t *testing.T) {
	merged := MergeIntervals([]Interval{
		span(13, 0, 14, 0),
		span(9, 0, 10, 0),
		span(10, 0, 11, 0),
		span(9, 30, 9, 45),
		span(15, 0, 15, 0),
	})

	assert.Equal(t, []Interval{span(9, 0, 11, 0), span(13, 0, 14, 0)}, merged)
	assert.Empty(t, MergeIntervals(nil))
}

func TestSubtractAll(t *testing.T) {
	open := []Interval{span(9, 0, 12, 0), span(14, 0, 18, 0)}
	busy := []Interval{span(10, 0, 11, 30), span(13, 0, 15, 0), span(17, 0, 19, 0)}

	free := SubtractAll(open, busy)

	assert.Equal(t, []Interval{
		span(9, 0, 10, 0),
		span(11, 30, 12, 0),
		span(15, 0, 17, 0),
	}, free)
}

func TestInterval_ExpandContains(t *testing.T) {
	b := span(10, 0, 11, 0).Expand(15 * time.Minute)

	assert.Equal(t, span(9, 45, 11, 15), b)
	assert.True(t, b.Contains(span(10, 0, 11, 0)))
	assert.False(t, span(10, 0, 11, 0).Contains(b))
}
