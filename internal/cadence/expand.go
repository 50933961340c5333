package cadence

import (
	"math"
	"sort"
	"time"
)

// LongRepeatPerWeek is the count daily cadences fall back to when daily
// repetition is not allowed.
const LongRepeatPerWeek = 3

// Offsets returns the day offsets within a week for an n-times-per-week
// cadence: round(i*7/n) for i in [0, n), clamped to 6 and de-duplicated.
func Offsets(n int) []int {
	n = clampCount(n)
	out := make([]int, 0, n)
	last := -1
	for i := 0; i < n; i++ {
		off := int(math.Round(float64(i) * 7 / float64(n)))
		if off > 6 {
			off = 6
		}
		if off == last {
			continue
		}
		out = append(out, off)
		last = off
	}
	return out
}

// Expand converts a cadence into the ordered set of target dates it occupies
// in the week starting at weekStart. Dates are truncated to midnight in
// weekStart's location and always fall within [weekStart, weekStart+6].
//
// Flex, once and unknown kinds yield the week start only; the scheduler is
// responsible for moving a flex occurrence to a better day.
func Expand(spec Spec, weekStart time.Time, allowDailyRepeat bool) []time.Time {
	start := Midnight(weekStart)

	switch spec.Kind {
	case Daily:
		if !allowDailyRepeat {
			return offsetDates(start, Offsets(LongRepeatPerWeek))
		}
		return offsetDates(start, []int{0, 1, 2, 3, 4, 5, 6})
	case XPerWeek:
		return offsetDates(start, Offsets(spec.Count))
	case SpecificDays:
		if len(spec.Days) == 0 {
			return []time.Time{start}
		}
		offsets := make([]int, 0, len(spec.Days))
		seen := make(map[int]bool, len(spec.Days))
		for _, d := range spec.Days {
			off := (int(d) - int(start.Weekday()) + 7) % 7
			if seen[off] {
				continue
			}
			seen[off] = true
			offsets = append(offsets, off)
		}
		sort.Ints(offsets)
		return offsetDates(start, offsets)
	default:
		return []time.Time{start}
	}
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func offsetDates(start time.Time, offsets []int) []time.Time {
	out := make([]time.Time, 0, len(offsets))
	for _, off := range offsets {
		out = append(out, start.AddDate(0, 0, off))
	}
	return out
}
