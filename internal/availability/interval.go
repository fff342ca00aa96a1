package availability

import (
	"sort"
	"time"
)

// BusySlot is an owner's event clamped to a query window.
type BusySlot struct {
	OwnerKey string
	Start    time.Time
	End      time.Time
}

// conflicts is the three-way test used for point-in-time availability: the
// event starts within [start, end), ends within (start, end], or spans it.
func conflicts(evStart, evEnd, start, end time.Time) bool {
	startsWithin := !evStart.Before(start) && evStart.Before(end)
	endsWithin := evEnd.After(start) && !evEnd.After(end)
	spans := !evStart.After(start) && !evEnd.Before(end)
	return startsWithin || endsWithin || spans
}

// overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func clamp(start, end, lo, hi time.Time) (time.Time, time.Time) {
	if start.Before(lo) {
		start = lo
	}
	if end.After(hi) {
		end = hi
	}
	return start, end
}

func sortBusy(busy []BusySlot) {
	sort.SliceStable(busy, func(i, j int) bool { return busy[i].Start.Before(busy[j].Start) })
}

// gridSearch walks [windowStart, windowEnd) in step increments and returns the
// starts of every duration-long candidate that fits the window and misses all
// busy slots. busy must be sorted by start. Non-positive duration or step
// yields nothing.
func gridSearch(windowStart, windowEnd time.Time, duration, step time.Duration, busy []BusySlot) []time.Time {
	if duration <= 0 || step <= 0 {
		return nil
	}
	var starts []time.Time
	for t := windowStart; !t.Add(duration).After(windowEnd); t = t.Add(step) {
		candEnd := t.Add(duration)
		free := true
		for _, b := range busy {
			if !b.Start.Before(candEnd) {
				break
			}
			if overlaps(t, candEnd, b.Start, b.End) {
				free = false
				break
			}
		}
		if free {
			starts = append(starts, t)
		}
	}
	return starts
}
