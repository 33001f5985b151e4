// Package scheduler answers whether booked spans of a meeting room collide.
package scheduler

import (
	"sort"
	"time"
)

// Interval is a half-open span [Start, End) held by a reservation.
type Interval struct {
	ID     string
	RoomID string
	Start  time.Time
	End    time.Time
}

// Valid reports whether the interval has a positive length.
func (i Interval) Valid() bool {
	return i.End.After(i.Start)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any instant.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// FindOverlap returns the first interval in existing that overlaps the
// candidate within the same room. An empty candidate overlaps nothing.
func FindOverlap(existing []Interval, candidate Interval) (Interval, bool) {
	if !candidate.Valid() {
		return Interval{}, false
	}
	for _, current := range existing {
		if current.RoomID != candidate.RoomID {
			continue
		}
		if current.ID != "" && current.ID == candidate.ID {
			continue
		}
		if Overlaps(current.Start, current.End, candidate.Start, candidate.End) {
			return current, true
		}
	}
	return Interval{}, false
}

// Disjoint reports whether no two intervals of the same room overlap.
func Disjoint(intervals []Interval) bool {
	byRoom := make(map[string][]Interval)
	for _, interval := range intervals {
		byRoom[interval.RoomID] = append(byRoom[interval.RoomID], interval)
	}

	for _, group := range byRoom {
		sort.Slice(group, func(i, j int) bool {
			return group[i].Start.Before(group[j].Start)
		})
		for i := 1; i < len(group); i++ {
			if group[i].Start.Before(group[i-1].End) {
				return false
			}
		}
	}
	return true
}
