package scheduler

import (
	"testing"
	"time"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 5, 20, hour, minute, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name       string
		aStart     time.Time
		aEnd       time.Time
		bStart     time.Time
		bEnd       time.Time
		wantResult bool
	}{
		{"identical", at(12, 0), at(12, 59), at(12, 0), at(12, 59), true},
		{"partial tail", at(12, 0), at(12, 59), at(12, 30), at(13, 29), true},
		{"contained", at(9, 0), at(12, 0), at(10, 0), at(10, 30), true},
		{"touching is not overlap", at(10, 0), at(11, 0), at(11, 0), at(12, 0), false},
		{"touching reversed", at(11, 0), at(12, 0), at(10, 0), at(11, 0), false},
		{"disjoint", at(7, 0), at(7, 59), at(9, 0), at(9, 59), false},
		{"adjacent slots", at(12, 0), at(12, 59), at(13, 0), at(13, 59), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.wantResult {
				t.Fatalf("Overlaps = %v, want %v", got, tc.wantResult)
			}
		})
	}
}

func TestFindOverlap(t *testing.T) {
	existing := []Interval{
		{ID: "r-1", RoomID: "room-a", Start: at(12, 0), End: at(12, 59)},
		{ID: "r-2", RoomID: "room-b", Start: at(13, 0), End: at(13, 59)},
	}

	t.Run("room overlap produces conflict", func(t *testing.T) {
		got, ok := FindOverlap(existing, Interval{RoomID: "room-a", Start: at(12, 30), End: at(13, 29)})
		if !ok || got.ID != "r-1" {
			t.Fatalf("expected r-1 conflict, got %+v ok=%v", got, ok)
		}
	})

	t.Run("other rooms are ignored", func(t *testing.T) {
		if _, ok := FindOverlap(existing, Interval{RoomID: "room-a", Start: at(13, 0), End: at(13, 59)}); ok {
			t.Fatalf("expected no conflict across rooms")
		}
	})

	t.Run("candidate does not conflict with itself", func(t *testing.T) {
		if _, ok := FindOverlap(existing, Interval{ID: "r-1", RoomID: "room-a", Start: at(12, 0), End: at(12, 59)}); ok {
			t.Fatalf("expected self match to be skipped")
		}
	})

	t.Run("empty candidate matches nothing", func(t *testing.T) {
		if _, ok := FindOverlap(existing, Interval{RoomID: "room-a", Start: at(12, 30), End: at(12, 30)}); ok {
			t.Fatalf("expected zero length candidate to be ignored")
		}
	})
}

func TestDisjoint(t *testing.T) {
	if !Disjoint([]Interval{
		{RoomID: "room-a", Start: at(10, 0), End: at(11, 0)},
		{RoomID: "room-a", Start: at(11, 0), End: at(12, 0)},
		{RoomID: "room-b", Start: at(10, 30), End: at(11, 30)},
	}) {
		t.Fatalf("expected touching and cross-room intervals to be disjoint")
	}

	if Disjoint([]Interval{
		{RoomID: "room-a", Start: at(10, 0), End: at(11, 0)},
		{RoomID: "room-a", Start: at(10, 59), End: at(12, 0)},
	}) {
		t.Fatalf("expected overlap to be reported")
	}
}
