// Package timetable defines the operating hours of meeting rooms and the
// one-hour slots they are divided into.
package timetable

import (
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultOpenHour is the first bookable hour of the day.
	DefaultOpenHour = 7
	// DefaultCloseHour is the last bookable hour of the day.
	DefaultCloseHour = 22
	// SlotLength is the span of a single slot, HH:00 through HH:59.
	SlotLength = 59 * time.Minute
)

// ErrInvalidHours is returned when the operating hours cannot form a catalog.
var ErrInvalidHours = errors.New("timetable: invalid operating hours")

// TimeOfDay is a wall clock position without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On anchors the time of day to the calendar date of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, day.Location())
}

// Slot is one bookable hour.
type Slot struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Label renders the slot as "HH:MM-HH:MM".
func (s Slot) Label() string {
	return s.Start.String() + "-" + s.End.String()
}

// Span returns the absolute bounds of the slot on the given date.
func (s Slot) Span(day time.Time) (time.Time, time.Time) {
	start := s.Start.On(day)
	return start, start.Add(SlotLength)
}

// Catalog is the immutable, ordered set of slots between the opening and
// closing hour, both inclusive.
type Catalog struct {
	openHour  int
	closeHour int
	slots     []Slot
}

// NewCatalog builds a catalog with one slot per whole hour in [openHour, closeHour].
func NewCatalog(openHour, closeHour int) (*Catalog, error) {
	if openHour < 0 || closeHour > 23 || openHour > closeHour {
		return nil, fmt.Errorf("%w: open=%d close=%d", ErrInvalidHours, openHour, closeHour)
	}

	slots := make([]Slot, 0, closeHour-openHour+1)
	for hour := openHour; hour <= closeHour; hour++ {
		slots = append(slots, Slot{
			Start: TimeOfDay{Hour: hour},
			End:   TimeOfDay{Hour: hour, Minute: int(SlotLength / time.Minute)},
		})
	}

	return &Catalog{openHour: openHour, closeHour: closeHour, slots: slots}, nil
}

// DefaultCatalog returns the 07:00 to 22:59 catalog.
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(DefaultOpenHour, DefaultCloseHour)
	if err != nil {
		panic(err)
	}
	return catalog
}

func (c *Catalog) OpenHour() int  { return c.openHour }
func (c *Catalog) CloseHour() int { return c.closeHour }

// Slots returns a copy of the slots ordered by start.
func (c *Catalog) Slots() []Slot {
	out := make([]Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Contains reports whether a slot starts at the given hour.
func (c *Catalog) Contains(hour int) bool {
	return hour >= c.openHour && hour <= c.closeHour
}

// SlotFor returns the slot covering t, using t's own location.
func (c *Catalog) SlotFor(t time.Time) (Slot, bool) {
	if !c.Contains(t.Hour()) {
		return Slot{}, false
	}
	return c.slots[t.Hour()-c.openHour], true
}

// Window returns the first instant and the closing instant of the bookable
// day containing day.
func (c *Catalog) Window(day time.Time) (time.Time, time.Time) {
	first := c.slots[0]
	last := c.slots[len(c.slots)-1]
	open, _ := first.Span(day)
	_, closing := last.Span(day)
	return open, closing
}
