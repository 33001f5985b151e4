// Package events publishes reservation lifecycle notifications.
package events

import (
	"context"
	"sync"
	"time"
)

// Type names a lifecycle event.
type Type string

const (
	ReservationCreated   Type = "reservation.created"
	ReservationCancelled Type = "reservation.cancelled"
	RoomPurged           Type = "room.purged"
	UserPurged           Type = "user.purged"
)

// Event describes something that already happened to a reservation, or to
// the room or user whose reservations were removed in bulk.
type Event struct {
	Type          Type      `json:"type"`
	ReservationID string    `json:"reservation_id,omitempty"`
	RoomID        string    `json:"room_id,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	Start         time.Time `json:"start,omitzero"`
	End           time.Time `json:"end,omitzero"`
	Removed       int64     `json:"removed,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Key groups events of one room on the same partition.
func (e Event) Key() string {
	if e.RoomID != "" {
		return e.RoomID
	}
	return e.UserID
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType filters the recorded events.
func (r *Recorder) OfType(eventType Type) []Event {
	var out []Event
	for _, event := range r.Events() {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
