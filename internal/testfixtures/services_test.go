package testfixtures

import (
	"context"
	"testing"

	"github.com/example/office-reservations/internal/application"
	"github.com/example/office-reservations/internal/events"
)

func TestServiceFactoryNewServices(t *testing.T) {
	harness := NewSQLiteHarness(t)
	factory := NewServiceFactory()
	services := factory.NewServices(harness)

	company := harness.SeedCompany()
	user := harness.SeedUser(company.ID)
	room := harness.SeedRoom(company.ID)

	reservation, err := services.Reservations.AddReservation(context.Background(), application.AddReservationParams{
		Principal: user.Principal(),
		RoomID:    room.ID,
		Start:     BookingTime(9, 0),
	})
	if err != nil {
		t.Fatalf("AddReservation returned error: %v", err)
	}

	if reservation.ID != "id-1" {
		t.Fatalf("expected generated ID id-1, got %q", reservation.ID)
	}
	if !reservation.CreatedAt.Equal(factory.Clock.Current()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Current(), reservation.CreatedAt)
	}
	if got := factory.Events.OfType(events.ReservationCreated); len(got) != 1 {
		t.Fatalf("expected one recorded event, got %d", len(got))
	}
}
