package testfixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/office-reservations/internal/application"
	"github.com/example/office-reservations/internal/persistence"
)

func TestFixturesApplyOptions(t *testing.T) {
	user := NewUserFixture(WithUserID("alice"), WithUserCompany("acme"), WithUserRole(application.RoleManager))
	if user.ID != "alice" || user.CompanyID != "acme" || user.Role != application.RoleManager {
		t.Fatalf("options not applied: %+v", user)
	}
	if got := user.Persistence().Role; got != "MANAGER" {
		t.Fatalf("expected persisted role MANAGER, got %q", got)
	}
	if got := user.Principal(); got.UserID != "alice" || got.CompanyID != "acme" {
		t.Fatalf("unexpected principal %+v", got)
	}

	reservation := NewReservationFixture()
	if got := reservation.End.Sub(reservation.Start); got != 59*time.Minute {
		t.Fatalf("expected a 59 minute slot, got %v", got)
	}
}

func TestSQLiteHarnessSeeds(t *testing.T) {
	harness := NewSQLiteHarness(t)
	ctx := context.Background()

	company := harness.SeedCompany()
	user := harness.SeedUser(company.ID)
	room := harness.SeedRoom(company.ID)
	reservation := harness.SeedReservation(WithReservationRoom(room.ID), WithReservationUser(user.ID))

	stored, err := harness.Reservations.GetReservation(ctx, reservation.ID)
	if err != nil {
		t.Fatalf("GetReservation returned error: %v", err)
	}
	if !stored.Start.Equal(reservation.Start) || stored.RoomID != room.ID {
		t.Fatalf("unexpected stored reservation %+v", stored)
	}

	clash := NewReservationFixture(WithReservationRoom(room.ID), WithReservationUser(user.ID))
	if err := harness.Reservations.InsertReservation(ctx, clash.Persistence()); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}
