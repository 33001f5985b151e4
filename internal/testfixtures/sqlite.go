package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/example/office-reservations/internal/persistence"
	"github.com/example/office-reservations/internal/persistence/sqlstore"
	"github.com/example/office-reservations/internal/persistence/sqlstore/migration"
)

// SQLiteHarness provides repository access backed by a migrated in-memory
// SQLite database for integration-style tests.
type SQLiteHarness struct {
	Store        *sqlstore.Store
	Companies    persistence.CompanyRepository
	Users        persistence.UserRepository
	Rooms        persistence.RoomRepository
	Reservations persistence.ReservationRepository

	tb      testing.TB
	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a private in-memory database. The
// harness registers its own cleanup with tb.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	ctx := context.Background()
	store, err := sqlstore.Open(ctx, migration.InMemorySQLiteConfig())
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := store.Migrate(ctx, slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		_ = store.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Store:        store,
		Companies:    store.Companies,
		Users:        store.Users,
		Rooms:        store.Rooms,
		Reservations: store.Reservations,
		tb:           tb,
		cleanup: func() {
			_ = store.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedCompany stores a company without users.
func (h *SQLiteHarness) SeedCompany(opts ...CompanyOption) CompanyFixture {
	h.tb.Helper()
	company := NewCompanyFixture(opts...)
	if err := h.Companies.CreateCompany(context.Background(), company.Persistence()); err != nil {
		h.tb.Fatalf("failed to seed company: %v", err)
	}
	return company
}

// SeedUser stores a user of companyID.
func (h *SQLiteHarness) SeedUser(companyID string, opts ...UserOption) UserFixture {
	h.tb.Helper()
	user := NewUserFixture(append([]UserOption{WithUserCompany(companyID)}, opts...)...)
	if err := h.Users.CreateUser(context.Background(), user.Persistence()); err != nil {
		h.tb.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// SeedRoom stores a room of companyID.
func (h *SQLiteHarness) SeedRoom(companyID string, opts ...RoomOption) RoomFixture {
	h.tb.Helper()
	room := NewRoomFixture(append([]RoomOption{WithRoomCompany(companyID)}, opts...)...)
	if err := h.Rooms.CreateRoom(context.Background(), room.Persistence()); err != nil {
		h.tb.Fatalf("failed to seed room: %v", err)
	}
	return room
}

// SeedReservation stores a reservation directly through the repository.
func (h *SQLiteHarness) SeedReservation(opts ...ReservationOption) ReservationFixture {
	h.tb.Helper()
	reservation := NewReservationFixture(opts...)
	if err := h.Reservations.InsertReservation(context.Background(), reservation.Persistence()); err != nil {
		h.tb.Fatalf("failed to seed reservation: %v", err)
	}
	return reservation
}
