package sqlstore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/office-reservations/internal/persistence"
	"github.com/example/office-reservations/internal/persistence/sqlstore/migration"
)

var testEpoch = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return testEpoch.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	store, err := Open(ctx, migration.InMemorySQLiteConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(ctx, slog.New(slog.NewTextHandler(io.Discard, nil))))
	return store
}

type seeded struct {
	company persistence.Company
	user    persistence.User
	room    persistence.Room
}

func seed(t *testing.T, store *Store) seeded {
	t.Helper()
	ctx := context.Background()

	company := persistence.Company{ID: "company-1", Name: "Acme", Slug: "acme", Certification: "CODE123456", CreatedAt: testEpoch}
	user := persistence.User{
		ID:           "user-1",
		CompanyID:    company.ID,
		Email:        "alice@acme.test",
		DisplayName:  "Alice",
		Role:         "USER",
		PasswordHash: "hash",
		CreatedAt:    testEpoch,
		UpdatedAt:    testEpoch,
	}
	room := persistence.Room{ID: "room-1", CompanyID: company.ID, Name: "Sakura", Capacity: 6, CreatedAt: testEpoch, UpdatedAt: testEpoch}

	require.NoError(t, store.Companies.CreateCompanyWithAdmin(ctx, company, user))
	require.NoError(t, store.Rooms.CreateRoom(ctx, room))
	return seeded{company: company, user: user, room: room}
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Migrate(context.Background(), nil))
}
