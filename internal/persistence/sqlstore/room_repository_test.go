package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/office-reservations/internal/persistence"
)

func TestRoomRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips rooms", func(t *testing.T) {
		store := openTestStore(t)
		fixture := seed(t, store)

		got, err := store.Rooms.GetRoom(ctx, fixture.room.ID)
		require.NoError(t, err)
		assert.Equal(t, fixture.room, got)
	})

	t.Run("room names are unique per company", func(t *testing.T) {
		store := openTestStore(t)
		fixture := seed(t, store)

		clone := fixture.room
		clone.ID = "room-2"
		assert.ErrorIs(t, store.Rooms.CreateRoom(ctx, clone), persistence.ErrDuplicate)
	})

	t.Run("capacity must be positive", func(t *testing.T) {
		store := openTestStore(t)
		fixture := seed(t, store)

		broken := fixture.room
		broken.Capacity = 0
		assert.ErrorIs(t, store.Rooms.UpdateRoom(ctx, broken), persistence.ErrConstraintViolation)
	})

	t.Run("lists rooms by name", func(t *testing.T) {
		store := openTestStore(t)
		fixture := seed(t, store)

		second := fixture.room
		second.ID = "room-0"
		second.Name = "Asagao"
		require.NoError(t, store.Rooms.CreateRoom(ctx, second))

		rooms, err := store.Rooms.ListRooms(ctx, fixture.company.ID)
		require.NoError(t, err)
		require.Len(t, rooms, 2)
		assert.Equal(t, "Asagao", rooms[0].Name)
		assert.Equal(t, "Sakura", rooms[1].Name)
	})

	t.Run("delete cascades to reservations", func(t *testing.T) {
		store := openTestStore(t)
		fixture := seed(t, store)

		for i, hour := range []int{9, 10, 11} {
			require.NoError(t, store.Reservations.InsertReservation(ctx, persistence.Reservation{
				ID:        "res-" + string(rune('a'+i)),
				RoomID:    fixture.room.ID,
				UserID:    fixture.user.ID,
				Start:     at(hour, 0),
				End:       at(hour, 59),
				CreatedAt: testEpoch,
			}))
		}

		removed, err := store.Rooms.DeleteRoom(ctx, fixture.room.ID)
		require.NoError(t, err)
		assert.EqualValues(t, 3, removed)

		left, err := store.Reservations.ListReservations(ctx, persistence.ReservationFilter{RoomID: fixture.room.ID})
		require.NoError(t, err)
		assert.Empty(t, left)

		_, err = store.Rooms.GetRoom(ctx, fixture.room.ID)
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})

	t.Run("deleting a missing room", func(t *testing.T) {
		store := openTestStore(t)
		_, err := store.Rooms.DeleteRoom(ctx, "nope")
		assert.ErrorIs(t, err, persistence.ErrNotFound)
	})
}
