package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/office-reservations/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository
type RoomRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewRoomRepository creates a new room repository
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{pool: pool, mapper: NewErrorMapper()}
}

type roomRow struct {
	ID        string `db:"id"`
	CompanyID string `db:"company_id"`
	Name      string `db:"name"`
	Location  string `db:"location"`
	Capacity  int    `db:"capacity"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (row roomRow) model() (persistence.Room, error) {
	createdAt, err := parseTime("created_at", row.CreatedAt)
	if err != nil {
		return persistence.Room{}, err
	}
	updatedAt, err := parseTime("updated_at", row.UpdatedAt)
	if err != nil {
		return persistence.Room{}, err
	}
	return persistence.Room{
		ID:        row.ID,
		CompanyID: row.CompanyID,
		Name:      row.Name,
		Location:  row.Location,
		Capacity:  row.Capacity,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

const roomColumns = `id, company_id, name, location, capacity, created_at, updated_at`

// CreateRoom inserts a new room
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	db := r.pool.DB()
	_, err := db.ExecContext(ctx, db.Rebind(`INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		room.ID,
		room.CompanyID,
		room.Name,
		room.Location,
		room.Capacity,
		formatTime(room.CreatedAt),
		formatTime(room.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateRoom updates an existing room
func (r *RoomRepository) UpdateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Capacity <= 0 {
		return persistence.ErrConstraintViolation
	}

	db := r.pool.DB()
	result, err := db.ExecContext(ctx, db.Rebind(`
		UPDATE rooms
		SET name = ?, location = ?, capacity = ?, updated_at = ?
		WHERE id = ?`),
		room.Name,
		room.Location,
		room.Capacity,
		formatTime(room.UpdatedAt),
		room.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetRoom retrieves a room by ID
func (r *RoomRepository) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	db := r.pool.DB()
	var row roomRow
	if err := db.GetContext(ctx, &row, db.Rebind(`SELECT `+roomColumns+` FROM rooms WHERE id = ?`), id); err != nil {
		mapped := r.mapper.MapError(err)
		if errors.Is(mapped, persistence.ErrNotFound) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, mapped
	}
	return row.model()
}

// ListRooms returns the rooms of a company ordered by name then ID
func (r *RoomRepository) ListRooms(ctx context.Context, companyID string) ([]persistence.Room, error) {
	db := r.pool.DB()
	var rows []roomRow
	err := db.SelectContext(ctx, &rows, db.Rebind(`
		SELECT `+roomColumns+` FROM rooms
		WHERE company_id = ?
		ORDER BY name ASC, id ASC`), companyID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}

	rooms := make([]persistence.Room, 0, len(rows))
	for _, row := range rows {
		room, err := row.model()
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// DeleteRoom removes every reservation of the room and then the room itself
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) (int64, error) {
	if id == "" {
		return 0, persistence.ErrNotFound
	}

	var removed int64
	err := r.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM reservations WHERE room_id = ?`), id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		if removed, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		result, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM rooms WHERE id = ?`), id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireAffected(result)
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}
