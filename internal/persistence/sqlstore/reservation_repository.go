package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/office-reservations/internal/persistence"
	"github.com/example/office-reservations/internal/persistence/sqlstore/migration"
)

// ReservationRepository implements persistence.ReservationRepository.
//
// Writes never leave two overlapping spans for one room: the overlap probe and
// the insert share a transaction, SQLite transactions begin IMMEDIATE, on
// PostgreSQL the room row is locked FOR UPDATE, and the UNIQUE(room_id,
// start_time) index rejects identical slots regardless of isolation level.
type ReservationRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewReservationRepository creates a new reservation repository
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

type reservationRow struct {
	ID        string `db:"id"`
	RoomID    string `db:"room_id"`
	UserID    string `db:"user_id"`
	StartTime string `db:"start_time"`
	EndTime   string `db:"end_time"`
	CreatedAt string `db:"created_at"`
}

func (row reservationRow) model() (persistence.Reservation, error) {
	start, err := parseTime("start_time", row.StartTime)
	if err != nil {
		return persistence.Reservation{}, err
	}
	end, err := parseTime("end_time", row.EndTime)
	if err != nil {
		return persistence.Reservation{}, err
	}
	createdAt, err := parseTime("created_at", row.CreatedAt)
	if err != nil {
		return persistence.Reservation{}, err
	}
	return persistence.Reservation{
		ID:        row.ID,
		RoomID:    row.RoomID,
		UserID:    row.UserID,
		Start:     start,
		End:       end,
		CreatedAt: createdAt,
	}, nil
}

const (
	reservationColumns = `id, room_id, user_id, start_time, end_time, created_at`
	overlapQuery       = `SELECT ` + reservationColumns + ` FROM reservations
		WHERE room_id = ? AND start_time < ? AND end_time > ?
		ORDER BY start_time ASC
		LIMIT 1`
)

// InsertReservation stores the reservation unless its span is taken
func (r *ReservationRepository) InsertReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" || reservation.RoomID == "" || reservation.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	if !reservation.End.After(reservation.Start) {
		return persistence.ErrConstraintViolation
	}

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
			if r.pool.Driver() == migration.DriverPostgres {
				if err := r.lockRoom(ctx, tx, reservation.RoomID); err != nil {
					return err
				}
			}

			var existing reservationRow
			err := tx.GetContext(ctx, &existing, tx.Rebind(overlapQuery),
				reservation.RoomID,
				formatTime(reservation.End),
				formatTime(reservation.Start),
			)
			switch {
			case err == nil:
				return fmt.Errorf("%w: overlaps reservation %s", persistence.ErrDuplicate, existing.ID)
			case !errors.Is(err, sql.ErrNoRows):
				return r.mapper.MapError(err)
			}

			_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO reservations (`+reservationColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
				reservation.ID,
				reservation.RoomID,
				reservation.UserID,
				formatTime(reservation.Start),
				formatTime(reservation.End),
				formatTime(reservation.CreatedAt),
			)
			return r.mapper.MapError(err)
		})
	})
}

func (r *ReservationRepository) lockRoom(ctx context.Context, tx *sqlx.Tx, roomID string) error {
	var id string
	err := tx.GetContext(ctx, &id, tx.Rebind(`SELECT id FROM rooms WHERE id = ? FOR UPDATE`), roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: room %s", persistence.ErrForeignKeyViolation, roomID)
	}
	return r.mapper.MapError(err)
}

// FindOverlapping returns the earliest reservation intersecting [start, end)
func (r *ReservationRepository) FindOverlapping(ctx context.Context, roomID string, start, end time.Time) (persistence.Reservation, error) {
	db := r.pool.DB()
	var row reservationRow
	err := db.GetContext(ctx, &row, db.Rebind(overlapQuery), roomID, formatTime(end), formatTime(start))
	if err != nil {
		return persistence.Reservation{}, r.notFoundOr(err)
	}
	return row.model()
}

// GetReservation retrieves a reservation by ID
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	db := r.pool.DB()
	var row reservationRow
	if err := db.GetContext(ctx, &row, db.Rebind(`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`), id); err != nil {
		return persistence.Reservation{}, r.notFoundOr(err)
	}
	return row.model()
}

// ListReservations returns matching reservations ordered by start ascending.
// A window in the filter selects reservations intersecting [From, To).
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.RoomID != "" {
		clauses = append(clauses, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if !filter.To.IsZero() {
		clauses = append(clauses, "start_time < ?")
		args = append(args, formatTime(filter.To))
	}
	if !filter.From.IsZero() {
		clauses = append(clauses, "end_time > ?")
		args = append(args, formatTime(filter.From))
	}

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY start_time ASC, id ASC`

	db := r.pool.DB()
	var rows []reservationRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, r.mapper.MapError(err)
	}

	reservations := make([]persistence.Reservation, 0, len(rows))
	for _, row := range rows {
		reservation, err := row.model()
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	return reservations, nil
}

// DeleteReservation removes a single reservation
func (r *ReservationRepository) DeleteReservation(ctx context.Context, id string) error {
	db := r.pool.DB()
	result, err := db.ExecContext(ctx, db.Rebind(`DELETE FROM reservations WHERE id = ?`), id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// DeleteReservationsByRoom removes every reservation of a room
func (r *ReservationRepository) DeleteReservationsByRoom(ctx context.Context, roomID string) (int64, error) {
	return r.deleteWhere(ctx, "room_id", roomID)
}

// DeleteReservationsByUser removes every reservation owned by a user
func (r *ReservationRepository) DeleteReservationsByUser(ctx context.Context, userID string) (int64, error) {
	return r.deleteWhere(ctx, "user_id", userID)
}

func (r *ReservationRepository) deleteWhere(ctx context.Context, column, value string) (int64, error) {
	var removed int64
	err := r.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM reservations WHERE `+column+` = ?`), value)
		if err != nil {
			return r.mapper.MapError(err)
		}
		removed, err = result.RowsAffected()
		return err
	})
	return removed, err
}

func (r *ReservationRepository) notFoundOr(err error) error {
	mapped := r.mapper.MapError(err)
	if errors.Is(mapped, persistence.ErrNotFound) {
		return persistence.ErrNotFound
	}
	return mapped
}
