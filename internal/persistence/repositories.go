package persistence

import (
	"context"
	"time"
)

// CompanyRepository stores tenants.
type CompanyRepository interface {
	CreateCompany(ctx context.Context, company Company) error
	// CreateCompanyWithAdmin stores the company and its first user atomically.
	CreateCompanyWithAdmin(ctx context.Context, company Company, admin User) error
	GetCompany(ctx context.Context, id string) (Company, error)
	GetCompanyByCertification(ctx context.Context, certification string) (Company, error)
}

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context, companyID string) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context, companyID string) ([]Room, error)
	// DeleteRoom removes the room and every reservation held on it in one
	// transaction, returning the number of reservations removed.
	DeleteRoom(ctx context.Context, id string) (int64, error)
}

// ReservationRepository stores reservations and guarantees that the spans
// stored for a room never overlap.
type ReservationRepository interface {
	// InsertReservation checks for an overlapping reservation and inserts the
	// new one inside a single transaction. It returns ErrDuplicate when the
	// span is taken and ErrForeignKeyViolation when the room or user is gone.
	InsertReservation(ctx context.Context, reservation Reservation) error
	// FindOverlapping returns the earliest reservation of the room that
	// intersects [start, end), or ErrNotFound.
	FindOverlapping(ctx context.Context, roomID string, start, end time.Time) (Reservation, error)
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	DeleteReservation(ctx context.Context, id string) error
	DeleteReservationsByRoom(ctx context.Context, roomID string) (int64, error)
	DeleteReservationsByUser(ctx context.Context, userID string) (int64, error)
}
