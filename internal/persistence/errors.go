package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a uniqueness rule rejects a write, including
	// a reservation overlapping an existing one in the same room.
	ErrDuplicate = errors.New("persistence: duplicate")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned when a CHECK or NOT NULL rule fails.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrBusy is returned when the database could not take a lock in time.
	ErrBusy = errors.New("persistence: database busy")
)
