package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/example/office-reservations/internal/persistence"
)

// UserRepository implements persistence.UserRepository
type UserRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewUserRepository creates a new user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool, mapper: NewErrorMapper()}
}

type userRow struct {
	ID           string `db:"id"`
	CompanyID    string `db:"company_id"`
	Email        string `db:"email"`
	DisplayName  string `db:"display_name"`
	Role         string `db:"role"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

func (row userRow) model() (persistence.User, error) {
	createdAt, err := parseTime("created_at", row.CreatedAt)
	if err != nil {
		return persistence.User{}, err
	}
	updatedAt, err := parseTime("updated_at", row.UpdatedAt)
	if err != nil {
		return persistence.User{}, err
	}
	return persistence.User{
		ID:           row.ID,
		CompanyID:    row.CompanyID,
		Email:        row.Email,
		DisplayName:  row.DisplayName,
		Role:         row.Role,
		PasswordHash: row.PasswordHash,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

const userColumns = `id, company_id, email, display_name, role, password_hash, created_at, updated_at`

// CreateUser inserts a new user
func (r *UserRepository) CreateUser(ctx context.Context, user persistence.User) error {
	return r.mapper.MapError(insertUser(ctx, r.pool.DB(), user))
}

func insertUser(ctx context.Context, ext sqlx.ExtContext, user persistence.User) error {
	if user.ID == "" || user.CompanyID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := ext.ExecContext(ctx, ext.Rebind(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		user.ID,
		user.CompanyID,
		user.Email,
		user.DisplayName,
		user.Role,
		user.PasswordHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return err
}

// UpdateUser updates profile fields of an existing user
func (r *UserRepository) UpdateUser(ctx context.Context, user persistence.User) error {
	db := r.pool.DB()
	result, err := db.ExecContext(ctx, db.Rebind(`
		UPDATE users
		SET email = ?, display_name = ?, role = ?, password_hash = ?, updated_at = ?
		WHERE id = ?`),
		user.Email,
		user.DisplayName,
		user.Role,
		user.PasswordHash,
		formatTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

// GetUser retrieves a user by ID
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by email, ignoring case
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (persistence.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER(?)`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query, arg string) (persistence.User, error) {
	if arg == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	db := r.pool.DB()
	var row userRow
	if err := db.GetContext(ctx, &row, db.Rebind(query), arg); err != nil {
		mapped := r.mapper.MapError(err)
		if errors.Is(mapped, persistence.ErrNotFound) {
			return persistence.User{}, persistence.ErrNotFound
		}
		return persistence.User{}, mapped
	}
	return row.model()
}

// ListUsers returns the users of a company ordered by creation time then ID
func (r *UserRepository) ListUsers(ctx context.Context, companyID string) ([]persistence.User, error) {
	db := r.pool.DB()
	var rows []userRow
	err := db.SelectContext(ctx, &rows, db.Rebind(`
		SELECT `+userColumns+` FROM users
		WHERE company_id = ?
		ORDER BY created_at ASC, id ASC`), companyID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}

	users := make([]persistence.User, 0, len(rows))
	for _, row := range rows {
		user, err := row.model()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// DeleteUser removes a user together with every reservation it owns
func (r *UserRepository) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM reservations WHERE user_id = ?`), id); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM users WHERE id = ?`), id)
		if err != nil {
			return r.mapper.MapError(err)
		}
		return requireAffected(result)
	})
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireAffected(result rowsAffecter) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
