package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/office-reservations/internal/persistence/sqlstore/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationDir = "migrations"

// Store bundles the repositories sharing one connection pool.
type Store struct {
	Pool         *ConnectionPool
	Companies    *CompanyRepository
	Users        *UserRepository
	Rooms        *RoomRepository
	Reservations *ReservationRepository
}

// Open connects to the configured database and builds the repositories.
func Open(ctx context.Context, config migration.DatabaseConfig) (*Store, error) {
	pool, err := NewConnectionPool(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Store{
		Pool:         pool,
		Companies:    NewCompanyRepository(pool),
		Users:        NewUserRepository(pool),
		Rooms:        NewRoomRepository(pool),
		Reservations: NewReservationRepository(pool),
	}, nil
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) error {
	manager := migration.NewMigrationManager(
		migration.NewFileScanner(),
		migration.NewSQLExecutor(s.Pool.DB()),
		migrationFiles,
		migrationDir,
		logger,
	)
	if err := manager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.Pool.Close()
}
