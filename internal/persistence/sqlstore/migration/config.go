package migration

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"  // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	// DriverSQLite is the database/sql name registered by modernc.org/sqlite.
	DriverSQLite = "sqlite"
	// DriverPostgres is the database/sql name registered by lib/pq.
	DriverPostgres = "postgres"

	memoryDSN = ":memory:"
)

// DatabaseConfig holds connection settings for either supported driver.
type DatabaseConfig struct {
	Driver string
	DSN    string

	// SQLite only.
	BusyTimeout       time.Duration
	EnableForeignKeys bool
	JournalMode       string
	// ImmediateTx starts SQLite write transactions with BEGIN IMMEDIATE so
	// concurrent writers queue on busy_timeout instead of failing on upgrade.
	ImmediateTx bool

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Validate reports unusable settings.
func (c DatabaseConfig) Validate() error {
	switch c.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("%w: unsupported driver %q", ErrInvalidConfig, c.Driver)
	}

	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("%w: DSN cannot be empty", ErrInvalidConfig)
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("%w: BusyTimeout cannot be negative", ErrInvalidConfig)
	}

	validJournalModes := map[string]bool{
		"DELETE": true, "TRUNCATE": true, "PERSIST": true,
		"MEMORY": true, "WAL": true, "OFF": true,
	}
	if c.JournalMode != "" && !validJournalModes[c.JournalMode] {
		return fmt.Errorf("%w: invalid journal mode: %s", ErrInvalidConfig, c.JournalMode)
	}

	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 || c.ConnMaxLifetime < 0 {
		return fmt.Errorf("%w: pool settings cannot be negative", ErrInvalidConfig)
	}
	return nil
}

// DataSourceName renders the DSN handed to the driver. SQLite pragmas are
// encoded as _pragma parameters so every pooled connection receives them.
func (c DatabaseConfig) DataSourceName() string {
	if c.Driver != DriverSQLite {
		return c.DSN
	}

	params := url.Values{}
	if c.BusyTimeout > 0 {
		params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	}
	if c.EnableForeignKeys {
		params.Add("_pragma", "foreign_keys(1)")
	}
	if c.JournalMode != "" && !c.inMemory() {
		params.Add("_pragma", fmt.Sprintf("journal_mode(%s)", c.JournalMode))
	}
	if c.ImmediateTx {
		params.Set("_txlock", "immediate")
	}
	if len(params) == 0 {
		return c.DSN
	}

	separator := "?"
	if strings.Contains(c.DSN, "?") {
		separator = "&"
	}
	return c.DSN + separator + params.Encode()
}

func (c DatabaseConfig) inMemory() bool {
	return c.DSN == memoryDSN || strings.Contains(c.DSN, "mode=memory")
}

// Open validates the configuration, prepares the SQLite file when needed and
// returns a pinged connection pool.
func Open(ctx context.Context, config DatabaseConfig) (*sqlx.DB, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if config.Driver == DriverSQLite && !config.inMemory() {
		dir := filepath.Dir(strings.TrimPrefix(strings.SplitN(config.DSN, "?", 2)[0], "file:"))
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sqlx.Open(config.Driver, config.DataSourceName())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", config.Driver, err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", config.Driver, err)
	}
	return db, nil
}

// DefaultSQLiteConfig returns a file backed SQLite configuration.
func DefaultSQLiteConfig(databasePath string) DatabaseConfig {
	return DatabaseConfig{
		Driver:            DriverSQLite,
		DSN:               databasePath,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		JournalMode:       "WAL",
		ImmediateTx:       true,
		MaxOpenConns:      4,
		MaxIdleConns:      2,
		ConnMaxLifetime:   5 * time.Minute,
	}
}

// InMemorySQLiteConfig returns a private in-memory database. A single
// connection keeps every caller on the same database.
func InMemorySQLiteConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:            DriverSQLite,
		DSN:               memoryDSN,
		BusyTimeout:       5 * time.Second,
		EnableForeignKeys: true,
		ImmediateTx:       true,
		MaxOpenConns:      1,
		MaxIdleConns:      1,
	}
}

// PostgresConfig returns a PostgreSQL configuration for the given URL.
func PostgresConfig(dsn string) DatabaseConfig {
	return DatabaseConfig{
		Driver:          DriverPostgres,
		DSN:             dsn,
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}
