package migration

import (
	"context"
	"io/fs"
	"time"
)

// Migration is one versioned schema file.
type Migration struct {
	Version     string // zero padded, "001"
	Description string
	SQL         string
	FilePath    string
	Checksum    string // sha256 of the file, hex
}

// MigrationManager brings a database up to the newest schema version.
type MigrationManager interface {
	RunMigrations(ctx context.Context) error
	GetPendingMigrations(ctx context.Context) ([]Migration, error)
	GetMigrationStatus(ctx context.Context) (*MigrationStatus, error)
}

// FileScanner loads and validates schema files.
type FileScanner interface {
	ScanMigrations(fsys fs.FS, dir string) ([]Migration, error)
	ValidateFileName(filename string) error
	ParseMigration(name string, content []byte) (*Migration, error)
}

// Executor applies schema files. ExecuteMigration must record the version in
// the same transaction as the schema change.
type Executor interface {
	ExecuteMigration(ctx context.Context, migration Migration, executionTime func() time.Duration) error
	InitializeVersionTable(ctx context.Context) error
	GetAppliedVersions(ctx context.Context) ([]AppliedMigration, error)
}

// MigrationStatus summarizes applied and pending versions.
type MigrationStatus struct {
	CurrentVersion    string
	PendingCount      int
	AppliedMigrations []AppliedMigration
	PendingMigrations []Migration
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}
