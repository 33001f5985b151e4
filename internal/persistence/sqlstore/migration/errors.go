package migration

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels wrapped by StepError; match them with errors.Is.
var (
	ErrMigrationFailed      = errors.New("migration failed")
	ErrInvalidMigrationFile = errors.New("invalid migration file")
	ErrVersionConflict      = errors.New("migration version conflict")
	ErrInvalidVersion       = errors.New("invalid migration version")
	ErrDuplicateVersion     = errors.New("duplicate migration version")
	// ErrChecksumMismatch means an applied file was edited afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
	ErrInvalidConfig    = errors.New("invalid database configuration")
)

// StepError records which step of a schema upgrade failed. Database is set
// when the failure came back from the driver rather than from a file.
type StepError struct {
	Version   string
	Source    string
	Step      string
	Statement string
	Database  bool
	Err       error
}

func (e *StepError) Error() string {
	var b strings.Builder
	b.WriteString("migration")
	if e.Version != "" {
		b.WriteString(" " + e.Version)
	}
	if e.Source != "" {
		b.WriteString(" (" + e.Source + ")")
	}
	if e.Database {
		b.WriteString(": database")
	}
	return fmt.Sprintf("%s: %s: %v", b.String(), e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func fileError(version, source, step string, err error) *StepError {
	return &StepError{Version: version, Source: source, Step: step, Err: err}
}

func dbError(version, statement, step string, err error) *StepError {
	return &StepError{Version: version, Statement: statement, Step: step, Database: true, Err: err}
}
