// Package migration applies versioned schema files to the reservation database.
//
// Migration files are named {version}_{description}.sql (for example
// "001_create_companies.sql") and are read from an fs.FS, usually an
// embed.FS compiled into the binary. Applied versions are tracked in the
// schema_migrations table so each file runs exactly once.
//
// Example usage:
//
//	manager := NewMigrationManager(NewFileScanner(), NewSQLExecutor(db), files, "migrations", logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
