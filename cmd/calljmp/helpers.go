// Shared helpers for calljmp database commands.
// Implements: prd001-cli-core R3; prd004-schema-migrations (R4.2 locking).
package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/calljmp/cli/internal/migrate"
	"github.com/calljmp/cli/internal/paths"
)

// resolveDatabasePath applies the flag > config > env > default chain.
func resolveDatabasePath() (string, error) {
	return paths.ResolveDatabasePath(flagDatabase, projectConfig.Database)
}

// openDatabase opens the local project database, creating its directory on
// first use, with foreign key enforcement on.
func openDatabase() (*sql.DB, error) {
	path, err := resolveDatabasePath()
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return db, nil
}

// loadTargetSchema concatenates the schema directory's .sql files into the
// target DDL script.
func loadTargetSchema() (string, error) {
	dir, err := paths.ResolveSchemaDir(flagSchemaDir, projectConfig.SchemaDir)
	if err != nil {
		return "", fmt.Errorf("resolve schema dir: %w", err)
	}
	schemaSQL, err := migrate.LoadSchemaDir(dir)
	if err != nil {
		return "", err
	}
	if schemaSQL == "" {
		return "", fmt.Errorf("no .sql files found in %s", dir)
	}
	return schemaSQL, nil
}

// resolveMigrationsDir applies the flag > config > env > default chain.
func resolveMigrationsDir() (string, error) {
	return paths.ResolveMigrationsDir(flagMigrationsDir, projectConfig.MigrationsDir)
}

// withDatabaseLock serializes database mutation across concurrent calljmp
// processes using a lock file next to the database.
func withDatabaseLock(fn func() error) error {
	path, err := resolveDatabasePath()
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire database lock: %w", err)
	}
	defer lock.Unlock()

	return fn()
}
