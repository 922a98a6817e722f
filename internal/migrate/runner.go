// Package migrate executes migration plans against live databases and tracks
// applied migration files in the bookkeeping table.
// Implements: prd004-schema-migrations (R4 runner, R6 tracking);
//
//	docs/ARCHITECTURE § Migration Runner.
package migrate

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"github.com/calljmp/cli/internal/schema"
	"github.com/calljmp/cli/pkg/types"
)

// Execer is the statement execution surface the runner needs. Both *sql.DB
// and *sql.Tx satisfy it; callers that need all-or-nothing atomicity pass a
// transaction they opened themselves.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Apply executes a plan's rendered statements strictly in order and stops at
// the first engine error. The runner does not open a transaction of its own:
// the plan's rename/copy sequence is designed to run inside one caller-owned
// transaction under deferred foreign keys.
func Apply(db Execer, plan *types.MigrationPlan) error {
	for _, stmt := range schema.Render(plan, false) {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt, err)
		}
	}
	return nil
}

// CheckForeignKeys runs PRAGMA foreign_key_check and reports violations as
// ErrForeignKeyViolation. No automatic fixup is attempted.
func CheckForeignKeys(db *sql.DB) error {
	rows, err := db.Query("PRAGMA foreign_key_check")
	if err != nil {
		return fmt.Errorf("checking foreign keys: %w", err)
	}
	defer rows.Close()

	var violations int
	var firstTable string
	for rows.Next() {
		var table, parent string
		var rowid, fkid sql.NullInt64
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return fmt.Errorf("scanning foreign key violation: %w", err)
		}
		if violations == 0 {
			firstTable = table
		}
		violations++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if violations > 0 {
		return fmt.Errorf("%w: %d rows, first in table %s", types.ErrForeignKeyViolation, violations, firstTable)
	}
	return nil
}

// RunReport summarizes one RunMigrations pass.
type RunReport struct {
	Applied  []types.MigrationFile
	Skipped  []types.MigrationFile
	Tampered []types.MigrationFile
}

// RunMigrations applies the given migration files in ascending version order,
// tracking each by the SHA-256 of its literal content in the bookkeeping
// table. Already-applied files with matching hashes are skipped. A hash
// mismatch is reported per file and does not stop the run; history is never
// rewritten. Each pending file's statements plus its bookkeeping insert run
// in one transaction.
func RunMigrations(db *sql.DB, files []types.MigrationFile, table string, log *StatusLog) (*RunReport, error) {
	if table == "" {
		table = types.MigrationsTable
	}
	if err := ensureMigrationsTable(db, table); err != nil {
		return nil, err
	}
	applied, err := AppliedMigrations(db, table)
	if err != nil {
		return nil, err
	}

	ordered := make([]types.MigrationFile, len(files))
	copy(ordered, files)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Version != ordered[j].Version {
			return ordered[i].Version < ordered[j].Version
		}
		return ordered[i].Name < ordered[j].Name
	})

	report := &RunReport{}
	for _, f := range ordered {
		content, err := os.ReadFile(f.Path)
		if err != nil {
			return report, fmt.Errorf("reading migration %s: %w", f.Path, err)
		}
		hash := contentHash(content)

		if prior, ok := applied[f.Name]; ok {
			if prior.Hash == hash {
				log.Skipped(f)
				report.Skipped = append(report.Skipped, f)
				continue
			}
			log.Tampered(f)
			report.Tampered = append(report.Tampered, f)
			continue
		}

		stmts, err := schema.SplitStatements(string(content))
		if err != nil {
			return report, fmt.Errorf("migration %s: %w", f.Path, err)
		}
		if err := applyMigration(db, table, f, hash, stmts); err != nil {
			log.Failed(f)
			return report, err
		}
		log.Applied(f)
		report.Applied = append(report.Applied, f)
	}
	return report, nil
}

// applyMigration runs one migration's statements and its bookkeeping insert
// in a single transaction.
func applyMigration(db *sql.DB, table string, f types.MigrationFile, hash string, stmts []string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration %s: %w", f.Name, err)
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %s: executing %q: %w", f.Name, stmt, err)
		}
	}
	if _, err := tx.Exec(
		fmt.Sprintf("INSERT INTO %s (name, version, hash) VALUES (?, ?, ?)", table),
		f.Name, f.Version, hash); err != nil {
		tx.Rollback()
		return fmt.Errorf("recording migration %s: %w", f.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %s: %w", f.Name, err)
	}
	return nil
}

// AppliedMigrations reads the bookkeeping table into a map keyed by name.
// A missing table yields an empty map.
func AppliedMigrations(db *sql.DB, table string) (map[string]types.AppliedMigration, error) {
	if table == "" {
		table = types.MigrationsTable
	}
	exists, err := tableExists(db, table)
	if err != nil {
		return nil, err
	}
	applied := make(map[string]types.AppliedMigration)
	if !exists {
		return applied, nil
	}

	rows, err := db.Query(fmt.Sprintf("SELECT id, name, version, hash FROM %s", table))
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var m types.AppliedMigration
		if err := rows.Scan(&m.ID, &m.Name, &m.Version, &m.Hash); err != nil {
			return nil, fmt.Errorf("scanning applied migration: %w", err)
		}
		applied[m.Name] = m
	}
	return applied, rows.Err()
}

// Verify compares the given files against the bookkeeping table and returns
// the files whose recorded hash no longer matches their content, wrapped in
// ErrMigrationTampered when any are found.
func Verify(db *sql.DB, files []types.MigrationFile, table string) ([]types.MigrationFile, error) {
	applied, err := AppliedMigrations(db, table)
	if err != nil {
		return nil, err
	}
	var tampered []types.MigrationFile
	for _, f := range files {
		prior, ok := applied[f.Name]
		if !ok {
			continue
		}
		content, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", f.Path, err)
		}
		if contentHash(content) != prior.Hash {
			tampered = append(tampered, f)
		}
	}
	if len(tampered) > 0 {
		return tampered, fmt.Errorf("%w: %d file(s)", types.ErrMigrationTampered, len(tampered))
	}
	return nil, nil
}

func ensureMigrationsTable(db *sql.DB, table string) error {
	_, err := db.Exec(fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  version INTEGER NOT NULL,
  hash TEXT NOT NULL
)`, table))
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}
	return nil
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking table %s: %w", table, err)
	}
	return count > 0, nil
}

// contentHash is the lowercase hex SHA-256 of a migration file's bytes.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
