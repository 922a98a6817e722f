// Package integration exercises the migration planner and runner end to end
// against live SQLite databases.
package integration

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/calljmp/cli/internal/migrate"
	"github.com/calljmp/cli/internal/schema"
	"github.com/calljmp/cli/pkg/types"
)

// openDB opens a private in-memory database with foreign keys on and loads
// the given schema script.
func openDB(t *testing.T, schemaSQL string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	mustExec(t, db, "PRAGMA foreign_keys = ON")
	if schemaSQL != "" {
		mustExec(t, db, schemaSQL)
	}
	return db
}

func mustExec(t *testing.T, db *sql.DB, stmts string) {
	t.Helper()
	_, err := db.Exec(stmts)
	require.NoError(t, err)
}

// applyPlan runs a plan the way the CLI does: inside one transaction, with a
// foreign key check afterwards.
func applyPlan(t *testing.T, db *sql.DB, plan *types.MigrationPlan) {
	t.Helper()
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, migrate.Apply(tx, plan))
	require.NoError(t, tx.Commit())
	require.NoError(t, migrate.CheckForeignKeys(db))
}

// schemaSnapshot maps every user object of a database to its normalized
// CREATE text, keyed by "<kind>/<name>".
func schemaSnapshot(t *testing.T, db *sql.DB) map[string]string {
	t.Helper()
	snapshot := make(map[string]string)
	for _, kind := range []types.ObjectKind{
		types.KindTable, types.KindIndex, types.KindTrigger, types.KindView,
	} {
		objects, err := schema.ListObjects(db, kind)
		require.NoError(t, err)
		for _, o := range objects {
			snapshot[string(kind)+"/"+o.Key()] = schema.Normalize(o.SQL)
		}
	}
	return snapshot
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
