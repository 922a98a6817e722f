package migrate

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/calljmp/cli/internal/schema"
	"github.com/calljmp/cli/pkg/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeMigration(t *testing.T, dir, name, content string) types.MigrationFile {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	files, err := ListFiles(dir)
	require.NoError(t, err)
	for _, f := range files {
		if f.Path == path {
			return f
		}
	}
	t.Fatalf("written migration %s not discovered", name)
	return types.MigrationFile{}
}

func TestApplyExecutesPlan(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec("CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL)")
	require.NoError(t, err)

	plan, err := schema.PlanAgainst(db,
		"CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL, username TEXT DEFAULT NULL);")
	require.NoError(t, err)
	require.NoError(t, Apply(db, plan))

	cols, err := schema.Columns(db, "users")
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "username", cols[2].Name)
}

func TestApplyRecreatePreservesRows(t *testing.T) {
	db := openTestDB(t)
	_, err := db.Exec(`
CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT, info TEXT);
INSERT INTO users (id, email, info) VALUES (1, 'a@example.com', 'x'), (2, 'b@example.com', 'y');`)
	require.NoError(t, err)

	plan, err := schema.PlanAgainst(db, "CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT);")
	require.NoError(t, err)

	// The recreate sequence relies on deferred foreign keys, so run it the
	// way callers do: inside one transaction.
	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, Apply(tx, plan))
	require.NoError(t, tx.Commit())

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 2, count)

	var email string
	require.NoError(t, db.QueryRow("SELECT email FROM users WHERE id = 2").Scan(&email))
	assert.Equal(t, "b@example.com", email)

	require.NoError(t, CheckForeignKeys(db))
}

func TestRunMigrationsAppliesOnceAndDetectsTampering(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	f := writeMigration(t, dir, "0001-init.sql",
		"CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT NOT NULL);")

	report, err := RunMigrations(db, []types.MigrationFile{f}, "", nil)
	require.NoError(t, err)
	assert.Len(t, report.Applied, 1)
	assert.Empty(t, report.Skipped)

	// Second run is a no-op.
	report, err = RunMigrations(db, []types.MigrationFile{f}, "", nil)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	assert.Len(t, report.Skipped, 1)

	// Editing an applied file is reported but does not fail the run.
	require.NoError(t, os.WriteFile(f.Path,
		[]byte("CREATE TABLE users (id INTEGER PRIMARY KEY);"), 0o644))
	report, err = RunMigrations(db, []types.MigrationFile{f}, "", nil)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	assert.Len(t, report.Tampered, 1)

	// The tampered file was not re-run: the original schema stands.
	cols, err := schema.Columns(db, "users")
	require.NoError(t, err)
	assert.Len(t, cols, 2)
}

func TestRunMigrationsOrdersByVersion(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	second := writeMigration(t, dir, "0002-add_posts.sql",
		"CREATE TABLE posts (id INTEGER PRIMARY KEY, user_id INTEGER NOT NULL REFERENCES users(id));")
	first := writeMigration(t, dir, "0001-init.sql",
		"CREATE TABLE users (id INTEGER PRIMARY KEY);")

	// Pass them out of order; the runner sorts by version.
	report, err := RunMigrations(db, []types.MigrationFile{second, first}, "", nil)
	require.NoError(t, err)
	require.Len(t, report.Applied, 2)
	assert.Equal(t, "init", report.Applied[0].Name)
	assert.Equal(t, "add_posts", report.Applied[1].Name)
}

func TestRunMigrationsRecordsHash(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	content := "CREATE TABLE users (id INTEGER PRIMARY KEY);"
	f := writeMigration(t, dir, "0001-init.sql", content)

	_, err := RunMigrations(db, []types.MigrationFile{f}, "", nil)
	require.NoError(t, err)

	applied, err := AppliedMigrations(db, "")
	require.NoError(t, err)
	require.Contains(t, applied, "init")
	assert.Equal(t, contentHash([]byte(content)), applied["init"].Hash)
	assert.Equal(t, int64(1), applied["init"].Version)
}

func TestRunMigrationsTransactionFileRejected(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	f := writeMigration(t, dir, "0001-init.sql",
		"BEGIN TRANSACTION;\nCREATE TABLE a (id INTEGER);\nBEGIN TRANSACTION;\nCOMMIT;\nCOMMIT;")

	_, err := RunMigrations(db, []types.MigrationFile{f}, "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrStatementSplit)
}

func TestRunMigrationsFailedStatementRollsBack(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	f := writeMigration(t, dir, "0001-bad.sql",
		"CREATE TABLE a (id INTEGER);\nCREATE TABLE a (id INTEGER);")

	_, err := RunMigrations(db, []types.MigrationFile{f}, "", nil)
	require.Error(t, err)

	// Neither the half-applied statements nor the bookkeeping row survive.
	exists, err := tableExists(db, "a")
	require.NoError(t, err)
	assert.False(t, exists)

	applied, err := AppliedMigrations(db, "")
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestVerifyReportsTamperedFiles(t *testing.T) {
	db := openTestDB(t)
	dir := t.TempDir()
	f := writeMigration(t, dir, "0001-init.sql", "CREATE TABLE users (id INTEGER PRIMARY KEY);")

	_, err := RunMigrations(db, []types.MigrationFile{f}, "", nil)
	require.NoError(t, err)

	tampered, err := Verify(db, []types.MigrationFile{f}, "")
	require.NoError(t, err)
	assert.Empty(t, tampered)

	require.NoError(t, os.WriteFile(f.Path, []byte("CREATE TABLE other (id INTEGER);"), 0o644))
	tampered, err = Verify(db, []types.MigrationFile{f}, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrMigrationTampered)
	require.Len(t, tampered, 1)
	assert.Equal(t, "init", tampered[0].Name)
}

func TestAppliedMigrationsWithoutTable(t *testing.T) {
	db := openTestDB(t)
	applied, err := AppliedMigrations(db, "")
	require.NoError(t, err)
	assert.Empty(t, applied)
}
