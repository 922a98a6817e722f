package types

// MigrationsTable is the bookkeeping table recording applied migrations.
// It is created lazily on first apply and is the only persistent state the
// migration subsystem owns. The name matches the reserved %_calljmp_% prefix
// so the introspector never treats it as a user table.
const MigrationsTable = "_calljmp_migrations"

// MigrationFile is a discovered migration script. The numeric filename prefix
// is the version; the remainder is the name.
type MigrationFile struct {
	Version int64  // Parsed numeric prefix, strictly increasing per directory.
	Name    string // Second filename capture, e.g. "init".
	Path    string // Absolute or dir-relative path to the .sql file.
}

// AppliedMigration is one row of the bookkeeping table.
type AppliedMigration struct {
	ID      int64  // Autoincrement primary key.
	Name    string // Unique migration name.
	Version int64  // Version parsed from the filename at apply time.
	Hash    string // Lowercase hex SHA-256 of the file's literal content.
}
