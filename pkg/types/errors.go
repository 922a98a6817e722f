package types

import "errors"

// Standard error values for the migration subsystems. Callers match with
// errors.Is; lower layers wrap these with context via fmt.Errorf("%w").
// Implements: prd004-schema-migrations (error taxonomy).
var (
	// ErrSchemaInvalid indicates that a schema script failed to load into
	// the reference in-memory database. The engine error is attached.
	ErrSchemaInvalid = errors.New("schema is not valid SQL")

	// ErrPlanInfeasible indicates that a structural change cannot preserve
	// existing rows, e.g. a NOT NULL column without a default added to a
	// populated table. Reported before any mutation.
	ErrPlanInfeasible = errors.New("migration plan cannot preserve existing rows")

	// ErrForeignKeyViolation indicates that PRAGMA foreign_key_check
	// returned rows after a plan was applied.
	ErrForeignKeyViolation = errors.New("foreign key violations after migration")

	// ErrStatementSplit indicates a migration file the splitter refuses:
	// transaction statements beyond the head/tail strip, or an unclosed
	// quote or BEGIN...END block.
	ErrStatementSplit = errors.New("cannot split SQL into statements")

	// ErrMigrationTampered indicates an applied migration whose file content
	// hash no longer matches the recorded hash.
	ErrMigrationTampered = errors.New("applied migration has been modified")

	// ErrRemoteTransport indicates a failed remote migration handshake:
	// a non-2xx response or an upload ETag mismatch.
	ErrRemoteTransport = errors.New("remote migration transport failed")
)
