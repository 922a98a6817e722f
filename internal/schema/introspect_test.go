package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calljmp/cli/pkg/types"
)

const introspectFixture = `
CREATE TABLE users (
  id INTEGER PRIMARY KEY,
  email TEXT NOT NULL,
  plan TEXT DEFAULT 'free'
);
CREATE TABLE sessions (
  id INTEGER PRIMARY KEY,
  user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
  token TEXT NOT NULL
);
CREATE INDEX idx_sessions_user ON sessions(user_id);
CREATE TRIGGER trg_touch AFTER UPDATE ON users BEGIN
  UPDATE users SET email = new.email WHERE id = new.id;
END;
CREATE VIEW active_users AS SELECT id, email FROM users;
CREATE TABLE _calljmp_migrations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  version INTEGER NOT NULL,
  hash TEXT NOT NULL
);
CREATE TABLE _cf_kv (key TEXT PRIMARY KEY, value BLOB);
`

func TestListObjectsFiltersReservedNames(t *testing.T) {
	db, err := openMemoryDB(introspectFixture)
	require.NoError(t, err)
	defer db.Close()

	tables, err := ListObjects(db, types.KindTable)
	require.NoError(t, err)

	var names []string
	for _, o := range tables {
		names = append(names, o.Key())
	}
	assert.Equal(t, []string{"users", "sessions"}, names)

	indexes, err := ListObjects(db, types.KindIndex)
	require.NoError(t, err)
	require.Len(t, indexes, 1)
	assert.Equal(t, "idx_sessions_user", indexes[0].Key())
	assert.Equal(t, types.KindIndex, indexes[0].Kind)

	triggers, err := ListObjects(db, types.KindTrigger)
	require.NoError(t, err)
	require.Len(t, triggers, 1)

	views, err := ListObjects(db, types.KindView)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Contains(t, views[0].SQL, "CREATE VIEW active_users")
}

func TestColumns(t *testing.T) {
	db, err := openMemoryDB(introspectFixture)
	require.NoError(t, err)
	defer db.Close()

	cols, err := Columns(db, "users")
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.Equal(t, "id", cols[0].Name)
	assert.Equal(t, 1, cols[0].PrimaryKeyRank)

	assert.Equal(t, "email", cols[1].Name)
	assert.True(t, cols[1].NotNull)
	assert.Nil(t, cols[1].DefaultValue)

	assert.Equal(t, "plan", cols[2].Name)
	assert.False(t, cols[2].NotNull)
	require.NotNil(t, cols[2].DefaultValue)
	assert.Equal(t, "'free'", *cols[2].DefaultValue)
}

func TestForeignKeys(t *testing.T) {
	db, err := openMemoryDB(introspectFixture)
	require.NoError(t, err)
	defer db.Close()

	keys, err := ForeignKeys(db, "sessions")
	require.NoError(t, err)
	require.Len(t, keys, 1)

	assert.Equal(t, "users", keys[0].ReferencedTable)
	assert.Equal(t, "CASCADE", keys[0].OnDelete)
	require.Len(t, keys[0].Columns, 1)
	assert.Equal(t, "user_id", keys[0].Columns[0].From)
	assert.Equal(t, "id", keys[0].Columns[0].To)

	keys, err = ForeignKeys(db, "users")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestOwningTable(t *testing.T) {
	tests := []struct {
		name string
		kind types.ObjectKind
		sql  string
		want string
	}{
		{"index", types.KindIndex, "CREATE INDEX idx_email ON users(email)", "users"},
		{"unique index with if not exists", types.KindIndex,
			`CREATE UNIQUE INDEX IF NOT EXISTS "idx_x" ON "Users" ("email")`, "users"},
		{"trigger", types.KindTrigger,
			"CREATE TRIGGER trg BEFORE UPDATE ON accounts BEGIN SELECT 1; END", "accounts"},
		{"view", types.KindView,
			"CREATE VIEW v AS SELECT id FROM orders WHERE total > 0", "orders"},
		{"view without from", types.KindView, "CREATE VIEW v AS SELECT 1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, owningTable(tt.kind, tt.sql))
		})
	}
}
