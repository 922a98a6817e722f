package schema

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/calljmp/cli/pkg/types"
)

// isReservedName filters engine-internal and CLI-internal objects out of
// schema listings. _cf_% tables belong to the hosting platform's edge runtime;
// %_calljmp_% covers the migration bookkeeping table.
func isReservedName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasPrefix(lower, "sqlite_") ||
		strings.HasPrefix(lower, "_cf_") ||
		strings.Contains(lower, "_calljmp_")
}

// ListObjects enumerates schema objects of one kind in creation order,
// excluding reserved names and objects without stored SQL (auto-indexes).
func ListObjects(db *sql.DB, kind types.ObjectKind) ([]types.SchemaObject, error) {
	rows, err := db.Query(
		"SELECT name, sql FROM sqlite_master WHERE type = ? AND sql IS NOT NULL ORDER BY rowid",
		string(kind))
	if err != nil {
		return nil, fmt.Errorf("listing %s objects: %w", kind, err)
	}
	defer rows.Close()

	var objects []types.SchemaObject
	for rows.Next() {
		var o types.SchemaObject
		if err := rows.Scan(&o.Name, &o.SQL); err != nil {
			return nil, fmt.Errorf("scanning %s object: %w", kind, err)
		}
		if isReservedName(o.Name) {
			continue
		}
		o.Kind = kind
		objects = append(objects, o)
	}
	return objects, rows.Err()
}

// ObjectMap indexes objects by their lowercased name.
func ObjectMap(objects []types.SchemaObject) map[string]types.SchemaObject {
	m := make(map[string]types.SchemaObject, len(objects))
	for _, o := range objects {
		m[o.Key()] = o
	}
	return m
}

// Columns returns the column metadata of a table in declaration order,
// via PRAGMA table_info.
func Columns(db *sql.DB, table string) ([]types.ColumnInfo, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []types.ColumnInfo
	for rows.Next() {
		var (
			cid     int
			c       types.ColumnInfo
			notNull int
			dflt    sql.NullString
		)
		if err := rows.Scan(&cid, &c.Name, &c.DeclaredType, &notNull, &dflt, &c.PrimaryKeyRank); err != nil {
			return nil, fmt.Errorf("scanning column of %s: %w", table, err)
		}
		c.NotNull = notNull != 0
		if dflt.Valid {
			c.DefaultValue = &dflt.String
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// ForeignKeys returns the foreign key clauses of a table via
// PRAGMA foreign_key_list. Multi-column clauses are grouped by clause id.
func ForeignKeys(db *sql.DB, table string) ([]types.ForeignKey, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA foreign_key_list(%s)", quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("reading foreign keys of %s: %w", table, err)
	}
	defer rows.Close()

	var (
		keys   []types.ForeignKey
		lastID = -1
	)
	for rows.Next() {
		var (
			id, seq            int
			referenced         string
			from, to           sql.NullString
			onUpdate, onDelete string
			match              string
		)
		if err := rows.Scan(&id, &seq, &referenced, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("scanning foreign key of %s: %w", table, err)
		}
		if id != lastID {
			keys = append(keys, types.ForeignKey{
				ReferencedTable: referenced,
				OnDelete:        onDelete,
				OnUpdate:        onUpdate,
			})
			lastID = id
		}
		keys[len(keys)-1].Columns = append(keys[len(keys)-1].Columns, types.ForeignKeyColumn{
			From: from.String,
			To:   to.String,
		})
	}
	return keys, rows.Err()
}

// quoteIdent double-quotes an identifier for interpolation into PRAGMA
// statements, which do not accept bound parameters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
