package types

import "strings"

// ObjectKind identifies the four schema object kinds tracked by the planner.
// The set is closed; per-kind behavior lives in small lookup tables rather
// than interfaces.
type ObjectKind string

const (
	KindTable   ObjectKind = "table"
	KindIndex   ObjectKind = "index"
	KindTrigger ObjectKind = "trigger"
	KindView    ObjectKind = "view"
)

// Keyword returns the SQL keyword for the kind, as used in DROP statements
// and plan annotations ("TABLE", "INDEX", "TRIGGER", "VIEW").
func (k ObjectKind) Keyword() string {
	return strings.ToUpper(string(k))
}

// SchemaObject is a named DDL object as stored by SQLite. Name preserves the
// original case; maps of objects are keyed by the lowercased name.
type SchemaObject struct {
	Name string     // Object name as declared.
	Kind ObjectKind // One of the Kind constants.
	SQL  string     // Exact CREATE ... text from sqlite_master.
}

// Key returns the case-insensitive map key for the object.
func (o SchemaObject) Key() string {
	return strings.ToLower(o.Name)
}

// ColumnInfo describes one table column, as reported by PRAGMA table_info.
type ColumnInfo struct {
	Name           string  // Column name as declared.
	DeclaredType   string  // Declared type, may be empty.
	NotNull        bool    // NOT NULL constraint present.
	DefaultValue   *string // Default literal, nil when absent.
	PrimaryKeyRank int     // 1-based position in the primary key, 0 otherwise.
}

// ForeignKeyColumn is one column pair of a foreign key clause.
type ForeignKeyColumn struct {
	From string // Column in the declaring table.
	To   string // Column in the referenced table.
}

// ForeignKey describes one foreign key clause of a table, as reported by
// PRAGMA foreign_key_list.
type ForeignKey struct {
	ReferencedTable string
	Columns         []ForeignKeyColumn
	OnDelete        string
	OnUpdate        string
}
