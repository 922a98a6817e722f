package schema

import (
	"regexp"
	"strings"

	"github.com/calljmp/cli/pkg/types"
)

// ownerPatterns extracts the owning table from the CREATE text of a
// dependent object. The object kinds are a closed set, so per-kind behavior
// is a lookup table. The table identifier is captured by whichever of the
// alternative groups matched: double-quoted, backquoted, bracketed, or bare.
var ownerPatterns = map[types.ObjectKind]*regexp.Regexp{
	// CREATE [UNIQUE] INDEX [IF NOT EXISTS] <name> ON <table> (...)
	types.KindIndex: regexp.MustCompile(
		`(?is)\bINDEX\s+(?:IF\s+NOT\s+EXISTS\s+)?(?:"[^"]+"|` + "`[^`]+`" + `|\[[^\]]+\]|\S+)\s+ON\s+(?:"([^"]+)"|` + "`([^`]+)`" + `|\[([^\]]+)\]|([A-Za-z_][A-Za-z0-9_]*))`),
	// CREATE TRIGGER <name> {BEFORE|AFTER|INSTEAD OF} <event> ON <table> ...
	types.KindTrigger: regexp.MustCompile(
		`(?is)\bON\s+(?:"([^"]+)"|` + "`([^`]+)`" + `|\[([^\]]+)\]|([A-Za-z_][A-Za-z0-9_]*))`),
	// CREATE VIEW <name> AS SELECT ... FROM <table> ...
	types.KindView: regexp.MustCompile(
		`(?is)\bFROM\s+(?:"([^"]+)"|` + "`([^`]+)`" + `|\[([^\]]+)\]|([A-Za-z_][A-Za-z0-9_]*))`),
}

// owningTable returns the lowercased name of the table an index, trigger, or
// view is defined against, or "" when the text does not reveal one (e.g. a
// view without a FROM clause). For a view whose first FROM opens a
// sub-select, the first table named inside it is returned.
func owningTable(kind types.ObjectKind, createSQL string) string {
	re, ok := ownerPatterns[kind]
	if !ok {
		return ""
	}
	m := re.FindStringSubmatch(createSQL)
	if m == nil {
		return ""
	}
	for _, group := range m[1:] {
		if group != "" {
			return strings.ToLower(group)
		}
	}
	return ""
}
