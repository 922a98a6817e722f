// Package schema implements the declarative SQLite schema tooling: the SQL
// normalizer, the schema introspector, the foreign-key graph, the migration
// planner, and the statement splitter.
// Implements: prd004-schema-migrations (R1 normalizer, R2 introspector,
//
//	R3 planner, R5 splitter); docs/ARCHITECTURE § Migration Planner.
package schema

import (
	"regexp"
	"strings"
)

var (
	lineCommentPattern = regexp.MustCompile(`--[^\n]*`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	punctuationPattern = regexp.MustCompile(`\s*([(),])\s*`)
	quotedWordPattern  = regexp.MustCompile(`"([A-Za-z_][A-Za-z0-9_]*)"`)
)

// Normalize canonicalizes a DDL statement for equality comparison. The result
// is never executed; it exists so two CREATE texts produced by the same
// SQLite version compare equal when they differ only in layout or redundant
// identifier quoting. Deterministic and locale-independent. Idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(sql string) string {
	s := lineCommentPattern.ReplaceAllString(sql, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = punctuationPattern.ReplaceAllString(s, "$1")
	s = quotedWordPattern.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}
