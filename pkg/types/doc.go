// Package types defines the schema snapshot model, the migration plan model,
// and standard error types shared by the calljmp CLI subsystems.
// Implements: prd004-schema-migrations (data model, error taxonomy);
//
//	docs/ARCHITECTURE § Migration Planner.
package types
