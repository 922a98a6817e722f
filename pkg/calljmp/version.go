// Package calljmp holds project-wide metadata for the calljmp CLI.
package calljmp

// Version is the CLI release version, overridable at build time with
// -ldflags "-X github.com/calljmp/cli/pkg/calljmp.Version=...".
var Version = "0.3.0"
