// Package paths resolves configuration, database, schema, and migration
// directory locations for the calljmp CLI.
// Implements: prd002-project-layout (R1 config dir, R2 project files).
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// CWD-relative defaults. A calljmp project keeps its local database inside
// the hidden project directory and its SQL next to the source tree.
const (
	DefaultProjectDirName   = ".calljmp"
	DefaultDatabaseFileName = "project.db"
	DefaultSchemaDirName    = "schema"
	DefaultMigrationsDir    = "migrations"
)

// Environment variable names for overrides.
const (
	EnvConfigDir     = "CALLJMP_CONFIG_DIR"
	EnvDatabase      = "CALLJMP_DATABASE"
	EnvSchemaDir     = "CALLJMP_SCHEMA_DIR"
	EnvMigrationsDir = "CALLJMP_MIGRATIONS_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration
// directory, which holds the global config.yaml.
//
// Linux:   $XDG_CONFIG_HOME/calljmp (fallback ~/.config/calljmp)
// macOS:   ~/Library/Application Support/calljmp
// Windows: %APPDATA%/calljmp
func DefaultConfigDir() (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "calljmp"), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", "calljmp"), nil
	default:
		// macOS and Windows use os.UserConfigDir which returns
		// ~/Library/Application Support on macOS and %APPDATA% on Windows.
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "calljmp"), nil
	}
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > CALLJMP_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveDatabasePath returns the local database file path following the
// precedence chain: flag > config.yaml value > CALLJMP_DATABASE env >
// $(CWD)/.calljmp/project.db.
func ResolveDatabasePath(flag, configValue string) (string, error) {
	return resolveProjectPath(flag, configValue, EnvDatabase,
		filepath.Join(DefaultProjectDirName, DefaultDatabaseFileName))
}

// ResolveSchemaDir returns the target schema directory following the
// precedence chain: flag > config.yaml value > CALLJMP_SCHEMA_DIR env >
// $(CWD)/schema.
func ResolveSchemaDir(flag, configValue string) (string, error) {
	return resolveProjectPath(flag, configValue, EnvSchemaDir, DefaultSchemaDirName)
}

// ResolveMigrationsDir returns the migrations directory following the
// precedence chain: flag > config.yaml value > CALLJMP_MIGRATIONS_DIR env >
// $(CWD)/migrations.
func ResolveMigrationsDir(flag, configValue string) (string, error) {
	return resolveProjectPath(flag, configValue, EnvMigrationsDir, DefaultMigrationsDir)
}

// resolveProjectPath applies the shared precedence chain for CWD-relative
// project paths.
func resolveProjectPath(flag, configValue, envName, cwdDefault string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(envName); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, cwdDefault), nil
}
