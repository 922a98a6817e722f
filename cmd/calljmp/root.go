// Root command for the calljmp CLI.
// Implements: prd001-cli-core (R1, R6); prd002-project-layout (R1, R2).
package main

import (
	"github.com/spf13/cobra"

	"github.com/calljmp/cli/pkg/calljmp"
)

// Exit codes per prd001-cli-core R8.
const (
	exitSuccess = 0
	exitFailure = 1
)

// Global flag values.
var (
	flagConfigDir     string
	flagDatabase      string
	flagSchemaDir     string
	flagMigrationsDir string
)

// projectConfig holds the values loaded from config.yaml and the project
// .env files. Set by PersistentPreRunE so all subcommands can use it.
var projectConfig loadedConfig

var rootCmd = &cobra.Command{
	Use:     "calljmp",
	Short:   "calljmp is the developer CLI for the Calljmp mobile backend",
	Version: calljmp.Version,
	Long: `calljmp manages a mobile backend project from the command line:
the local SQLite development database, declarative schema migrations,
and pushing migrations to the hosted database.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadProjectConfig()
		if err != nil {
			return err
		}
		projectConfig = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDatabase, "database", "", "local database path (default: $(CWD)/.calljmp/project.db)")
	rootCmd.PersistentFlags().StringVar(&flagSchemaDir, "schema-dir", "", "target schema directory (default: $(CWD)/schema)")
	rootCmd.PersistentFlags().StringVar(&flagMigrationsDir, "migrations-dir", "", "migrations directory (default: $(CWD)/migrations)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(databaseCmd)
}
