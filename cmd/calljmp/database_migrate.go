// database migrate command: run tracked migration files against the local
// database.
// Implements: prd004-schema-migrations R6 (tracked migrations).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/calljmp/cli/internal/migrate"
)

var flagMigrateStrict bool

var databaseMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run pending migration files against the local database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveMigrationsDir()
		if err != nil {
			return err
		}
		files, err := migrate.ListFiles(dir)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("No migration files found in", dir)
			return nil
		}

		return withDatabaseLock(func() error {
			db, err := openDatabase()
			if err != nil {
				return err
			}
			defer db.Close()

			report, err := migrate.RunMigrations(db, files, "", migrate.NewStatusLog(os.Stdout))
			if err != nil {
				return err
			}
			if flagMigrateStrict && len(report.Tampered) > 0 {
				return fmt.Errorf("%d modified migration(s) detected", len(report.Tampered))
			}
			return nil
		})
	},
}

func init() {
	databaseMigrateCmd.Flags().BoolVar(&flagMigrateStrict, "strict", false,
		"fail when an applied migration file has been modified")
}
