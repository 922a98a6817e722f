// database status command: list applied and pending migrations.
// Implements: prd004-schema-migrations R6.3 (status reporting).
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calljmp/cli/internal/migrate"
)

var databaseStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
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

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := migrate.AppliedMigrations(db, "")
		if err != nil {
			return err
		}

		if len(files) == 0 && len(applied) == 0 {
			fmt.Println("No migrations found")
			return nil
		}
		for _, f := range files {
			if _, ok := applied[f.Name]; ok {
				fmt.Printf("applied  %d: %s\n", f.Version, f.Name)
			} else {
				fmt.Printf("pending  %d: %s\n", f.Version, f.Name)
			}
		}

		tampered, err := migrate.Verify(db, files, "")
		if tampered != nil {
			for _, f := range tampered {
				fmt.Printf("Migration %d (%s) has been modified\n", f.Version, f.Name)
			}
			return nil
		}
		return err
	},
}
