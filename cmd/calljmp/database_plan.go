// database plan command: print the statements that would bring the local
// database to the target schema, without executing anything.
// Implements: prd004-schema-migrations R3 (planning), R8 (rendered plan).
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calljmp/cli/internal/schema"
)

var databasePlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the migration plan for the local database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		targetSQL, err := loadTargetSchema()
		if err != nil {
			return err
		}

		db, err := openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		plan, err := schema.PlanAgainst(db, targetSQL)
		if err != nil {
			return err
		}
		if plan.Empty() {
			fmt.Println("Database schema is up to date")
			return nil
		}
		for _, line := range schema.Render(plan, true) {
			fmt.Println(line)
		}
		return nil
	},
}
