// database apply command: plan against the target schema and execute the
// plan on the local database inside one transaction.
// Implements: prd004-schema-migrations R4 (apply), R4.2 (locking),
// R4.3 (post-apply foreign key check).
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calljmp/cli/internal/migrate"
	"github.com/calljmp/cli/internal/schema"
)

var databaseApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the target schema to the local database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		targetSQL, err := loadTargetSchema()
		if err != nil {
			return err
		}

		return withDatabaseLock(func() error {
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

			// The plan's rename-swap sequence is designed to run in one
			// transaction under deferred foreign keys.
			tx, err := db.Begin()
			if err != nil {
				return fmt.Errorf("begin migration transaction: %w", err)
			}
			if err := migrate.Apply(tx, plan); err != nil {
				tx.Rollback()
				return err
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("commit migration: %w", err)
			}

			if err := migrate.CheckForeignKeys(db); err != nil {
				return err
			}
			fmt.Printf("Applied %d statement(s)\n", plan.StatementCount())
			return nil
		})
	},
}
