// Database command group for the calljmp CLI.
// Implements: prd004-schema-migrations (CLI surface).
package main

import "github.com/spf13/cobra"

var databaseCmd = &cobra.Command{
	Use:     "database",
	Aliases: []string{"db"},
	Short:   "Manage the project database and its schema migrations",
}

func init() {
	databaseCmd.AddCommand(databasePlanCmd)
	databaseCmd.AddCommand(databaseApplyCmd)
	databaseCmd.AddCommand(databaseMigrateCmd)
	databaseCmd.AddCommand(databaseStatusCmd)
	databaseCmd.AddCommand(databaseNewCmd)
	databaseCmd.AddCommand(databasePushCmd)
}
