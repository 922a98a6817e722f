// database new command: generate an empty migration file.
// Implements: prd004-schema-migrations R6.4 (file naming).
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calljmp/cli/internal/migrate"
)

var flagNewTimestamp bool

var databaseNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create a new migration file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveMigrationsDir()
		if err != nil {
			return err
		}
		path, err := migrate.CreateFile(dir, args[0], flagNewTimestamp)
		if err != nil {
			return err
		}
		fmt.Println("Created", path)
		return nil
	},
}

func init() {
	databaseNewCmd.Flags().BoolVar(&flagNewTimestamp, "timestamp", false,
		"use a Unix-seconds version prefix instead of a sequence number")
}
