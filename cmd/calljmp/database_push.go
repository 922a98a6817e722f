// database push command: submit the SQL of every migration file, joined into
// one body, to the hosted database through the remote-migration transport.
// Implements: prd004-schema-migrations R7 (remote apply).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/calljmp/cli/internal/migrate"
	"github.com/calljmp/cli/internal/remote"
)

var databasePushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push all migration files to the hosted database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if projectConfig.APIToken == "" {
			return fmt.Errorf("no API token configured: set %s or api_token in config.yaml", envAPIToken)
		}

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

		var parts []string
		for _, f := range files {
			content, err := os.ReadFile(f.Path)
			if err != nil {
				return fmt.Errorf("reading migration %s: %w", f.Path, err)
			}
			parts = append(parts, string(content))
		}
		sqlText := strings.Join(parts, "\n")

		client := remote.New(projectConfig.APIURL, projectConfig.APIToken)
		if err := client.Migrate(sqlText); err != nil {
			return err
		}
		fmt.Printf("Pushed %d migration file(s)\n", len(files))
		return nil
	},
}
