// Version command for the calljmp CLI.
// Implements: prd001-cli-core R2.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/calljmp/cli/pkg/calljmp"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the calljmp version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("calljmp", calljmp.Version)
	},
}
