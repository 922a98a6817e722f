// Package main provides the calljmp developer CLI.
// Implements: prd001-cli-core (R1 dispatch, R8 exit codes);
//
//	docs/ARCHITECTURE § CLI.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitFailure)
	}
}
