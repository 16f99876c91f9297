// Package main is the hirebuddy binary: the candidate API, the pipeline
// workers and schema migrations.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "hirebuddy",
	Short:        "Candidate onboarding pipeline",
	Long:         "hirebuddy ingests resumes, extracts candidate fields and collects identity documents through a background pipeline.",
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
