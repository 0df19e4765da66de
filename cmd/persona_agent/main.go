// Package main provides the entry point for the Persona Foundry CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "persona_agent",
	Short: "Persona Foundry synthetic persona generator",
	Long:  "Persona Foundry generates structured synthetic personas from research data through a cost-bounded draft, quality-gate, and refine pipeline.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
