package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/persona-foundry/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a personas JSON file against the persona schema",
	Long:  "Checks a generated personas file for structural problems: missing identifiers, malformed evaluations, out-of-range scores.",
	RunE:  runValidate,
}

var validateInput string

func init() {
	validateCmd.Flags().StringVarP(&validateInput, "in", "i", "", "Path to personas JSON file (required)")

	if err := validateCmd.MarkFlagRequired("in"); err != nil {
		panic(fmt.Sprintf("failed to mark in flag as required: %v", err))
	}

	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(validateInput); os.IsNotExist(err) {
		return fmt.Errorf("personas file not found: %s", validateInput)
	}

	if err := schemas.ValidatePersonasFile(validateInput); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			_, _ = fmt.Fprintf(os.Stdout, "Validation found %d problem(s):\n", len(validationErr.Errors))
			for _, fieldErr := range validationErr.Errors {
				_, _ = fmt.Fprintf(os.Stdout, "  %s: %s\n", fieldErr.Field, fieldErr.Message)
			}
			// Return error to indicate violations were found (exit code 1)
			return fmt.Errorf("validation found %d problem(s)", len(validationErr.Errors))
		}
		return fmt.Errorf("failed to validate personas file: %w", err)
	}

	_, _ = fmt.Fprintf(os.Stdout, "Validation passed: %s\n", validateInput)
	return nil
}
