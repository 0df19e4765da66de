package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/persona-foundry/internal/pricing"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Print the model pricing table",
	Long:  "Prints the per-million-token pricing used for cost accounting, including any overrides loaded from a pricing file.",
	RunE:  runPricing,
}

var pricingFilePath string

func init() {
	pricingCmd.Flags().StringVarP(&pricingFilePath, "pricing-file", "f", "", "YAML file with per-model token pricing overrides")

	rootCmd.AddCommand(pricingCmd)
}

func runPricing(_ *cobra.Command, _ []string) error {
	table := pricing.Default()
	if pricingFilePath != "" {
		loaded, err := pricing.LoadFile(pricingFilePath)
		if err != nil {
			return fmt.Errorf("failed to load pricing file: %w", err)
		}
		table = loaded
	}

	entries := table.Entries()
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PROVIDER\tMODEL\tINPUT $/MTok\tOUTPUT $/MTok")
	for _, k := range keys {
		entry := entries[k]
		provider, model, _ := strings.Cut(k, "/")
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.2f\t%.2f\n", provider, model, entry.InputPerMTok, entry.OutputPerMTok)
	}
	return w.Flush()
}
