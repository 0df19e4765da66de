// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jonathan/persona-foundry/internal/cost"
	"github.com/jonathan/persona-foundry/internal/persona"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintPersonas outputs a human-readable summary of the generated personas.
func (p *Printer) PrintPersonas(personas []*persona.Persona) {
	if len(personas) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Generated %d personas:\n\n", len(personas)))

	count := min(len(personas), maxItemsToShow)
	for i := 0; i < count; i++ {
		ps := personas[i]
		sb.WriteString(fmt.Sprintf("• %s  (%s)\n", ps.Name, ps.ID))
		if ps.Evaluation != nil {
			sb.WriteString(fmt.Sprintf("  Score: %.2f", ps.Evaluation.OverallScore))
			if ps.Refined {
				sb.WriteString("  [refined]")
			}
			sb.WriteString("\n")
		}
		if ps.EvaluationError != "" {
			msg := ps.EvaluationError
			if len(msg) > 45 {
				msg = msg[:42] + "..."
			}
			sb.WriteString(fmt.Sprintf("  ⚠ eval failed: %s\n", msg))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(personas) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more personas", len(personas)-maxItemsToShow))
	}

	p.printBox("GENERATED PERSONAS", sb.String())
}

// PrintScoreDistribution outputs judge scores bucketed into a small histogram.
func (p *Printer) PrintScoreDistribution(personas []*persona.Persona) {
	buckets := make([]int, 5)
	scored := 0
	for _, ps := range personas {
		if ps.Evaluation == nil {
			continue
		}
		scored++
		idx := int(ps.Evaluation.OverallScore * 5)
		if idx > 4 {
			idx = 4
		}
		if idx < 0 {
			idx = 0
		}
		buckets[idx]++
	}
	if scored == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scored personas: %d\n\n", scored))
	labels := []string{"0.0–0.2", "0.2–0.4", "0.4–0.6", "0.6–0.8", "0.8–1.0"}
	for i := len(buckets) - 1; i >= 0; i-- {
		bar := strings.Repeat("█", buckets[i])
		sb.WriteString(fmt.Sprintf("%s  %s %d\n", labels[i], bar, buckets[i]))
	}

	p.printBox("SCORE DISTRIBUTION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintBudgetReport outputs per-tier token usage and cost from a tracker snapshot.
func (p *Printer) PrintBudgetReport(snap cost.Snapshot) {
	var sb strings.Builder

	tiers := make([]cost.Tier, 0, len(snap.Usage))
	for tier := range snap.Usage {
		tiers = append(tiers, tier)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })

	for _, tier := range tiers {
		counters := snap.Usage[tier]
		if counters.InputTokens == 0 && counters.OutputTokens == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%-10s in: %-8d out: %-8d $%.4f\n",
			tier, counters.InputTokens, counters.OutputTokens, snap.Cost[tier]))
	}

	sb.WriteString(fmt.Sprintf("\nTotal cost: $%.4f", snap.TotalCost))
	if snap.MaxBudget != nil {
		sb.WriteString(fmt.Sprintf(" / budget $%.4f", *snap.MaxBudget))
	}

	p.printBox("BUDGET REPORT", sb.String())
}
