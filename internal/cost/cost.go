// Package cost accumulates per-tier token usage and derives running USD cost
// against an optional budget ceiling.
package cost

import (
	"fmt"
	"os"
	"sync"

	"github.com/jonathan/persona-foundry/internal/pricing"
)

// Tier names a token accounting bucket.
type Tier string

// Accounting tiers. Local is the cheap draft backend, Frontier the expensive
// refinement backend, Judge the quality-scoring backend.
const (
	TierLocal    Tier = "local"
	TierFrontier Tier = "frontier"
	TierJudge    Tier = "judge"
)

// Tiers lists all accounting tiers in display order.
var Tiers = []Tier{TierLocal, TierFrontier, TierJudge}

// ModelRef identifies the (provider, model) pair billed for a tier.
type ModelRef struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// Counters holds monotonically non-decreasing token counts for one tier.
type Counters struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// Snapshot is an immutable view of the budget state, suitable for reporting.
type Snapshot struct {
	MaxBudget *float64          `json:"max_budget,omitempty"`
	Usage     map[Tier]Counters `json:"usage"`
	Cost      map[Tier]float64  `json:"cost"`
	TotalCost float64           `json:"total_cost"`
}

// Tracker accumulates token usage per tier and computes running USD cost.
// Pipeline stages run on real goroutines, so every counter increment and
// every over-budget check takes the mutex.
type Tracker struct {
	mu        sync.Mutex
	table     *pricing.Table
	models    map[Tier]ModelRef
	usage     map[Tier]*Counters
	maxBudget *float64
	warned    map[Tier]bool
}

// NewTracker creates a tracker pricing each tier by its model reference.
// A nil maxBudget means the run is unbounded.
func NewTracker(table *pricing.Table, models map[Tier]ModelRef, maxBudget *float64) *Tracker {
	if table == nil {
		table = pricing.Default()
	}
	usage := make(map[Tier]*Counters, len(Tiers))
	for _, tier := range Tiers {
		usage[tier] = &Counters{}
	}
	return &Tracker{
		table:     table,
		models:    models,
		usage:     usage,
		maxBudget: maxBudget,
		warned:    make(map[Tier]bool),
	}
}

// AddUsage increments the tier's token counters.
func (t *Tracker) AddUsage(tier Tier, inputTokens, outputTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.usage[tier]
	if c == nil {
		c = &Counters{}
		t.usage[tier] = c
	}
	c.InputTokens += int64(inputTokens)
	c.OutputTokens += int64(outputTokens)
}

// Cost returns the USD cost accrued by one tier.
func (t *Tracker) Cost(tier Tier) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.costLocked(tier)
}

// costLocked computes a tier's cost; callers must hold the mutex.
func (t *Tracker) costLocked(tier Tier) float64 {
	c := t.usage[tier]
	if c == nil || (c.InputTokens == 0 && c.OutputTokens == 0) {
		// An idle tier costs nothing; don't warn about its pricing either,
		// since local-only runs legitimately leave the frontier model unset.
		return 0
	}
	ref, ok := t.models[tier]
	if !ok {
		return 0
	}
	entry, known := t.table.Lookup(ref.Provider, ref.Model)
	if !known {
		if !t.warned[tier] {
			t.warned[tier] = true
			fmt.Fprintf(os.Stderr, "Warning: no pricing for %s/%s (%s tier), assuming zero cost\n",
				ref.Provider, ref.Model, tier)
		}
		return 0
	}
	return entry.Cost(c.InputTokens, c.OutputTokens)
}

// TotalCost sums the cost of all tiers.
func (t *Tracker) TotalCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalLocked()
}

func (t *Tracker) totalLocked() float64 {
	var total float64
	for _, tier := range Tiers {
		total += t.costLocked(tier)
	}
	return total
}

// IsOverBudget reports whether total cost has exceeded the configured budget.
// Always false when no budget is set.
func (t *Tracker) IsOverBudget() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.maxBudget == nil {
		return false
	}
	return t.totalLocked() > *t.maxBudget
}

// RemainingBudget returns the unspent budget and whether the run is bounded.
// The remainder never goes negative.
func (t *Tracker) RemainingBudget() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.maxBudget == nil {
		return 0, false
	}
	remaining := *t.maxBudget - t.totalLocked()
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Snapshot returns an immutable copy of the current budget state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		Usage: make(map[Tier]Counters, len(Tiers)),
		Cost:  make(map[Tier]float64, len(Tiers)),
	}
	if t.maxBudget != nil {
		budget := *t.maxBudget
		snap.MaxBudget = &budget
	}
	for _, tier := range Tiers {
		if c := t.usage[tier]; c != nil {
			snap.Usage[tier] = *c
		} else {
			snap.Usage[tier] = Counters{}
		}
		snap.Cost[tier] = t.costLocked(tier)
		snap.TotalCost += snap.Cost[tier]
	}
	return snap
}
