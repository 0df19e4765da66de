package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/persona-foundry/internal/audit"
	"github.com/jonathan/persona-foundry/internal/config"
	"github.com/jonathan/persona-foundry/internal/cost"
	"github.com/jonathan/persona-foundry/internal/judge"
	"github.com/jonathan/persona-foundry/internal/llm"
	"github.com/jonathan/persona-foundry/internal/observability"
	"github.com/jonathan/persona-foundry/internal/pipeline"
	"github.com/jonathan/persona-foundry/internal/pricing"
	"github.com/jonathan/persona-foundry/internal/research"
	"github.com/jonathan/persona-foundry/internal/schemas"
	"github.com/jonathan/persona-foundry/internal/webhook"
)

var generateCommand = &cobra.Command{
	Use:   "generate",
	Short: "Generate personas from a research file",
	Long: `Runs the full persona generation pipeline: draft -> quality gate -> refine.

Drafts are produced in batches on the cheap model, scored by the judge model,
and (in hybrid mode) weak drafts are rewritten on the frontier model. The run
stops early when the cost budget is exhausted.

Configuration can be loaded from a JSON file using --config. Command-line
arguments override config file values.`,
	RunE: runGenerateCmd,
}

var (
	genConfigPath       string
	genResearch         string
	genCount            int
	genLocalModel       string
	genFrontierModel    string
	genJudgeModel       string
	genBatchSize        int
	genConcurrency      int
	genQualityThreshold float64
	genMaxBudget        float64
	genHybrid           bool
	genPricingFile      string
	genOutput           string
	genAPIKey           string
	genDatabaseURL      string
	genWebhookURL       string
	genVerbose          bool
)

func init() {
	// Config file flag (processed first)
	generateCommand.Flags().StringVar(&genConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	generateCommand.Flags().StringVarP(&genResearch, "research", "r", "", "Path to research data file (.json/.yaml/.md/.txt/.html)")
	generateCommand.Flags().IntVarP(&genCount, "count", "n", 0, "Number of personas to generate")
	generateCommand.Flags().StringVar(&genLocalModel, "local-model", "", "Cheap model used for drafting")
	generateCommand.Flags().StringVar(&genFrontierModel, "frontier-model", "", "Expensive model used for refinement (enables hybrid routing)")
	generateCommand.Flags().StringVar(&genJudgeModel, "judge-model", "", "Model used for quality scoring")
	generateCommand.Flags().IntVar(&genBatchSize, "batch-size", 0, "Personas requested per draft batch")
	generateCommand.Flags().IntVar(&genConcurrency, "concurrency", 0, "Maximum concurrent model calls")
	generateCommand.Flags().Float64Var(&genQualityThreshold, "quality-threshold", 0, "Minimum judge score for acceptance (0..1)")
	generateCommand.Flags().Float64Var(&genMaxBudget, "max-budget", 0, "Maximum spend in USD (0 = unbounded)")
	generateCommand.Flags().BoolVar(&genHybrid, "hybrid", false, "Route below-threshold drafts to the frontier model")
	generateCommand.Flags().StringVar(&genPricingFile, "pricing-file", "", "YAML file with per-model token pricing overrides")
	generateCommand.Flags().StringVarP(&genOutput, "output", "o", "", "Path for the generated personas JSON")
	generateCommand.Flags().BoolVarP(&genVerbose, "verbose", "v", false, "Print detailed debug information")

	// API key can be passed as a flag, or read from env var GEMINI_API_KEY
	generateCommand.Flags().StringVar(&genAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")

	// Database URL for audit record persistence
	generateCommand.Flags().StringVar(&genDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	generateCommand.Flags().StringVar(&genWebhookURL, "webhook-url", "", "URL to POST the run summary to when the run finishes")

	rootCmd.AddCommand(generateCommand)
}

func runGenerateCmd(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	// Step 1: Load config file if provided
	var cfg config.Config
	if genConfigPath != "" {
		loadedCfg, err := config.LoadConfig(genConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		cfg = *loadedCfg
		if genVerbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", genConfigPath)
		}
	}

	// Step 2: Apply CLI overrides (command-line args take priority)
	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("research") {
		cfg.Research = genResearch
	}
	if cmd.Flags().Changed("count") {
		cfg.Count = genCount
	}
	if cmd.Flags().Changed("local-model") {
		cfg.LocalModel = genLocalModel
	}
	if cmd.Flags().Changed("frontier-model") {
		cfg.FrontierModel = genFrontierModel
	}
	if cmd.Flags().Changed("judge-model") {
		cfg.JudgeModel = genJudgeModel
	}
	if cmd.Flags().Changed("batch-size") {
		cfg.BatchSize = genBatchSize
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = genConcurrency
	}
	if cmd.Flags().Changed("quality-threshold") {
		cfg.QualityThreshold = &genQualityThreshold
	}
	if cmd.Flags().Changed("max-budget") {
		cfg.MaxBudget = genMaxBudget
	}
	if cmd.Flags().Changed("hybrid") {
		cfg.Hybrid = genHybrid
	}
	if cmd.Flags().Changed("pricing-file") {
		cfg.PricingFile = genPricingFile
	}
	if cmd.Flags().Changed("output") {
		cfg.Output = genOutput
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = genAPIKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = genDatabaseURL
	}
	if cmd.Flags().Changed("webhook-url") {
		cfg.WebhookURL = genWebhookURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = genVerbose
	}

	// Step 3: Apply defaults for unset values
	defaultThreshold := 0.7
	defaults := config.Config{
		Provider:         "gemini",
		LocalModel:       "gemini-2.5-flash-lite",
		JudgeModel:       "gemini-2.5-flash",
		Count:            10,
		BatchSize:        5,
		Concurrency:      4,
		QualityThreshold: &defaultThreshold,
		Output:           "personas.json",
	}
	cfg = cfg.MergeWithDefaults(defaults)

	// Step 4: Validate merged config
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Research == "" {
		return fmt.Errorf("--research is required (via flag or config)")
	}

	// Step 5: API Key handling
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	// Step 6: Database URL handling (audit records are optional)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}

	return generatePersonas(ctx, cfg)
}

func generatePersonas(ctx context.Context, cfg config.Config) error {
	fmt.Printf("Loading research data from %s...\n", cfg.Research)
	researchText, err := research.Load(cfg.Research)
	if err != nil {
		return fmt.Errorf("failed to load research data: %w", err)
	}

	table := pricing.Default()
	if cfg.PricingFile != "" {
		table, err = pricing.LoadFile(cfg.PricingFile)
		if err != nil {
			return fmt.Errorf("failed to load pricing file: %w", err)
		}
	}

	local, err := llm.NewGeminiBackend(ctx, cfg.APIKey, cfg.LocalModel)
	if err != nil {
		return err
	}
	defer func() { _ = local.Close() }()

	judgeBackend, err := llm.NewGeminiBackend(ctx, cfg.APIKey, cfg.JudgeModel)
	if err != nil {
		return err
	}
	defer func() { _ = judgeBackend.Close() }()

	var frontier llm.Backend
	if cfg.FrontierModel != "" {
		fb, err := llm.NewGeminiBackend(ctx, cfg.APIKey, cfg.FrontierModel)
		if err != nil {
			return err
		}
		defer func() { _ = fb.Close() }()
		frontier = fb
	}

	var maxBudget *float64
	if cfg.MaxBudget > 0 {
		maxBudget = &cfg.MaxBudget
	}
	tracker := cost.NewTracker(table, map[cost.Tier]cost.ModelRef{
		cost.TierLocal:    {Provider: cfg.Provider, Model: cfg.LocalModel},
		cost.TierFrontier: {Provider: cfg.Provider, Model: cfg.FrontierModel},
		cost.TierJudge:    {Provider: cfg.Provider, Model: cfg.JudgeModel},
	}, maxBudget)

	// Optional audit trail in PostgreSQL
	var store *audit.Store
	if cfg.DatabaseURL != "" {
		store, err = audit.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: audit database unavailable: %v\n", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	mode := "local-only"
	if cfg.Hybrid && cfg.FrontierModel != "" {
		mode = "hybrid"
	}

	progress := make(chan pipeline.Event, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range progress {
			if ev.Total > 0 {
				fmt.Printf("[%d/%d] %s: %s\n", ev.Completed, ev.Total, ev.Stage, ev.Message)
			} else {
				fmt.Printf("%s: %s\n", ev.Stage, ev.Message)
			}
		}
	}()

	p := pipeline.New(pipeline.Config{
		BatchSize:        cfg.BatchSize,
		Concurrency:      cfg.Concurrency,
		QualityThreshold: *cfg.QualityThreshold,
		Hybrid:           cfg.Hybrid,
		Progress:         progress,
		Verbose:          cfg.Verbose,
	}, local, frontier, judge.NewLLMJudge(judgeBackend, researchText), tracker)

	var runID uuid.UUID
	if store != nil {
		runID, err = store.CreateRun(ctx, mode, cfg.Count)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to create audit run: %v\n", err)
			store = nil
		}
	}

	fmt.Printf("Generating %d personas (%s mode)...\n", cfg.Count, mode)
	result, err := p.Generate(ctx, researchText, cfg.Count)
	close(progress)
	<-done
	if err != nil {
		if store != nil {
			_ = store.CompleteRun(ctx, runID, "failed", 0, tracker.TotalCost())
		}
		return fmt.Errorf("pipeline failed: %w", err)
	}

	if err := writePersonas(cfg.Output, result); err != nil {
		return err
	}
	fmt.Printf("Wrote %d personas to %s\n", len(result.Personas), cfg.Output)

	if cfg.Verbose {
		printer := observability.NewPrinter(os.Stdout)
		printer.PrintPersonas(result.Personas)
		printer.PrintScoreDistribution(result.Personas)
		printer.PrintBudgetReport(result.Budget)
	} else {
		fmt.Printf("Drafted: %d  Passing: %d  Refined: %d  Cost: $%.4f\n",
			result.DraftedCount, result.PassingCount, result.RefinedCount, result.Budget.TotalCost)
	}
	if exceeded, _ := result.Metadata["budget_exceeded"].(bool); exceeded {
		fmt.Println("Budget exhausted before the requested count was reached.")
	}

	// Sanity-check the written file against the persona schema
	if err := schemas.ValidatePersonasFile(cfg.Output); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: output failed schema validation: %v\n", err)
	}

	if store != nil {
		if err := store.SaveResult(ctx, runID, result); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save audit artifacts: %v\n", err)
		}
		if err := store.CompleteRun(ctx, runID, "completed", len(result.Personas), result.Budget.TotalCost); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to finalize audit run: %v\n", err)
		}
	}

	if cfg.WebhookURL != "" {
		notifier := webhook.New(cfg.WebhookURL)
		payload := map[string]any{
			"status":        "completed",
			"mode":          mode,
			"persona_count": len(result.Personas),
			"drafted_count": result.DraftedCount,
			"refined_count": result.RefinedCount,
			"total_cost":    result.Budget.TotalCost,
			"elapsed_ms":    result.Elapsed.Milliseconds(),
			"output":        cfg.Output,
		}
		if err := notifier.Notify(ctx, payload); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: webhook delivery failed: %v\n", err)
		}
	}

	return nil
}

func writePersonas(path string, result *pipeline.Result) error {
	data, err := json.MarshalIndent(result.Personas, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal personas: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
