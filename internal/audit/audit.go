// Package audit provides optional PostgreSQL persistence of pipeline runs
// and their artifacts. Every failure here is reported as a warning by the
// caller; auditing never blocks or aborts a generation run.
package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/persona-foundry/internal/pipeline"
)

// Artifact step identifiers.
const (
	StepPersonas = "personas"
	StepBudget   = "budget"
	StepMetadata = "metadata"
)

// Store wraps a PostgreSQL connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CreateRun records the start of a generation run and returns its ID.
func (s *Store) CreateRun(ctx context.Context, mode string, requestedCount int) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx,
		`INSERT INTO persona_runs (mode, requested_count, status)
		 VALUES ($1, $2, 'running')
		 RETURNING id`,
		mode, requestedCount,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create run: %w", err)
	}
	return id, nil
}

// SaveArtifact stores a JSON artifact for a run, replacing any previous
// artifact with the same step name.
func (s *Store) SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error {
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal %s artifact: %w", step, err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO persona_run_artifacts (run_id, step, content)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (run_id, step) DO UPDATE SET content = EXCLUDED.content, updated_at = NOW()`,
		runID, step, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save %s artifact: %w", step, err)
	}
	return nil
}

// SaveResult stores the personas, budget snapshot and metadata of a
// completed run.
func (s *Store) SaveResult(ctx context.Context, runID uuid.UUID, result *pipeline.Result) error {
	if err := s.SaveArtifact(ctx, runID, StepPersonas, result.Personas); err != nil {
		return err
	}
	if err := s.SaveArtifact(ctx, runID, StepBudget, result.Budget); err != nil {
		return err
	}
	return s.SaveArtifact(ctx, runID, StepMetadata, result.Metadata)
}

// CompleteRun marks a run finished with the given status and counts.
func (s *Store) CompleteRun(ctx context.Context, runID uuid.UUID, status string, personaCount int, totalCost float64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE persona_runs
		 SET status = $1, persona_count = $2, total_cost_usd = $3, completed_at = NOW()
		 WHERE id = $4`,
		status, personaCount, totalCost, runID,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}
