// Package pipeline reconstructs clean, de-duplicated, price-normalized
// transactions from raw DVF property rows. The engine is a strictly
// sequential batch of table→table stages; every stage produces a new
// derived slice, raw input is never mutated in place, and the run aborts
// on the first invariant violation.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
	"github.com/avenet-dev/dvf-engine/internal/geo"
	"github.com/avenet-dev/dvf-engine/internal/insee"
	"github.com/avenet-dev/dvf-engine/internal/logger"
)

// Step is a single stage of the reconciliation pipeline.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *State) error
}

// State holds the shared state across pipeline steps. The early stages
// work on Raw; consolidation moves the data to Transactions and the later
// stages refine that slice.
type State struct {
	RunID        string
	Raw          []dvf.RawRow
	Transactions []dvf.Transaction
}

func (s *State) rowCount() int {
	if s.Transactions != nil {
		return len(s.Transactions)
	}
	return len(s.Raw)
}

// Engine wires the static reference inputs and tunables into the fixed
// stage sequence. Reference tables are injected, not ambient, so tests can
// substitute fixtures.
type Engine struct {
	Regions       insee.RegionLookup
	Layer         *geo.Layer
	ReferenceYear int
	ChunkSize     int
	IQRMinSample  int
}

// Steps returns the stage sequence in its mandatory order. Later stages'
// statistical semantics depend on earlier filtering having already run.
func (e *Engine) Steps() []Step {
	chunkSize := e.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	minSample := e.IQRMinSample
	if minSample <= 0 {
		minSample = DefaultIQRMinSample
	}

	return []Step{
		&normalizeCulturesStep{},
		&dedupeLandUseStep{},
		&flagDependenciesStep{},
		&eligibilityStep{},
		&consolidateStep{},
		&regionStep{lookup: e.Regions},
		&outlierStep{minSample: minSample},
		&timeAdjustStep{referenceYear: e.ReferenceYear},
		&spatialStep{layer: e.Layer, chunkSize: chunkSize},
	}
}

// Run executes the pipeline over the raw rows and returns the consolidated
// transactions. The whole run carries one run id through every log line.
func (e *Engine) Run(ctx context.Context, raw []dvf.RawRow) ([]dvf.Transaction, error) {
	state := &State{
		RunID: uuid.NewString(),
		Raw:   raw,
	}

	log := logger.FromContext(ctx).With().Str("run_id", state.RunID).Logger()
	ctx = logger.WithContext(ctx, log)

	log.Info().Int("raw_rows", len(raw)).Msg("Starting DVF reconciliation")
	runStart := time.Now()

	for _, step := range e.Steps() {
		before := state.rowCount()
		start := time.Now()

		if err := step.Execute(ctx, state); err != nil {
			return nil, fmt.Errorf("pipeline: step %s: %w", step.Name(), err)
		}

		log.Info().
			Str("step", step.Name()).
			Int("rows_in", before).
			Int("rows_out", state.rowCount()).
			Str("took", logger.FormatDuration(time.Since(start))).
			Msg("Step complete")
	}

	log.Info().
		Int("transactions", len(state.Transactions)).
		Str("took", logger.FormatDuration(time.Since(runStart))).
		Msg("Reconciliation complete")

	return state.Transactions, nil
}
