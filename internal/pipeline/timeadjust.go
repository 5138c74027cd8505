package pipeline

import (
	"context"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
	"github.com/avenet-dev/dvf-engine/internal/logger"
	"github.com/avenet-dev/dvf-engine/internal/stats"
)

// AdjustmentKey identifies one cell of the price-index lookup table.
type AdjustmentKey struct {
	Departement string
	TypeLocal   string
	Annee       int
}

// timeAdjustStep normalizes every transaction's price level to the
// reference year. Factors come from a small per-(department, type, year)
// lookup table built once from the clean data, not from per-row
// recomputation.
type timeAdjustStep struct {
	referenceYear int
}

func (s *timeAdjustStep) Name() string { return "adjust_prices" }

func (s *timeAdjustStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	// Year extraction first: factors and lookups key on it.
	out := make([]dvf.Transaction, len(state.Transactions))
	for i, tx := range state.Transactions {
		tx.AnneeMutation = tx.DateMutation.Year()
		out[i] = tx
	}

	factors := computeAdjustmentFactors(out, s.referenceYear)
	log.Info().
		Int("entries", len(factors)).
		Int("reference_year", s.referenceYear).
		Msg("Built adjustment factor lookup table")

	adjusted := 0
	for i, tx := range out {
		key := AdjustmentKey{tx.CodeDepartement, tx.TypeLocal, tx.AnneeMutation}
		factor, ok := factors[key]
		if !ok {
			// No factor for this (department, type, year): leave the
			// price level untouched.
			factor = 1.0
		} else {
			adjusted++
		}
		tx.PrixM2Ajuste = tx.PrixM2 * factor
		out[i] = tx
	}

	if missing := len(out) - adjusted; missing > 0 {
		log.Warn().
			Int("rows", missing).
			Msg("Missing adjustment factor, prices left unadjusted")
	}

	state.Transactions = out
	return nil
}

// computeAdjustmentFactors builds the (department, type, year) → factor
// table. The factor is reference-year median / year median; when the
// reference year has no observations for a (department, type) the most
// recent year with observations stands in; when neither is computable the
// factor is 1.0.
func computeAdjustmentFactors(txs []dvf.Transaction, referenceYear int) map[AdjustmentKey]float64 {
	type groupKey struct {
		departement string
		typeLocal   string
	}

	samples := make(map[AdjustmentKey][]float64)
	for _, tx := range txs {
		key := AdjustmentKey{tx.CodeDepartement, tx.TypeLocal, tx.AnneeMutation}
		samples[key] = append(samples[key], tx.PrixM2)
	}

	medians := make(map[AdjustmentKey]float64, len(samples))
	latestYear := make(map[groupKey]int)
	for key, values := range samples {
		median, ok := stats.Median(values)
		if !ok {
			continue
		}
		medians[key] = median

		group := groupKey{key.Departement, key.TypeLocal}
		if year, seen := latestYear[group]; !seen || key.Annee > year {
			latestYear[group] = key.Annee
		}
	}

	factors := make(map[AdjustmentKey]float64, len(medians))
	for key, median := range medians {
		group := groupKey{key.Departement, key.TypeLocal}

		target, ok := medians[AdjustmentKey{key.Departement, key.TypeLocal, referenceYear}]
		if !ok {
			target, ok = medians[AdjustmentKey{key.Departement, key.TypeLocal, latestYear[group]}]
		}

		if !ok || median <= 0 {
			factors[key] = 1.0
			continue
		}
		factors[key] = target / median
	}
	return factors
}
