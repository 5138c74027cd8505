package pipeline

import (
	"context"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
	"github.com/avenet-dev/dvf-engine/internal/logger"
	"github.com/avenet-dev/dvf-engine/internal/stats"
)

// metricBounds is a [min, max] interval with strictly exclusive bounds.
type metricBounds struct {
	min float64
	max float64
}

func (b metricBounds) contains(v float64) bool {
	return v > b.min && v < b.max
}

// CommuneBounds holds one commune's Tukey fences for the four filtered
// metrics, plus the sample count they were computed from.
type CommuneBounds struct {
	Count   int
	Valeur  metricBounds
	PrixM2  metricBounds
	Surface metricBounds
	Pieces  metricBounds
}

// outlierStep removes statistical outliers in two stages: hard thresholds
// first, then per-commune Tukey fences computed on the already
// threshold-filtered population. Communes contributing fewer than
// minSample rows bypass the adaptive stage entirely.
type outlierStep struct {
	minSample int
}

func (s *outlierStep) Name() string { return "remove_outliers" }

func (s *outlierStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	afterThresholds := removeExtremeOutliers(state.Transactions)
	log.Info().
		Int("removed", len(state.Transactions)-len(afterThresholds)).
		Msg("Removed extreme outliers")

	afterIQR := removeIQROutliers(afterThresholds, s.minSample)
	log.Info().
		Int("removed", len(afterThresholds)-len(afterIQR)).
		Msg("Removed IQR outliers")

	state.Transactions = afterIQR
	return nil
}

func removeExtremeOutliers(txs []dvf.Transaction) []dvf.Transaction {
	out := make([]dvf.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.SurfaceBatieTotale > minSurface && tx.SurfaceBatieTotale < maxSurface &&
			tx.ValeurFonciere > minValeurFonciere && tx.ValeurFonciere < maxValeurFonciere &&
			tx.PrixM2 > minPrixM2 && tx.PrixM2 < maxPrixM2 &&
			tx.NombrePiecesPrincipales > minPieces && tx.NombrePiecesPrincipales < maxPieces {
			out = append(out, tx)
		}
	}
	return out
}

func removeIQROutliers(txs []dvf.Transaction, minSample int) []dvf.Transaction {
	bounds := computeCommuneBounds(txs)

	out := make([]dvf.Transaction, 0, len(txs))
	for _, tx := range txs {
		b := bounds[tx.CodeCommune]
		if b.Count < minSample {
			// Small-sample quantiles are unreliable; keep everything.
			out = append(out, tx)
			continue
		}
		if b.Valeur.contains(tx.ValeurFonciere) &&
			b.PrixM2.contains(tx.PrixM2) &&
			b.Surface.contains(tx.SurfaceBatieTotale) &&
			b.Pieces.contains(float64(tx.NombrePiecesPrincipales)) {
			out = append(out, tx)
		}
	}
	return out
}

// computeCommuneBounds derives every commune's Tukey fences from the
// post-threshold population.
func computeCommuneBounds(txs []dvf.Transaction) map[string]CommuneBounds {
	type samples struct {
		valeur  []float64
		prixM2  []float64
		surface []float64
		pieces  []float64
	}

	byCommune := make(map[string]*samples)
	for _, tx := range txs {
		s, ok := byCommune[tx.CodeCommune]
		if !ok {
			s = &samples{}
			byCommune[tx.CodeCommune] = s
		}
		s.valeur = append(s.valeur, tx.ValeurFonciere)
		s.prixM2 = append(s.prixM2, tx.PrixM2)
		s.surface = append(s.surface, tx.SurfaceBatieTotale)
		s.pieces = append(s.pieces, float64(tx.NombrePiecesPrincipales))
	}

	bounds := make(map[string]CommuneBounds, len(byCommune))
	for commune, s := range byCommune {
		bounds[commune] = CommuneBounds{
			Count:   len(s.valeur),
			Valeur:  tukeyFence(s.valeur),
			PrixM2:  tukeyFence(s.prixM2),
			Surface: tukeyFence(s.surface),
			Pieces:  tukeyFence(s.pieces),
		}
	}
	return bounds
}

func tukeyFence(values []float64) metricBounds {
	q1, _ := stats.Quantile(values, 0.25)
	q3, _ := stats.Quantile(values, 0.75)
	iqr := q3 - q1
	return metricBounds{
		min: q1 - tukeyK*iqr,
		max: q3 + tukeyK*iqr,
	}
}
