package pipeline

import (
	"context"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
)

// eligibilityStep drops rows outside the scope of residential sale
// analysis: commercial/industrial properties, non-arm's-length transfers,
// and geometrically unusable rows.
type eligibilityStep struct{}

func (s *eligibilityStep) Name() string { return "eligibility_filter" }

func (s *eligibilityStep) Execute(ctx context.Context, state *State) error {
	out := make([]dvf.RawRow, 0, len(state.Raw))
	for _, row := range state.Raw {
		if isEligible(row) {
			out = append(out, row)
		}
	}
	state.Raw = out
	return nil
}

func isEligible(row dvf.RawRow) bool {
	switch row.NatureMutation {
	case dvf.MutationVente, dvf.MutationVEFA, dvf.MutationAdjudication:
	default:
		return false
	}

	switch row.TypeLocal {
	case dvf.TypeLocalMaison, dvf.TypeLocalAppartement:
	default:
		return false
	}

	if row.ValeurFonciere == nil || *row.ValeurFonciere <= minDeclaredPrice {
		return false
	}
	if row.SurfaceReelleBati == nil || *row.SurfaceReelleBati <= 0 {
		return false
	}
	if row.Latitude == nil || row.Longitude == nil {
		return false
	}
	return true
}
