package pipeline

import (
	"context"
	"sort"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
	"github.com/avenet-dev/dvf-engine/internal/insee"
	"github.com/avenet-dev/dvf-engine/internal/logger"
)

// regionStep left-joins the static department→region lookup onto every
// transaction. Unmapped departments keep nil region fields; that is a
// data-quality warning, not an error.
type regionStep struct {
	lookup insee.RegionLookup
}

func (s *regionStep) Name() string { return "add_regions" }

func (s *regionStep) Execute(ctx context.Context, state *State) error {
	out := make([]dvf.Transaction, len(state.Transactions))
	missing := 0
	missingDepts := make(map[string]struct{})

	for i, tx := range state.Transactions {
		if region, ok := s.lookup[tx.CodeDepartement]; ok {
			code, name := region.Code, region.Name
			tx.CodeRegion = &code
			tx.NomRegion = &name
		} else {
			missing++
			missingDepts[tx.CodeDepartement] = struct{}{}
		}
		out[i] = tx
	}

	if missing > 0 {
		depts := make([]string, 0, len(missingDepts))
		for d := range missingDepts {
			depts = append(depts, d)
		}
		sort.Strings(depts)
		log := logger.FromContext(ctx)
		log.Warn().
			Int("rows", missing).
			Strs("departments", depts).
			Msg("Missing region mapping")
	}

	state.Transactions = out
	return nil
}
