package pipeline

import (
	"context"
	"fmt"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
	"github.com/avenet-dev/dvf-engine/internal/geo"
	"github.com/avenet-dev/dvf-engine/internal/logger"
)

// spatialStep assigns each transaction to a neighborhood polygon. Points
// are reprojected from WGS84 to the layer's planar CRS and joined in
// bounded-size chunks to cap peak memory; chunks are independent and
// results concatenate in original order. Transactions outside every
// polygon keep nil code/name, which is expected for border, coastal, and
// data-gap cases.
type spatialStep struct {
	layer     *geo.Layer
	chunkSize int
}

func (s *spatialStep) Name() string { return "assign_zones" }

func (s *spatialStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	total := len(state.Transactions)
	chunks := (total + s.chunkSize - 1) / s.chunkSize
	log.Info().
		Int("rows", total).
		Int("chunks", chunks).
		Int("chunk_size", s.chunkSize).
		Int("zones", s.layer.Len()).
		Msg("Starting spatial join")

	out := make([]dvf.Transaction, 0, total)
	matchedTotal := 0

	for i := 0; i < chunks; i++ {
		start := i * s.chunkSize
		end := start + s.chunkSize
		if end > total {
			end = total
		}
		chunk := state.Transactions[start:end]

		joined, matched := joinChunk(chunk, s.layer)

		// Row-count preservation is a hard invariant: a mismatch means
		// duplicate or missing joins and must stop the run.
		if len(joined) != len(chunk) {
			return fmt.Errorf("spatial join row count mismatch: chunk %d has %d rows, joined %d", i+1, len(chunk), len(joined))
		}

		out = append(out, joined...)
		matchedTotal += matched
		log.Info().
			Int("chunk", i+1).
			Int("chunks", chunks).
			Int("matched", matched).
			Msg("Spatial chunk complete")
	}

	log.Info().
		Int("matched", matchedTotal).
		Int("rows", total).
		Msg("Spatial join complete")

	state.Transactions = out
	return nil
}

// joinChunk resolves one chunk of transactions against the zone layer.
// Multiple matches at shared boundaries resolve deterministically to the
// first zone in layer order.
func joinChunk(chunk []dvf.Transaction, layer *geo.Layer) ([]dvf.Transaction, int) {
	out := make([]dvf.Transaction, len(chunk))
	matched := 0

	for i, tx := range chunk {
		x, y := geo.Lambert93(tx.Latitude, tx.Longitude)
		if zone, ok := layer.Locate(x, y); ok {
			code, name := zone.Code, zone.Name
			tx.CodeIris = &code
			tx.NomIris = &name
			matched++
		}
		out[i] = tx
	}
	return out, matched
}
