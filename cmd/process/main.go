package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"github.com/avenet-dev/dvf-engine/internal/aggregate"
	"github.com/avenet-dev/dvf-engine/internal/config"
	"github.com/avenet-dev/dvf-engine/internal/dvf"
	"github.com/avenet-dev/dvf-engine/internal/export"
	"github.com/avenet-dev/dvf-engine/internal/geo"
	"github.com/avenet-dev/dvf-engine/internal/insee"
	"github.com/avenet-dev/dvf-engine/internal/logger"
	"github.com/avenet-dev/dvf-engine/internal/pipeline"
	"github.com/avenet-dev/dvf-engine/internal/sink"
	"github.com/avenet-dev/dvf-engine/internal/stats"
)

func main() {
	// Initialize structured logger
	log := logger.New()

	// Environment first, flags override
	cfg := config.Load()

	input := flag.String("input", cfg.RawCSVPath, "Raw DVF CSV file")
	outputDir := flag.String("output-dir", cfg.OutputDir, "Directory for produced artifacts")
	irisLayer := flag.String("iris-layer", cfg.IrisLayerPath, "IRIS polygon layer (GeoJSON, Lambert-93)")
	departments := flag.String("departments", cfg.DepartmentsPath, "INSEE department table CSV")
	regions := flag.String("regions", cfg.RegionsPath, "INSEE region table CSV")
	referenceYear := flag.Int("reference-year", cfg.ReferenceYear, "Year price levels are normalized to")
	withAggregates := flag.Bool("aggregates", false, "Also write per-level roll-up artifacts")
	withBigQuery := flag.Bool("bigquery", false, "Also load transactions into BigQuery")
	flag.Parse()

	ctx := logger.WithContext(context.Background(), log)
	start := time.Now()

	// Static reference inputs
	lookup, err := insee.LoadRegionLookup(*departments, *regions)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load INSEE region lookup")
	}
	layer, err := geo.LoadLayer(*irisLayer, "code_iris", "nom_iris")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load IRIS layer")
	}
	log.Info().
		Int("departments", len(lookup)).
		Int("zones", layer.Len()).
		Msg("Loaded reference data")

	// Raw input
	raw, readStats, err := dvf.ReadCSV(ctx, *input)
	if err != nil {
		log.Fatal().Err(err).Str("input", *input).Msg("Failed to read raw DVF export")
	}
	log.Info().
		Int("rows", readStats.RowsKept).
		Int("dropped", readStats.RowsDropped).
		Msg("Read raw DVF export")

	// Reconciliation
	engine := &pipeline.Engine{
		Regions:       lookup,
		Layer:         layer,
		ReferenceYear: *referenceYear,
		ChunkSize:     cfg.SpatialChunkSize,
		IQRMinSample:  cfg.IQRMinSample,
	}
	txs, err := engine.Run(ctx, raw)
	if err != nil {
		log.Fatal().Err(err).Msg("Pipeline failed")
	}

	logSummary(log, txs)

	// Artifacts
	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", *outputDir).Msg("Failed to create output directory")
	}
	artifact := filepath.Join(*outputDir, "dvf_processed.parquet")
	if err := export.WriteTransactions(ctx, artifact, txs); err != nil {
		log.Fatal().Err(err).Msg("Failed to write transaction artifact")
	}

	if *withAggregates {
		aggDir := filepath.Join(*outputDir, "aggregates")
		spans := aggregate.DefaultSpans(*referenceYear)
		if err := aggregate.WriteAll(ctx, aggDir, txs, spans); err != nil {
			log.Fatal().Err(err).Msg("Failed to write aggregates")
		}
	}

	if *withBigQuery {
		if cfg.BigQueryProjectID == "" {
			log.Fatal().Msg("Error: --bigquery requires DVF_BQ_PROJECT")
		}
		table := sink.Table{
			ProjectID: cfg.BigQueryProjectID,
			DatasetID: cfg.BigQueryDataset,
			TableID:   cfg.BigQueryTable,
		}
		var opts []option.ClientOption
		if cfg.GoogleCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentials))
		}
		if err := sink.LoadTransactions(ctx, table, txs, opts...); err != nil {
			log.Fatal().Err(err).Msg("Failed to load transactions into BigQuery")
		}
	}

	log.Info().
		Int("transactions", len(txs)).
		Str("artifact", artifact).
		Str("took", logger.FormatDuration(time.Since(start))).
		Msg("Processing complete")
}

// logSummary reports the price distribution of the final artifact, raw
// and time-adjusted.
func logSummary(log zerolog.Logger, txs []dvf.Transaction) {
	prix := make([]float64, 0, len(txs))
	ajuste := make([]float64, 0, len(txs))
	for _, tx := range txs {
		prix = append(prix, tx.PrixM2)
		ajuste = append(ajuste, tx.PrixM2Ajuste)
	}

	for _, m := range []struct {
		name   string
		values []float64
	}{
		{"prix_m2", prix},
		{"prix_m2_ajuste", ajuste},
	} {
		mean, _ := stats.Mean(m.values)
		median, _ := stats.Median(m.values)
		min, _ := stats.Min(m.values)
		max, _ := stats.Max(m.values)
		log.Info().
			Str("metric", m.name).
			Float64("mean", mean).
			Float64("median", median).
			Float64("min", min).
			Float64("max", max).
			Msg("Price summary")
	}
}
