// Package aggregate rolls the consolidated transactions up into per-zone
// price statistics at several geographic levels and time spans, one
// parquet artifact per (level, span) pair.
package aggregate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
	"github.com/avenet-dev/dvf-engine/internal/logger"
	"github.com/avenet-dev/dvf-engine/internal/stats"
)

// Level is one geographic roll-up granularity.
type Level string

const (
	LevelCountry    Level = "country"
	LevelRegion     Level = "region"
	LevelDepartment Level = "department"
	LevelCommune    Level = "commune"
	LevelIris       Level = "iris"
	LevelParcel     Level = "parcel"
)

// Levels returns every roll-up granularity, coarsest first.
func Levels() []Level {
	return []Level{LevelCountry, LevelRegion, LevelDepartment, LevelCommune, LevelIris, LevelParcel}
}

// Span restricts an aggregation to sales on or after From. A zero From
// covers the full dataset.
type Span struct {
	Name string
	From time.Time
}

func (s Span) covers(t time.Time) bool {
	return s.From.IsZero() || !t.Before(s.From)
}

// DefaultSpans returns the reference year and the two years before it as
// from-date spans, plus the unbounded "all" span.
func DefaultSpans(referenceYear int) []Span {
	spans := make([]Span, 0, 4)
	for year := referenceYear; year > referenceYear-3; year-- {
		spans = append(spans, Span{
			Name: fmt.Sprintf("%d", year),
			From: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return append(spans, Span{Name: "all"})
}

// Row is one aggregated group. Key columns not applying to the row's
// level stay nil; statistics over an empty sub-population stay nil.
type Row struct {
	Country          *string `parquet:"name=country, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	CodeRegion       *string `parquet:"name=code_region, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	NomRegion        *string `parquet:"name=nom_region, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	CodeDepartement  *string `parquet:"name=code_departement, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	CodeCommune      *string `parquet:"name=code_commune, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	NomCommune       *string `parquet:"name=nom_commune, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	CodeIris         *string `parquet:"name=code_iris, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	NomIris          *string `parquet:"name=nom_iris, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	IDParcelleUnique *string `parquet:"name=id_parcelle_unique, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`

	NbTransactions int64 `parquet:"name=nb_transactions, type=INT64"`
	NbMaisons      int64 `parquet:"name=nb_maisons, type=INT64"`
	NbAppartements int64 `parquet:"name=nb_appartements, type=INT64"`

	PrixM2Mean   *float64 `parquet:"name=prix_m2_mean, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrixM2Q25    *float64 `parquet:"name=prix_m2_q25, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrixM2Median *float64 `parquet:"name=prix_m2_median, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrixM2Q75    *float64 `parquet:"name=prix_m2_q75, type=DOUBLE, repetitiontype=OPTIONAL"`

	PrixM2MaisonMean   *float64 `parquet:"name=prix_m2_maison_mean, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrixM2MaisonQ25    *float64 `parquet:"name=prix_m2_maison_q25, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrixM2MaisonMedian *float64 `parquet:"name=prix_m2_maison_median, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrixM2MaisonQ75    *float64 `parquet:"name=prix_m2_maison_q75, type=DOUBLE, repetitiontype=OPTIONAL"`

	PrixM2AppartMean   *float64 `parquet:"name=prix_m2_appart_mean, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrixM2AppartQ25    *float64 `parquet:"name=prix_m2_appart_q25, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrixM2AppartMedian *float64 `parquet:"name=prix_m2_appart_median, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrixM2AppartQ75    *float64 `parquet:"name=prix_m2_appart_q75, type=DOUBLE, repetitiontype=OPTIONAL"`

	PrixM2AjusteMedian       *float64 `parquet:"name=prix_m2_ajuste_median, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrixM2AjusteMaisonMedian *float64 `parquet:"name=prix_m2_ajuste_maison_median, type=DOUBLE, repetitiontype=OPTIONAL"`
	PrixM2AjusteAppartMedian *float64 `parquet:"name=prix_m2_ajuste_appart_median, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// Compute aggregates the transactions at the given level, sorted by group
// key. Transactions without a neighborhood assignment are skipped at the
// IRIS level only.
func Compute(level Level, txs []dvf.Transaction) []Row {
	order := make([]string, 0)
	groups := make(map[string][]dvf.Transaction)
	for _, tx := range txs {
		key, ok := groupKey(level, tx)
		if !ok {
			continue
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], tx)
	}
	sort.Strings(order)

	rows := make([]Row, 0, len(order))
	for _, key := range order {
		group := groups[key]
		row := statsOf(group)
		applyGroupColumns(level, &row, group[0])
		rows = append(rows, row)
	}
	return rows
}

func groupKey(level Level, tx dvf.Transaction) (string, bool) {
	switch level {
	case LevelCountry:
		return "France", true
	case LevelRegion:
		if tx.CodeRegion == nil {
			return "", false
		}
		return *tx.CodeRegion, true
	case LevelDepartment:
		return tx.CodeDepartement, true
	case LevelCommune:
		return tx.CodeCommune, true
	case LevelIris:
		if tx.CodeIris == nil {
			return "", false
		}
		return *tx.CodeIris, true
	case LevelParcel:
		return tx.IDParcelleUnique, true
	}
	return "", false
}

func applyGroupColumns(level Level, row *Row, first dvf.Transaction) {
	switch level {
	case LevelCountry:
		country := "France"
		row.Country = &country
	case LevelRegion:
		row.CodeRegion = first.CodeRegion
		row.NomRegion = first.NomRegion
	case LevelDepartment:
		dept := first.CodeDepartement
		row.CodeDepartement = &dept
		row.CodeRegion = first.CodeRegion
		row.NomRegion = first.NomRegion
	case LevelCommune:
		code, name := first.CodeCommune, first.NomCommune
		row.CodeCommune = &code
		row.NomCommune = &name
	case LevelIris:
		row.CodeIris = first.CodeIris
		row.NomIris = first.NomIris
	case LevelParcel:
		// Department and commune ride along for cadastre joins.
		parcelle, dept, commune := first.IDParcelleUnique, first.CodeDepartement, first.CodeCommune
		row.IDParcelleUnique = &parcelle
		row.CodeDepartement = &dept
		row.CodeCommune = &commune
	}
}

func statsOf(group []dvf.Transaction) Row {
	var row Row
	row.NbTransactions = int64(len(group))

	prix := make([]float64, 0, len(group))
	prixMaison := make([]float64, 0, len(group))
	prixAppart := make([]float64, 0, len(group))
	ajuste := make([]float64, 0, len(group))
	ajusteMaison := make([]float64, 0, len(group))
	ajusteAppart := make([]float64, 0, len(group))

	for _, tx := range group {
		prix = append(prix, tx.PrixM2)
		ajuste = append(ajuste, tx.PrixM2Ajuste)
		switch tx.TypeLocal {
		case dvf.TypeLocalMaison:
			row.NbMaisons++
			prixMaison = append(prixMaison, tx.PrixM2)
			ajusteMaison = append(ajusteMaison, tx.PrixM2Ajuste)
		case dvf.TypeLocalAppartement:
			row.NbAppartements++
			prixAppart = append(prixAppart, tx.PrixM2)
			ajusteAppart = append(ajusteAppart, tx.PrixM2Ajuste)
		}
	}

	row.PrixM2Mean = meanPtr(prix)
	row.PrixM2Q25 = quantilePtr(prix, 0.25)
	row.PrixM2Median = medianPtr(prix)
	row.PrixM2Q75 = quantilePtr(prix, 0.75)

	row.PrixM2MaisonMean = meanPtr(prixMaison)
	row.PrixM2MaisonQ25 = quantilePtr(prixMaison, 0.25)
	row.PrixM2MaisonMedian = medianPtr(prixMaison)
	row.PrixM2MaisonQ75 = quantilePtr(prixMaison, 0.75)

	row.PrixM2AppartMean = meanPtr(prixAppart)
	row.PrixM2AppartQ25 = quantilePtr(prixAppart, 0.25)
	row.PrixM2AppartMedian = medianPtr(prixAppart)
	row.PrixM2AppartQ75 = quantilePtr(prixAppart, 0.75)

	row.PrixM2AjusteMedian = medianPtr(ajuste)
	row.PrixM2AjusteMaisonMedian = medianPtr(ajusteMaison)
	row.PrixM2AjusteAppartMedian = medianPtr(ajusteAppart)

	return row
}

func meanPtr(values []float64) *float64 {
	if v, ok := stats.Mean(values); ok {
		return &v
	}
	return nil
}

func medianPtr(values []float64) *float64 {
	if v, ok := stats.Median(values); ok {
		return &v
	}
	return nil
}

func quantilePtr(values []float64, q float64) *float64 {
	if v, ok := stats.Quantile(values, q); ok {
		return &v
	}
	return nil
}

// WriteAll computes and writes every (level, span) artifact under
// outputDir/<span>/agg_<level>.parquet.
func WriteAll(ctx context.Context, outputDir string, txs []dvf.Transaction, spans []Span) error {
	log := logger.FromContext(ctx)

	for _, span := range spans {
		inSpan := filterSpan(txs, span)
		log.Info().
			Str("span", span.Name).
			Int("transactions", len(inSpan)).
			Msg("Aggregating time span")

		dir := filepath.Join(outputDir, span.Name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("aggregate: creating %s: %w", dir, err)
		}

		for _, level := range Levels() {
			rows := Compute(level, inSpan)
			path := filepath.Join(dir, fmt.Sprintf("agg_%s.parquet", level))
			if err := writeRows(path, rows); err != nil {
				return err
			}
			log.Info().
				Str("span", span.Name).
				Str("level", string(level)).
				Int("rows", len(rows)).
				Msg("Wrote aggregate artifact")
		}
	}
	return nil
}

func filterSpan(txs []dvf.Transaction, span Span) []dvf.Transaction {
	if span.From.IsZero() {
		return txs
	}
	out := make([]dvf.Transaction, 0, len(txs))
	for _, tx := range txs {
		if span.covers(tx.DateMutation) {
			out = append(out, tx)
		}
	}
	return out
}

func writeRows(path string, rows []Row) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("aggregate: creating %s: %w", path, err)
	}

	pw, err := writer.NewParquetWriter(fw, new(Row), 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("aggregate: initializing parquet writer: %w", err)
	}
	pw.RowGroupSize = 64 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i := range rows {
		if err := pw.Write(rows[i]); err != nil {
			fw.Close()
			return fmt.Errorf("aggregate: writing row to %s: %w", path, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("aggregate: finalizing %s: %w", path, err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("aggregate: closing %s: %w", path, err)
	}
	return nil
}
