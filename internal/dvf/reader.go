package dvf

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/avenet-dev/dvf-engine/internal/logger"
)

// Column order of the raw DVF CSV export. Identifiers stay text even when
// they look numeric (departments "01", "2A", parcel ids).
const (
	colIDMutation = iota
	colDateMutation
	colNumeroDisposition
	colNatureMutation
	colValeurFonciere
	colAdresseNumero
	colAdresseSuffixe
	colAdresseNomVoie
	colAdresseCodeVoie
	colCodePostal
	colCodeCommune
	colNomCommune
	colCodeDepartement
	colAncienCodeCommune
	colAncienNomCommune
	colIDParcelle
	colAncienIDParcelle
	colNumeroVolume
	colLot1Numero
	colLot1Surface
	colLot2Numero
	colLot2Surface
	colLot3Numero
	colLot3Surface
	colLot4Numero
	colLot4Surface
	colLot5Numero
	colLot5Surface
	colNombreLots
	colCodeTypeLocal
	colTypeLocal
	colSurfaceReelleBati
	colNombrePieces
	colCodeNatureCulture
	colNatureCulture
	colCodeNatureCultureSpeciale
	colNatureCultureSpeciale
	colSurfaceTerrain
	colLongitude
	colLatitude

	columnCount
)

// ReadStats reports what happened during ingestion. Dropped counts are
// surfaced for observability; malformed rows never fail the run.
type ReadStats struct {
	RowsRead    int
	RowsKept    int
	RowsDropped int
}

// ReadCSV loads the raw DVF export under the fixed column typing. Rows that
// fail type coercion (bad date, bad integer, bad float) are dropped and
// counted rather than aborting the run; the raw source is known to contain
// occasional malformed lines.
func ReadCSV(ctx context.Context, path string) ([]RawRow, ReadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("dvf: open %s: %w", path, err)
	}
	defer f.Close()

	rows, stats, err := readCSV(f)
	if err != nil {
		return nil, stats, err
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("rows_read", stats.RowsRead).
		Int("rows_kept", stats.RowsKept).
		Int("rows_dropped", stats.RowsDropped).
		Str("path", path).
		Msg("Loaded raw DVF rows")
	return rows, stats, nil
}

func readCSV(r io.Reader) ([]RawRow, ReadStats, error) {
	reader := csv.NewReader(bufio.NewReaderSize(r, 1<<20))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, ReadStats{}, fmt.Errorf("dvf: reading header: %w", err)
	}
	if len(header) < columnCount {
		return nil, ReadStats{}, fmt.Errorf("dvf: header has %d columns, want %d", len(header), columnCount)
	}

	var stats ReadStats
	rows := make([]RawRow, 0, 4096)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// csv-level damage (stray quotes, truncated line)
			stats.RowsRead++
			stats.RowsDropped++
			continue
		}

		stats.RowsRead++
		row, ok := parseRecord(record)
		if !ok {
			stats.RowsDropped++
			continue
		}
		rows = append(rows, row)
	}

	stats.RowsKept = len(rows)
	return rows, stats, nil
}

// parseRecord coerces one raw record to a RawRow. ok is false when a typed
// column holds a value that cannot be coerced.
func parseRecord(record []string) (RawRow, bool) {
	if len(record) < columnCount {
		return RawRow{}, false
	}

	date, err := time.Parse("2006-01-02", record[colDateMutation])
	if err != nil {
		return RawRow{}, false
	}

	numDisposition, err := strconv.ParseInt(record[colNumeroDisposition], 10, 64)
	if err != nil {
		return RawRow{}, false
	}

	valeur, ok := parseNullFloat(record[colValeurFonciere])
	if !ok {
		return RawRow{}, false
	}
	surface, ok := parseNullFloat(record[colSurfaceReelleBati])
	if !ok {
		return RawRow{}, false
	}
	terrain, ok := parseNullFloat(record[colSurfaceTerrain])
	if !ok {
		return RawRow{}, false
	}
	longitude, ok := parseNullFloat(record[colLongitude])
	if !ok {
		return RawRow{}, false
	}
	latitude, ok := parseNullFloat(record[colLatitude])
	if !ok {
		return RawRow{}, false
	}
	pieces, ok := parseNullInt(record[colNombrePieces])
	if !ok {
		return RawRow{}, false
	}
	lots, ok := parseNullInt(record[colNombreLots])
	if !ok {
		return RawRow{}, false
	}
	var nombreLots int64
	if lots != nil {
		nombreLots = *lots
	}

	return RawRow{
		IDMutation:        record[colIDMutation],
		DateMutation:      date,
		NumeroDisposition: numDisposition,
		NatureMutation:    record[colNatureMutation],
		ValeurFonciere:    valeur,

		AdresseNumero:   record[colAdresseNumero],
		AdresseSuffixe:  record[colAdresseSuffixe],
		AdresseNomVoie:  record[colAdresseNomVoie],
		AdresseCodeVoie: record[colAdresseCodeVoie],
		CodePostal:      record[colCodePostal],
		CodeCommune:     record[colCodeCommune],
		NomCommune:      record[colNomCommune],
		CodeDepartement: record[colCodeDepartement],

		IDParcelle: record[colIDParcelle],

		NombreLots:    nombreLots,
		CodeTypeLocal: record[colCodeTypeLocal],
		TypeLocal:     record[colTypeLocal],

		SurfaceReelleBati:       surface,
		NombrePiecesPrincipales: pieces,

		CodeNatureCulture:         record[colCodeNatureCulture],
		NatureCulture:             record[colNatureCulture],
		CodeNatureCultureSpeciale: record[colCodeNatureCultureSpeciale],
		NatureCultureSpeciale:     record[colNatureCultureSpeciale],
		SurfaceTerrain:            terrain,

		Longitude: longitude,
		Latitude:  latitude,
	}, true
}

func isNull(s string) bool {
	return s == "" || s == "NA" || s == "null"
}

func parseNullFloat(s string) (*float64, bool) {
	if isNull(s) {
		return nil, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, false
	}
	return &f, true
}

func parseNullInt(s string) (*int64, bool) {
	if isNull(s) {
		return nil, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, false
	}
	return &n, true
}
