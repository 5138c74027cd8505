package pipeline

import (
	"math"
	"time"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int64) *int64     { return &v }

// rawRow builds an eligible house row with sensible defaults; tests
// override the fields they exercise.
func rawRow(overrides func(*dvf.RawRow)) dvf.RawRow {
	row := dvf.RawRow{
		IDMutation:        "2024-1",
		DateMutation:      time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		NumeroDisposition: 1,
		NatureMutation:    dvf.MutationVente,
		ValeurFonciere:    fptr(250000),

		CodePostal:      "33000",
		CodeCommune:     "33063",
		NomCommune:      "Bordeaux",
		CodeDepartement: "33",

		IDParcelle: "33063000AB0001",

		CodeTypeLocal: "1",
		TypeLocal:     dvf.TypeLocalMaison,

		SurfaceReelleBati:       fptr(120),
		NombrePiecesPrincipales: iptr(5),

		CodeNatureCulture:         "S",
		NatureCulture:             "sols",
		CodeNatureCultureSpeciale: dvf.UnknownCulture,
		NatureCultureSpeciale:     dvf.UnknownCulture,
		SurfaceTerrain:            fptr(450),

		Longitude: fptr(-0.5792),
		Latitude:  fptr(44.8378),
	}
	if overrides != nil {
		overrides(&row)
	}
	return row
}

// cleanTransaction builds a consolidated transaction that passes the hard
// outlier thresholds; tests override the fields they exercise.
func cleanTransaction(overrides func(*dvf.Transaction)) dvf.Transaction {
	tx := dvf.Transaction{
		IDMutation:        "2024-1",
		NumeroDisposition: 1,
		ClePrincipale:     "2024-1_1",

		DateMutation:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		NatureMutation: dvf.MutationVente,

		CodePostal:      "33000",
		CodeCommune:     "33063",
		NomCommune:      "Bordeaux",
		CodeDepartement: "33",

		CodeTypeLocal: "1",
		TypeLocal:     dvf.TypeLocalMaison,

		NombrePiecesPrincipales: 4,
		ValeurFonciere:          200000,
		SurfaceBatieTotale:      100,
		PrixM2:                  2000,

		Longitude: -0.5792,
		Latitude:  44.8378,

		IDParcelleUnique: "33063000AB0001",
	}
	if overrides != nil {
		overrides(&tx)
	}
	return tx
}

func within(got, want, tolerance float64) bool {
	return math.Abs(got-want) <= tolerance
}
