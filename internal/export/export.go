// Package export writes the consolidated transaction artifact as parquet.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
	"github.com/avenet-dev/dvf-engine/internal/logger"
)

const dateLayout = "2006-01-02"

// TransactionRecord is the flat columnar encoding of a consolidated
// transaction. Per-lot values are parallel lists in lot order; a lot
// without a land surface carries a null element.
type TransactionRecord struct {
	ClePrincipale     string `parquet:"name=cle_principale, type=BYTE_ARRAY, convertedtype=UTF8"`
	IDMutation        string `parquet:"name=id_mutation, type=BYTE_ARRAY, convertedtype=UTF8"`
	NumeroDisposition int64  `parquet:"name=numero_disposition, type=INT64"`

	DateMutation   string `parquet:"name=date_mutation, type=BYTE_ARRAY, convertedtype=UTF8"`
	AnneeMutation  int32  `parquet:"name=annee_mutation, type=INT32"`
	NatureMutation string `parquet:"name=nature_mutation, type=BYTE_ARRAY, convertedtype=UTF8"`

	AdresseNumero   string `parquet:"name=adresse_numero, type=BYTE_ARRAY, convertedtype=UTF8"`
	AdresseSuffixe  string `parquet:"name=adresse_suffixe, type=BYTE_ARRAY, convertedtype=UTF8"`
	AdresseNomVoie  string `parquet:"name=adresse_nom_voie, type=BYTE_ARRAY, convertedtype=UTF8"`
	AdresseCodeVoie string `parquet:"name=adresse_code_voie, type=BYTE_ARRAY, convertedtype=UTF8"`
	CodePostal      string `parquet:"name=code_postal, type=BYTE_ARRAY, convertedtype=UTF8"`
	CodeCommune     string `parquet:"name=code_commune, type=BYTE_ARRAY, convertedtype=UTF8"`
	NomCommune      string `parquet:"name=nom_commune, type=BYTE_ARRAY, convertedtype=UTF8"`
	CodeDepartement string `parquet:"name=code_departement, type=BYTE_ARRAY, convertedtype=UTF8"`

	CodeRegion *string `parquet:"name=code_region, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	NomRegion  *string `parquet:"name=nom_region, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`

	CodeTypeLocal string `parquet:"name=code_type_local, type=BYTE_ARRAY, convertedtype=UTF8"`
	TypeLocal     string `parquet:"name=type_local, type=BYTE_ARRAY, convertedtype=UTF8"`

	NombrePiecesPrincipales int64   `parquet:"name=nombre_pieces_principales, type=INT64"`
	ValeurFonciere          float64 `parquet:"name=valeur_fonciere, type=DOUBLE"`
	SurfaceBatieTotale      float64 `parquet:"name=surface_batie_totale, type=DOUBLE"`
	PrixM2                  float64 `parquet:"name=prix_m2, type=DOUBLE"`
	PrixM2Ajuste            float64 `parquet:"name=prix_m2_ajuste, type=DOUBLE"`

	HasDependency bool `parquet:"name=has_dependency, type=BOOLEAN"`

	Longitude float64 `parquet:"name=longitude, type=DOUBLE"`
	Latitude  float64 `parquet:"name=latitude, type=DOUBLE"`

	IDParcelleUnique string `parquet:"name=id_parcelle_unique, type=BYTE_ARRAY, convertedtype=UTF8"`

	CodeIris *string `parquet:"name=code_iris, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	NomIris  *string `parquet:"name=nom_iris, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`

	IDParcelles                []string   `parquet:"name=ids_parcelles, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
	TypesLocaux                []string   `parquet:"name=types_locaux, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
	Surfaces                   []float64  `parquet:"name=surfaces_baties, type=LIST, valuetype=DOUBLE"`
	SurfacesTerrain            []*float64 `parquet:"name=surfaces_terrain, type=LIST, valuetype=DOUBLE, valuerepetitiontype=OPTIONAL"`
	CodesNatureCulture         []string   `parquet:"name=codes_nature_culture, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
	NaturesCulture             []string   `parquet:"name=natures_culture, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
	CodesNatureCultureSpeciale []string   `parquet:"name=codes_nature_culture_speciale, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
	NaturesCultureSpeciale     []string   `parquet:"name=natures_culture_speciale, type=LIST, valuetype=BYTE_ARRAY, valueconvertedtype=UTF8"`
	PrixDeVente                []float64  `parquet:"name=prix_de_vente, type=LIST, valuetype=DOUBLE"`
}

func recordOf(tx dvf.Transaction) TransactionRecord {
	record := TransactionRecord{
		ClePrincipale:     tx.ClePrincipale,
		IDMutation:        tx.IDMutation,
		NumeroDisposition: tx.NumeroDisposition,

		DateMutation:   tx.DateMutation.Format(dateLayout),
		AnneeMutation:  int32(tx.AnneeMutation),
		NatureMutation: tx.NatureMutation,

		AdresseNumero:   tx.AdresseNumero,
		AdresseSuffixe:  tx.AdresseSuffixe,
		AdresseNomVoie:  tx.AdresseNomVoie,
		AdresseCodeVoie: tx.AdresseCodeVoie,
		CodePostal:      tx.CodePostal,
		CodeCommune:     tx.CodeCommune,
		NomCommune:      tx.NomCommune,
		CodeDepartement: tx.CodeDepartement,

		CodeRegion: tx.CodeRegion,
		NomRegion:  tx.NomRegion,

		CodeTypeLocal: tx.CodeTypeLocal,
		TypeLocal:     tx.TypeLocal,

		NombrePiecesPrincipales: tx.NombrePiecesPrincipales,
		ValeurFonciere:          tx.ValeurFonciere,
		SurfaceBatieTotale:      tx.SurfaceBatieTotale,
		PrixM2:                  tx.PrixM2,
		PrixM2Ajuste:            tx.PrixM2Ajuste,

		HasDependency: tx.HasDependency,

		Longitude: tx.Longitude,
		Latitude:  tx.Latitude,

		IDParcelleUnique: tx.IDParcelleUnique,

		CodeIris: tx.CodeIris,
		NomIris:  tx.NomIris,

		IDParcelles:                make([]string, 0, len(tx.Lots)),
		TypesLocaux:                make([]string, 0, len(tx.Lots)),
		Surfaces:                   make([]float64, 0, len(tx.Lots)),
		SurfacesTerrain:            make([]*float64, 0, len(tx.Lots)),
		CodesNatureCulture:         make([]string, 0, len(tx.Lots)),
		NaturesCulture:             make([]string, 0, len(tx.Lots)),
		CodesNatureCultureSpeciale: make([]string, 0, len(tx.Lots)),
		NaturesCultureSpeciale:     make([]string, 0, len(tx.Lots)),
		PrixDeVente:                make([]float64, 0, len(tx.Lots)),
	}

	for _, lot := range tx.Lots {
		record.IDParcelles = append(record.IDParcelles, lot.IDParcelle)
		record.TypesLocaux = append(record.TypesLocaux, lot.TypeLocal)
		record.Surfaces = append(record.Surfaces, lot.SurfaceReelleBati)
		record.SurfacesTerrain = append(record.SurfacesTerrain, lot.SurfaceTerrain)
		record.CodesNatureCulture = append(record.CodesNatureCulture, lot.CodeNatureCulture)
		record.NaturesCulture = append(record.NaturesCulture, lot.NatureCulture)
		record.CodesNatureCultureSpeciale = append(record.CodesNatureCultureSpeciale, lot.CodeNatureCultureSpeciale)
		record.NaturesCultureSpeciale = append(record.NaturesCultureSpeciale, lot.NatureCultureSpeciale)
		record.PrixDeVente = append(record.PrixDeVente, lot.PrixDeVente)
	}
	return record
}

// WriteTransactions writes the consolidated transactions to a snappy
// compressed parquet file at path.
func WriteTransactions(ctx context.Context, path string, txs []dvf.Transaction) error {
	log := logger.FromContext(ctx)
	start := time.Now()

	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("export: creating %s: %w", path, err)
	}

	pw, err := writer.NewParquetWriter(fw, new(TransactionRecord), 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("export: initializing parquet writer: %w", err)
	}
	pw.RowGroupSize = 64 * 1024 * 1024
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, tx := range txs {
		if err := pw.Write(recordOf(tx)); err != nil {
			fw.Close()
			return fmt.Errorf("export: writing transaction %s: %w", tx.ClePrincipale, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("export: finalizing %s: %w", path, err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("export: closing %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("rows", len(txs)).
		Str("took", logger.FormatDuration(time.Since(start))).
		Msg("Wrote transaction artifact")
	return nil
}
