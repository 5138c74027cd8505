// Package sink loads consolidated transactions into a BigQuery table for
// downstream analytical queries.
package sink

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
	"github.com/avenet-dev/dvf-engine/internal/logger"
)

// insertBatchSize caps one streaming insert request; the API rejects
// oversized payloads.
const insertBatchSize = 500

// Table identifies the destination table.
type Table struct {
	ProjectID string
	DatasetID string
	TableID   string
}

// TransactionRow mirrors the parquet artifact's scalar columns plus the
// per-lot lists as REPEATED fields.
type TransactionRow struct {
	ClePrincipale     string `bigquery:"cle_principale"` // REQUIRED
	IDMutation        string `bigquery:"id_mutation"`
	NumeroDisposition int64  `bigquery:"numero_disposition"`

	DateMutation   civil.Date `bigquery:"date_mutation"`
	AnneeMutation  int64      `bigquery:"annee_mutation"`
	NatureMutation string     `bigquery:"nature_mutation"`

	CodePostal      string `bigquery:"code_postal"`
	CodeCommune     string `bigquery:"code_commune"`
	NomCommune      string `bigquery:"nom_commune"`
	CodeDepartement string `bigquery:"code_departement"`

	CodeRegion bigquery.NullString `bigquery:"code_region"` // NULLABLE
	NomRegion  bigquery.NullString `bigquery:"nom_region"`  // NULLABLE

	CodeTypeLocal string `bigquery:"code_type_local"`
	TypeLocal     string `bigquery:"type_local"`

	NombrePiecesPrincipales int64   `bigquery:"nombre_pieces_principales"`
	ValeurFonciere          float64 `bigquery:"valeur_fonciere"`
	SurfaceBatieTotale      float64 `bigquery:"surface_batie_totale"`
	PrixM2                  float64 `bigquery:"prix_m2"`
	PrixM2Ajuste            float64 `bigquery:"prix_m2_ajuste"`

	HasDependency bool `bigquery:"has_dependency"`

	Longitude float64 `bigquery:"longitude"`
	Latitude  float64 `bigquery:"latitude"`

	IDParcelleUnique string `bigquery:"id_parcelle_unique"`

	CodeIris bigquery.NullString `bigquery:"code_iris"` // NULLABLE
	NomIris  bigquery.NullString `bigquery:"nom_iris"`  // NULLABLE

	IDParcelles []string  `bigquery:"ids_parcelles"` // REPEATED
	TypesLocaux []string  `bigquery:"types_locaux"`  // REPEATED
	PrixDeVente []float64 `bigquery:"prix_de_vente"` // REPEATED

	LoadedTS time.Time `bigquery:"loaded_ts"`
}

func rowOf(tx dvf.Transaction, loadedAt time.Time) *TransactionRow {
	row := &TransactionRow{
		ClePrincipale:     tx.ClePrincipale,
		IDMutation:        tx.IDMutation,
		NumeroDisposition: tx.NumeroDisposition,

		DateMutation:   civil.DateOf(tx.DateMutation),
		AnneeMutation:  int64(tx.AnneeMutation),
		NatureMutation: tx.NatureMutation,

		CodePostal:      tx.CodePostal,
		CodeCommune:     tx.CodeCommune,
		NomCommune:      tx.NomCommune,
		CodeDepartement: tx.CodeDepartement,

		CodeRegion: nullString(tx.CodeRegion),
		NomRegion:  nullString(tx.NomRegion),

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

		CodeIris: nullString(tx.CodeIris),
		NomIris:  nullString(tx.NomIris),

		IDParcelles: make([]string, 0, len(tx.Lots)),
		TypesLocaux: make([]string, 0, len(tx.Lots)),
		PrixDeVente: make([]float64, 0, len(tx.Lots)),

		LoadedTS: loadedAt,
	}
	for _, lot := range tx.Lots {
		row.IDParcelles = append(row.IDParcelles, lot.IDParcelle)
		row.TypesLocaux = append(row.TypesLocaux, lot.TypeLocal)
		row.PrixDeVente = append(row.PrixDeVente, lot.PrixDeVente)
	}
	return row
}

func nullString(s *string) bigquery.NullString {
	if s == nil {
		return bigquery.NullString{}
	}
	return bigquery.NullString{StringVal: *s, Valid: true}
}

// LoadTransactions streams the transactions into the destination table.
// Client options allow an explicit credentials file; without one the
// default application credentials apply.
func LoadTransactions(ctx context.Context, table Table, txs []dvf.Transaction, opts ...option.ClientOption) error {
	client, err := bigquery.NewClient(ctx, table.ProjectID, opts...)
	if err != nil {
		return fmt.Errorf("sink: bigquery client: %w", err)
	}
	defer client.Close()

	return LoadTransactionsWithClient(ctx, client, table, txs)
}

// LoadTransactionsWithClient streams the transactions using the provided
// client, in bounded batches.
func LoadTransactionsWithClient(ctx context.Context, client *bigquery.Client, table Table, txs []dvf.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	log := logger.FromContext(ctx)
	loadedAt := time.Now().UTC()
	inserter := client.DatasetInProject(table.ProjectID, table.DatasetID).Table(table.TableID).Inserter()

	for start := 0; start < len(txs); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(txs) {
			end = len(txs)
		}

		rows := make([]*TransactionRow, 0, end-start)
		for _, tx := range txs[start:end] {
			rows = append(rows, rowOf(tx, loadedAt))
		}
		if err := inserter.Put(ctx, rows); err != nil {
			return fmt.Errorf("sink: inserting rows %d-%d: %w", start, end, err)
		}

		log.Info().
			Int("loaded", end).
			Int("total", len(txs)).
			Msg("Loaded transaction batch")
	}
	return nil
}

// CountRows returns the destination table's current row count.
func CountRows(ctx context.Context, client *bigquery.Client, table Table) (int64, error) {
	q := client.Query(fmt.Sprintf(
		"SELECT COUNT(*) AS n FROM `%s.%s.%s`",
		table.ProjectID, table.DatasetID, table.TableID,
	))

	it, err := q.Read(ctx)
	if err != nil {
		return 0, fmt.Errorf("sink: counting rows: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	for {
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("sink: reading count: %w", err)
		}
	}
	return row.N, nil
}
