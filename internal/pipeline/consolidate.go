package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
)

// dispositionKey identifies the unit of economic analysis: one sub-sale
// within a mutation.
type dispositionKey struct {
	mutation    string
	disposition int64
}

// consolidateStep folds the surviving property rows into one record per
// disposition. Step (a) sums built surfaces and allocates the sale price
// proportionally across co-sold properties; step (b) folds the group into
// a single row: scalar fields take the first value, per-property fields
// become ordered lot collections, room counts are summed. It then derives
// prix_m2, the canonical key, and the primary parcel, and enforces the
// key-uniqueness invariant.
type consolidateStep struct{}

func (s *consolidateStep) Name() string { return "consolidate" }

func (s *consolidateStep) Execute(ctx context.Context, state *State) error {
	transactions, err := consolidate(state.Raw)
	if err != nil {
		return err
	}
	state.Raw = nil
	state.Transactions = transactions
	return nil
}

func consolidate(rows []dvf.RawRow) ([]dvf.Transaction, error) {
	// Group in first-seen order so lot collections and "first value"
	// scalars reproduce ingestion order.
	order := make([]dispositionKey, 0)
	groups := make(map[dispositionKey][]dvf.RawRow)
	for _, row := range rows {
		key := dispositionKey{row.IDMutation, row.NumeroDisposition}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	transactions := make([]dvf.Transaction, 0, len(order))
	seenKeys := make(map[string]struct{}, len(order))

	for _, key := range order {
		tx := foldDisposition(groups[key])

		// Canonical key must be unique across the whole dataset; a
		// violation indicates a logic or input-schema regression and the
		// run must stop rather than persist a corrupted artifact.
		if _, dup := seenKeys[tx.ClePrincipale]; dup {
			return nil, fmt.Errorf("duplicate canonical key %q after consolidation", tx.ClePrincipale)
		}
		seenKeys[tx.ClePrincipale] = struct{}{}

		transactions = append(transactions, tx)
	}
	return transactions, nil
}

func foldDisposition(group []dvf.RawRow) dvf.Transaction {
	var surfaceTotal float64
	var valeurSum float64
	var pieces int64
	for _, row := range group {
		surfaceTotal += *row.SurfaceReelleBati
		valeurSum += *row.ValeurFonciere
		if row.NombrePiecesPrincipales != nil {
			pieces += *row.NombrePiecesPrincipales
		}
	}
	// Mean across the group is defensive against residual duplication;
	// the declared price should be constant per disposition.
	valeurMoyenne := valeurSum / float64(len(group))

	lots := make([]dvf.Lot, 0, len(group))
	for _, row := range group {
		var prixDeVente float64
		if surfaceTotal > 0 {
			prixDeVente = valeurMoyenne * (*row.SurfaceReelleBati / surfaceTotal)
		}
		lots = append(lots, dvf.Lot{
			IDParcelle:                row.IDParcelle,
			TypeLocal:                 row.TypeLocal,
			SurfaceReelleBati:         *row.SurfaceReelleBati,
			CodeNatureCulture:         row.CodeNatureCulture,
			NatureCulture:             row.NatureCulture,
			CodeNatureCultureSpeciale: row.CodeNatureCultureSpeciale,
			NatureCultureSpeciale:     row.NatureCultureSpeciale,
			SurfaceTerrain:            row.SurfaceTerrain,
			PrixDeVente:               prixDeVente,
		})
	}

	first := group[0]
	valeurFonciere := *first.ValeurFonciere

	return dvf.Transaction{
		IDMutation:        first.IDMutation,
		NumeroDisposition: first.NumeroDisposition,
		ClePrincipale:     first.IDMutation + "_" + strconv.FormatInt(first.NumeroDisposition, 10),

		DateMutation:   first.DateMutation,
		NatureMutation: first.NatureMutation,

		AdresseNumero:   first.AdresseNumero,
		AdresseSuffixe:  first.AdresseSuffixe,
		AdresseNomVoie:  first.AdresseNomVoie,
		AdresseCodeVoie: first.AdresseCodeVoie,
		CodePostal:      first.CodePostal,
		CodeCommune:     first.CodeCommune,
		NomCommune:      first.NomCommune,
		CodeDepartement: first.CodeDepartement,

		// First constituent's type, even for mixed-type dispositions; the
		// per-lot types stay visible in Lots.
		CodeTypeLocal: first.CodeTypeLocal,
		TypeLocal:     first.TypeLocal,

		NombrePiecesPrincipales: pieces,
		ValeurFonciere:          valeurFonciere,
		SurfaceBatieTotale:      surfaceTotal,
		PrixM2:                  valeurFonciere / surfaceTotal,

		HasDependency: first.HasDependency,

		Longitude: *first.Longitude,
		Latitude:  *first.Latitude,

		IDParcelleUnique: lots[0].IDParcelle,

		Lots: lots,
	}
}
