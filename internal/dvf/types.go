package dvf

import "time"

// Nature de mutation values that qualify as arm's-length residential sales.
const (
	MutationVente        = "Vente"
	MutationVEFA         = "Vente en l'état futur d'achèvement"
	MutationAdjudication = "Adjudication"
)

// Type local values as they appear in the raw DVF export.
const (
	TypeLocalMaison      = "Maison"
	TypeLocalAppartement = "Appartement"
	TypeLocalDependance  = "Dépendance"
)

// UnknownCulture is the sentinel substituted for absent nature_culture
// values so that null-vs-null group comparisons behave deterministically.
const UnknownCulture = "unknown"

// RawRow is one record of the raw DVF export: one land parcel touched by a
// sale. The source repeats rows per land-use code recorded against a parcel,
// so several RawRows can share the same (mutation, disposition, parcelle)
// key. Numeric columns that the export leaves empty are nil.
type RawRow struct {
	IDMutation        string
	DateMutation      time.Time
	NumeroDisposition int64
	NatureMutation    string
	ValeurFonciere    *float64

	AdresseNumero   string
	AdresseSuffixe  string
	AdresseNomVoie  string
	AdresseCodeVoie string
	CodePostal      string
	CodeCommune     string
	NomCommune      string
	CodeDepartement string

	IDParcelle string

	NombreLots    int64
	CodeTypeLocal string
	TypeLocal     string

	SurfaceReelleBati       *float64
	NombrePiecesPrincipales *int64

	CodeNatureCulture         string
	NatureCulture             string
	CodeNatureCultureSpeciale string
	NatureCultureSpeciale     string
	SurfaceTerrain            *float64

	Longitude *float64
	Latitude  *float64

	// HasDependency is set by the dependency flagger: true when the same
	// (mutation, disposition, parcelle, culture, nature) group also sold a
	// secondary structure (garage, cellar, ...).
	HasDependency bool
}

// Lot is one constituent property of a consolidated disposition, in the
// order the rows were ingested.
type Lot struct {
	IDParcelle                string
	TypeLocal                 string
	SurfaceReelleBati         float64
	CodeNatureCulture         string
	NatureCulture             string
	CodeNatureCultureSpeciale string
	NatureCultureSpeciale     string
	SurfaceTerrain            *float64
	// PrixDeVente is the share of the disposition's sale price allocated to
	// this lot, proportional to its built surface.
	PrixDeVente float64
}

// Transaction is the terminal artifact of the engine: one row per
// (id_mutation, numero_disposition), price-normalized and spatially
// assigned. Scalar descriptive fields take the first constituent's value;
// per-lot fields live in Lots.
type Transaction struct {
	IDMutation        string
	NumeroDisposition int64
	ClePrincipale     string

	DateMutation   time.Time
	AnneeMutation  int
	NatureMutation string

	AdresseNumero   string
	AdresseSuffixe  string
	AdresseNomVoie  string
	AdresseCodeVoie string
	CodePostal      string
	CodeCommune     string
	NomCommune      string
	CodeDepartement string

	// Region fields are nil when the department is absent from the INSEE
	// lookup (data-quality warning, not an error).
	CodeRegion *string
	NomRegion  *string

	// TypeLocal is the first constituent's type even when a disposition
	// mixes types; see Lots for the per-lot values.
	CodeTypeLocal string
	TypeLocal     string

	NombrePiecesPrincipales int64
	ValeurFonciere          float64
	SurfaceBatieTotale      float64
	PrixM2                  float64
	PrixM2Ajuste            float64

	HasDependency bool

	Longitude float64
	Latitude  float64

	// IDParcelleUnique is the first constituent parcel, used downstream to
	// join cadastral geometry.
	IDParcelleUnique string

	// CodeIris / NomIris are nil when the point falls outside every
	// neighborhood polygon.
	CodeIris *string
	NomIris  *string

	Lots []Lot
}
