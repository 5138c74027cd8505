package export

import (
	"testing"
	"time"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
)

func strp(s string) *string   { return &s }
func fltp(v float64) *float64 { return &v }

func TestRecordOf(t *testing.T) {
	tx := dvf.Transaction{
		IDMutation:        "2024-1",
		NumeroDisposition: 1,
		ClePrincipale:     "2024-1_1",

		DateMutation:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		AnneeMutation:  2024,
		NatureMutation: dvf.MutationVente,

		CodeCommune:     "33063",
		NomCommune:      "Bordeaux",
		CodeDepartement: "33",
		CodeRegion:      strp("75"),
		NomRegion:       strp("Nouvelle-Aquitaine"),

		TypeLocal: dvf.TypeLocalMaison,

		NombrePiecesPrincipales: 5,
		ValeurFonciere:          317000,
		SurfaceBatieTotale:      175,
		PrixM2:                  1811.43,
		PrixM2Ajuste:            1902.01,

		Longitude: -0.5792,
		Latitude:  44.8378,

		IDParcelleUnique: "33063000AB0001",
		CodeIris:         strp("330630101"),

		Lots: []dvf.Lot{
			{
				IDParcelle:                "33063000AB0001",
				TypeLocal:                 dvf.TypeLocalMaison,
				SurfaceReelleBati:         120,
				CodeNatureCulture:         "S",
				NatureCulture:             "sols",
				CodeNatureCultureSpeciale: "JARDI",
				NatureCultureSpeciale:     "jardin",
				SurfaceTerrain:            fltp(450),
				PrixDeVente:               217371.43,
			},
			{
				IDParcelle:        "33063000AB0002",
				TypeLocal:         dvf.TypeLocalAppartement,
				SurfaceReelleBati: 55,
				NatureCulture:     dvf.UnknownCulture,
				PrixDeVente:       99628.57,
			},
		},
	}

	record := recordOf(tx)

	if record.ClePrincipale != "2024-1_1" {
		t.Errorf("ClePrincipale = %q", record.ClePrincipale)
	}
	if record.DateMutation != "2024-03-15" {
		t.Errorf("DateMutation = %q, want 2024-03-15", record.DateMutation)
	}
	if record.AnneeMutation != 2024 {
		t.Errorf("AnneeMutation = %d", record.AnneeMutation)
	}
	if record.CodeRegion == nil || *record.CodeRegion != "75" {
		t.Errorf("CodeRegion = %v, want 75", record.CodeRegion)
	}
	if record.CodeIris == nil || *record.CodeIris != "330630101" {
		t.Errorf("CodeIris = %v, want 330630101", record.CodeIris)
	}
	if record.NomIris != nil {
		t.Errorf("NomIris = %v, want nil", record.NomIris)
	}

	if len(record.IDParcelles) != 2 || record.IDParcelles[1] != "33063000AB0002" {
		t.Errorf("IDParcelles = %v", record.IDParcelles)
	}
	if len(record.TypesLocaux) != 2 || record.TypesLocaux[1] != dvf.TypeLocalAppartement {
		t.Errorf("TypesLocaux = %v", record.TypesLocaux)
	}
	if record.Surfaces[0] != 120 || record.Surfaces[1] != 55 {
		t.Errorf("Surfaces = %v", record.Surfaces)
	}
	// A lot without a land surface keeps its slot as a null element, not
	// a shorter list.
	if len(record.SurfacesTerrain) != 2 {
		t.Fatalf("SurfacesTerrain = %v, want 2 elements", record.SurfacesTerrain)
	}
	if record.SurfacesTerrain[0] == nil || *record.SurfacesTerrain[0] != 450 {
		t.Errorf("SurfacesTerrain[0] = %v, want 450", record.SurfacesTerrain[0])
	}
	if record.SurfacesTerrain[1] != nil {
		t.Errorf("SurfacesTerrain[1] = %v, want nil", record.SurfacesTerrain[1])
	}
	if len(record.CodesNatureCulture) != 2 || record.CodesNatureCulture[0] != "S" || record.CodesNatureCulture[1] != "" {
		t.Errorf("CodesNatureCulture = %v", record.CodesNatureCulture)
	}
	if len(record.NaturesCulture) != 2 || record.NaturesCulture[1] != dvf.UnknownCulture {
		t.Errorf("NaturesCulture = %v", record.NaturesCulture)
	}
	if len(record.CodesNatureCultureSpeciale) != 2 || record.CodesNatureCultureSpeciale[0] != "JARDI" {
		t.Errorf("CodesNatureCultureSpeciale = %v", record.CodesNatureCultureSpeciale)
	}
	if len(record.NaturesCultureSpeciale) != 2 || record.NaturesCultureSpeciale[0] != "jardin" {
		t.Errorf("NaturesCultureSpeciale = %v", record.NaturesCultureSpeciale)
	}
	if record.PrixDeVente[0] != 217371.43 {
		t.Errorf("PrixDeVente = %v", record.PrixDeVente)
	}
}

func TestRecordOfNoLots(t *testing.T) {
	record := recordOf(dvf.Transaction{ClePrincipale: "x_1"})
	if record.IDParcelles == nil || len(record.IDParcelles) != 0 {
		t.Errorf("IDParcelles = %v, want empty non-nil list", record.IDParcelles)
	}
}
