package dvf

import (
	"strings"
	"testing"
)

const csvHeader = "id_mutation,date_mutation,numero_disposition,nature_mutation,valeur_fonciere," +
	"adresse_numero,adresse_suffixe,adresse_nom_voie,adresse_code_voie,code_postal," +
	"code_commune,nom_commune,code_departement,ancien_code_commune,ancien_nom_commune," +
	"id_parcelle,ancien_id_parcelle,numero_volume," +
	"lot1_numero,lot1_surface_carrez,lot2_numero,lot2_surface_carrez,lot3_numero,lot3_surface_carrez," +
	"lot4_numero,lot4_surface_carrez,lot5_numero,lot5_surface_carrez,nombre_lots," +
	"code_type_local,type_local,surface_reelle_bati,nombre_pieces_principales," +
	"code_nature_culture,nature_culture,code_nature_culture_speciale,nature_culture_speciale," +
	"surface_terrain,longitude,latitude"

// rawLine builds a full 40-column record with sensible defaults, letting a
// test override just the columns it cares about.
func rawLine(overrides map[int]string) string {
	fields := make([]string, columnCount)
	fields[colIDMutation] = "2024-1"
	fields[colDateMutation] = "2024-03-15"
	fields[colNumeroDisposition] = "1"
	fields[colNatureMutation] = MutationVente
	fields[colValeurFonciere] = "250000"
	fields[colCodePostal] = "33000"
	fields[colCodeCommune] = "33063"
	fields[colNomCommune] = "Bordeaux"
	fields[colCodeDepartement] = "33"
	fields[colIDParcelle] = "33063000AB0001"
	fields[colNombreLots] = "0"
	fields[colCodeTypeLocal] = "1"
	fields[colTypeLocal] = TypeLocalMaison
	fields[colSurfaceReelleBati] = "120"
	fields[colNombrePieces] = "5"
	fields[colCodeNatureCulture] = "S"
	fields[colNatureCulture] = "sols"
	fields[colSurfaceTerrain] = "450"
	fields[colLongitude] = "-0.5792"
	fields[colLatitude] = "44.8378"
	for i, v := range overrides {
		fields[i] = v
	}
	return strings.Join(fields, ",")
}

func TestReadCSV_ParsesTypedColumns(t *testing.T) {
	input := csvHeader + "\n" + rawLine(nil) + "\n"

	rows, stats, err := readCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("readCSV failed: %v", err)
	}
	if stats.RowsKept != 1 || stats.RowsDropped != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	row := rows[0]
	if row.IDMutation != "2024-1" {
		t.Errorf("IDMutation = %q", row.IDMutation)
	}
	if got := row.DateMutation.Format("2006-01-02"); got != "2024-03-15" {
		t.Errorf("DateMutation = %s", got)
	}
	if row.NumeroDisposition != 1 {
		t.Errorf("NumeroDisposition = %d", row.NumeroDisposition)
	}
	if row.ValeurFonciere == nil || *row.ValeurFonciere != 250000 {
		t.Errorf("ValeurFonciere = %v", row.ValeurFonciere)
	}
	if row.SurfaceReelleBati == nil || *row.SurfaceReelleBati != 120 {
		t.Errorf("SurfaceReelleBati = %v", row.SurfaceReelleBati)
	}
	if row.NombrePiecesPrincipales == nil || *row.NombrePiecesPrincipales != 5 {
		t.Errorf("NombrePiecesPrincipales = %v", row.NombrePiecesPrincipales)
	}
	if row.CodeDepartement != "33" {
		t.Errorf("CodeDepartement = %q, identifiers must stay text", row.CodeDepartement)
	}
	if row.Latitude == nil || *row.Latitude != 44.8378 {
		t.Errorf("Latitude = %v", row.Latitude)
	}
}

func TestReadCSV_NullSentinels(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "empty", value: ""},
		{name: "NA", value: "NA"},
		{name: "null literal", value: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := csvHeader + "\n" + rawLine(map[int]string{
				colValeurFonciere:    tt.value,
				colSurfaceReelleBati: tt.value,
				colNombrePieces:      tt.value,
				colLongitude:         tt.value,
			}) + "\n"

			rows, stats, err := readCSV(strings.NewReader(input))
			if err != nil {
				t.Fatalf("readCSV failed: %v", err)
			}
			if stats.RowsDropped != 0 {
				t.Fatalf("null sentinel should not drop the row, stats: %+v", stats)
			}
			row := rows[0]
			if row.ValeurFonciere != nil {
				t.Errorf("ValeurFonciere = %v, want nil", *row.ValeurFonciere)
			}
			if row.SurfaceReelleBati != nil {
				t.Errorf("SurfaceReelleBati = %v, want nil", *row.SurfaceReelleBati)
			}
			if row.NombrePiecesPrincipales != nil {
				t.Errorf("NombrePiecesPrincipales = %v, want nil", *row.NombrePiecesPrincipales)
			}
			if row.Longitude != nil {
				t.Errorf("Longitude = %v, want nil", *row.Longitude)
			}
		})
	}
}

func TestReadCSV_DropsMalformedRows(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "bad date", line: rawLine(map[int]string{colDateMutation: "15/03/2024"})},
		{name: "bad disposition", line: rawLine(map[int]string{colNumeroDisposition: "one"})},
		{name: "bad price", line: rawLine(map[int]string{colValeurFonciere: "250k"})},
		{name: "bad latitude", line: rawLine(map[int]string{colLatitude: "north"})},
		{name: "truncated", line: "2024-2,2024-01-01,1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := csvHeader + "\n" + tt.line + "\n" + rawLine(map[int]string{colIDMutation: "2024-9"}) + "\n"

			rows, stats, err := readCSV(strings.NewReader(input))
			if err != nil {
				t.Fatalf("readCSV failed: %v", err)
			}
			if stats.RowsRead != 2 || stats.RowsDropped != 1 || stats.RowsKept != 1 {
				t.Fatalf("unexpected stats: %+v", stats)
			}
			if rows[0].IDMutation != "2024-9" {
				t.Errorf("surviving row = %q, want the well-formed one", rows[0].IDMutation)
			}
		})
	}
}

func TestReadCSV_ShortHeaderFails(t *testing.T) {
	input := "id_mutation,date_mutation\n"
	if _, _, err := readCSV(strings.NewReader(input)); err == nil {
		t.Fatal("expected error for incomplete header")
	}
}
