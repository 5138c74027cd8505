package pipeline

import (
	"testing"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
)

func TestIsEligible(t *testing.T) {
	tests := []struct {
		name     string
		override func(*dvf.RawRow)
		want     bool
	}{
		{"standard sale of a house", nil, true},
		{
			"sale of an apartment",
			func(r *dvf.RawRow) { r.TypeLocal = dvf.TypeLocalAppartement },
			true,
		},
		{
			"off-plan sale",
			func(r *dvf.RawRow) { r.NatureMutation = dvf.MutationVEFA },
			true,
		},
		{
			"court-ordered auction",
			func(r *dvf.RawRow) { r.NatureMutation = dvf.MutationAdjudication },
			true,
		},
		{
			"exchange is not a sale",
			func(r *dvf.RawRow) { r.NatureMutation = "Echange" },
			false,
		},
		{
			"expropriation is not a sale",
			func(r *dvf.RawRow) { r.NatureMutation = "Expropriation" },
			false,
		},
		{
			"dependency is not a dwelling",
			func(r *dvf.RawRow) { r.TypeLocal = dvf.TypeLocalDependance },
			false,
		},
		{
			"commercial premises",
			func(r *dvf.RawRow) { r.TypeLocal = "Local industriel. commercial ou assimilé" },
			false,
		},
		{
			"bare land has no type",
			func(r *dvf.RawRow) { r.TypeLocal = "" },
			false,
		},
		{
			"missing price",
			func(r *dvf.RawRow) { r.ValeurFonciere = nil },
			false,
		},
		{
			"symbolic price at the floor",
			func(r *dvf.RawRow) { r.ValeurFonciere = fptr(100) },
			false,
		},
		{
			"price just above the floor",
			func(r *dvf.RawRow) { r.ValeurFonciere = fptr(100.01) },
			true,
		},
		{
			"missing built surface",
			func(r *dvf.RawRow) { r.SurfaceReelleBati = nil },
			false,
		},
		{
			"zero built surface",
			func(r *dvf.RawRow) { r.SurfaceReelleBati = fptr(0) },
			false,
		},
		{
			"missing latitude",
			func(r *dvf.RawRow) { r.Latitude = nil },
			false,
		},
		{
			"missing longitude",
			func(r *dvf.RawRow) { r.Longitude = nil },
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEligible(rawRow(tt.override)); got != tt.want {
				t.Errorf("isEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}
