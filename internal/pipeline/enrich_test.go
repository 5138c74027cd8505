package pipeline

import (
	"context"
	"testing"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
	"github.com/avenet-dev/dvf-engine/internal/insee"
)

func TestRegionStep(t *testing.T) {
	lookup := insee.RegionLookup{
		"33": {Code: "75", Name: "Nouvelle-Aquitaine"},
		"75": {Code: "11", Name: "Île-de-France"},
	}

	state := &State{Transactions: []dvf.Transaction{
		cleanTransaction(nil),
		cleanTransaction(func(tx *dvf.Transaction) { tx.CodeDepartement = "75" }),
		// Overseas department absent from the fixture lookup.
		cleanTransaction(func(tx *dvf.Transaction) { tx.CodeDepartement = "988" }),
	}}

	step := &regionStep{lookup: lookup}
	if err := step.Execute(context.Background(), state); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(state.Transactions) != 3 {
		t.Fatalf("left join changed row count: got %d, want 3", len(state.Transactions))
	}

	bordeaux := state.Transactions[0]
	if bordeaux.CodeRegion == nil || *bordeaux.CodeRegion != "75" {
		t.Errorf("CodeRegion = %v, want 75", bordeaux.CodeRegion)
	}
	if bordeaux.NomRegion == nil || *bordeaux.NomRegion != "Nouvelle-Aquitaine" {
		t.Errorf("NomRegion = %v, want Nouvelle-Aquitaine", bordeaux.NomRegion)
	}

	paris := state.Transactions[1]
	if paris.NomRegion == nil || *paris.NomRegion != "Île-de-France" {
		t.Errorf("NomRegion = %v, want Île-de-France", paris.NomRegion)
	}

	unmapped := state.Transactions[2]
	if unmapped.CodeRegion != nil || unmapped.NomRegion != nil {
		t.Errorf("unmapped department has region fields set: %v / %v",
			unmapped.CodeRegion, unmapped.NomRegion)
	}
}
