package pipeline

import (
	"context"

	"github.com/avenet-dev/dvf-engine/internal/dvf"
)

// cultureGroupKey identifies the rows the source repeats per land-use code.
type cultureGroupKey struct {
	mutation    string
	disposition int64
	parcelle    string
	nature      string
}

// dependencyGroupKey additionally distinguishes the land-use columns so a
// dependency only marks the rows of its own land-use group.
type dependencyGroupKey struct {
	mutation        string
	disposition     int64
	parcelle        string
	culture         string
	cultureSpeciale string
	nature          string
}

// normalizeCulturesStep fills absent nature_culture values with the
// "unknown" sentinel so that null-vs-null group comparisons behave
// deterministically in the two steps that follow.
type normalizeCulturesStep struct{}

func (s *normalizeCulturesStep) Name() string { return "normalize_cultures" }

func (s *normalizeCulturesStep) Execute(ctx context.Context, state *State) error {
	state.Raw = normalizeCultures(state.Raw)
	return nil
}

func normalizeCultures(rows []dvf.RawRow) []dvf.RawRow {
	out := make([]dvf.RawRow, len(rows))
	for i, row := range rows {
		if row.CodeNatureCulture == "" {
			row.CodeNatureCulture = dvf.UnknownCulture
		}
		if row.NatureCulture == "" {
			row.NatureCulture = dvf.UnknownCulture
		}
		if row.CodeNatureCultureSpeciale == "" {
			row.CodeNatureCultureSpeciale = dvf.UnknownCulture
		}
		if row.NatureCultureSpeciale == "" {
			row.NatureCultureSpeciale = dvf.UnknownCulture
		}
		out[i] = row
	}
	return out
}

// dedupeLandUseStep collapses rows that differ only by secondary land-use
// classification: within each (mutation, disposition, parcelle, nature)
// group only rows carrying the first-observed nature_culture survive.
// Several rows can still survive per group when a parcel genuinely carries
// several properties under that one land-use.
type dedupeLandUseStep struct{}

func (s *dedupeLandUseStep) Name() string { return "dedupe_land_use" }

func (s *dedupeLandUseStep) Execute(ctx context.Context, state *State) error {
	state.Raw = dedupeLandUse(state.Raw)
	return nil
}

func dedupeLandUse(rows []dvf.RawRow) []dvf.RawRow {
	firstCulture := make(map[cultureGroupKey]string, len(rows))
	for _, row := range rows {
		key := cultureGroupKey{row.IDMutation, row.NumeroDisposition, row.IDParcelle, row.NatureMutation}
		if _, seen := firstCulture[key]; !seen {
			firstCulture[key] = row.NatureCulture
		}
	}

	out := make([]dvf.RawRow, 0, len(rows))
	for _, row := range rows {
		key := cultureGroupKey{row.IDMutation, row.NumeroDisposition, row.IDParcelle, row.NatureMutation}
		if row.NatureCulture == firstCulture[key] {
			out = append(out, row)
		}
	}
	return out
}

// flagDependenciesStep marks every row whose group also sold a secondary
// structure (garage, cellar, ...). The flag is descriptive metadata; the
// dependency rows themselves are dropped by the eligibility filter later.
type flagDependenciesStep struct{}

func (s *flagDependenciesStep) Name() string { return "flag_dependencies" }

func (s *flagDependenciesStep) Execute(ctx context.Context, state *State) error {
	state.Raw = flagDependencies(state.Raw)
	return nil
}

func flagDependencies(rows []dvf.RawRow) []dvf.RawRow {
	hasDependency := make(map[dependencyGroupKey]bool)
	for _, row := range rows {
		if row.TypeLocal == dvf.TypeLocalDependance {
			hasDependency[dependencyKeyOf(row)] = true
		}
	}

	out := make([]dvf.RawRow, len(rows))
	for i, row := range rows {
		row.HasDependency = hasDependency[dependencyKeyOf(row)]
		out[i] = row
	}
	return out
}

func dependencyKeyOf(row dvf.RawRow) dependencyGroupKey {
	return dependencyGroupKey{
		mutation:        row.IDMutation,
		disposition:     row.NumeroDisposition,
		parcelle:        row.IDParcelle,
		culture:         row.NatureCulture,
		cultureSpeciale: row.NatureCultureSpeciale,
		nature:          row.NatureMutation,
	}
}
