// Package insee loads the static INSEE administrative reference tables.
// The lookups are read once per run and injected into the enrichment stage
// so tests can substitute fixtures.
package insee

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Region is one administrative region (code + label).
type Region struct {
	Code string
	Name string
}

// RegionLookup maps a department code ("01", "2A", "971") to its region.
type RegionLookup map[string]Region

// LoadRegionLookup reads the INSEE department and region tables and joins
// them into a department→region lookup. The department file must carry DEP
// and REG columns, the region file REG and LIBELLE; both files ship with
// extra columns that are ignored.
func LoadRegionLookup(departmentsPath, regionsPath string) (RegionLookup, error) {
	deptToRegion, err := readColumnPairs(departmentsPath, "DEP", "REG")
	if err != nil {
		return nil, fmt.Errorf("insee: department table: %w", err)
	}
	regionNames, err := readColumnPairs(regionsPath, "REG", "LIBELLE")
	if err != nil {
		return nil, fmt.Errorf("insee: region table: %w", err)
	}

	lookup := make(RegionLookup, len(deptToRegion))
	for dept, regionCode := range deptToRegion {
		lookup[dept] = Region{
			Code: regionCode,
			Name: regionNames[regionCode],
		}
	}
	return lookup, nil
}

// readColumnPairs extracts a key→value mapping of two named columns from a
// headered CSV file.
func readColumnPairs(path, keyCol, valueCol string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseColumnPairs(f, keyCol, valueCol)
}

func parseColumnPairs(r io.Reader, keyCol, valueCol string) (map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	keyIdx, valueIdx := -1, -1
	for i, name := range header {
		switch name {
		case keyCol:
			keyIdx = i
		case valueCol:
			valueIdx = i
		}
	}
	if keyIdx < 0 || valueIdx < 0 {
		return nil, fmt.Errorf("columns %s/%s not found in header %v", keyCol, valueCol, header)
	}

	pairs := make(map[string]string)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		if len(record) <= keyIdx || len(record) <= valueIdx {
			continue
		}
		pairs[record[keyIdx]] = record[valueIdx]
	}
	return pairs, nil
}
