package crosswalk

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/geopanel/internal/tabular"
	"github.com/sells-group/geopanel/internal/transform"
)

// Column aliases accepted by the loaders, in order of preference.
var (
	countyAliases = []string{"county_fips", "fips", "cty_fips", "geoid"}
	czAliases     = []string{"cz", "czone", "cz2000", "cz2010", "cz_id"}
	cbsaAliases   = []string{"cbsa_code", "cbsa", "cbsacode", "cbsafp"}
	stateAliases  = []string{"fips_state_code", "state", "statefp", "state_fips"}
	countyPart    = []string{"fips_county_code", "county", "countyfp", "county_code"}
)

// Inputs names the three county tables.
type Inputs struct {
	CountyCZ         string
	CountyCBSA       string // CSV or CBSA delineation .xlsx
	CountyPopulation string
}

// LoadOptions configures input parsing.
type LoadOptions struct {
	CBSASkipRows     int    // header rows above the delineation spreadsheet's column row
	PopulationColumn string // population column in the population table
}

// Tables holds the three loaded county tables.
type Tables struct {
	CountyCZ   CountyCZ
	CountyCBSA CountyCBSA
	Population CountyPopulation
}

// LoadAll reads the three county tables concurrently.
func LoadAll(ctx context.Context, in Inputs, opts LoadOptions) (*Tables, error) {
	var t Tables
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := LoadCountyCZ(in.CountyCZ)
		t.CountyCZ = m
		return err
	})
	g.Go(func() error {
		m, err := LoadCountyCBSA(in.CountyCBSA, opts.CBSASkipRows)
		t.CountyCBSA = m
		return err
	})
	g.Go(func() error {
		m, err := LoadCountyPopulation(in.CountyPopulation, opts.PopulationColumn)
		t.Population = m
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &t, nil
}

// LoadCountyCZ reads the county -> commuting zone table.
func LoadCountyCZ(path string) (CountyCZ, error) {
	header, rows, err := tabular.ReadCSVFile(path, tabular.CSVOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "crosswalk: read county-cz")
	}
	countyIdx := header.Index(countyAliases...)
	czIdx := header.Index(czAliases...)
	if countyIdx < 0 || czIdx < 0 {
		return nil, eris.Errorf("crosswalk: %s needs county FIPS and CZ columns", path)
	}

	out := make(CountyCZ, len(rows))
	for _, rec := range rows {
		county := transform.NormalizeCountyFIPS(tabular.Field(rec, countyIdx))
		cz := strings.TrimSuffix(tabular.Field(rec, czIdx), ".0")
		if county == "" || cz == "" {
			continue
		}
		out[county] = cz
	}
	return out, nil
}

// LoadCountyCBSA reads the county -> CBSA delineation. Spreadsheets (.xlsx)
// skip skipRows title rows above the column header; CSV files start with the header.
func LoadCountyCBSA(path string, skipRows int) (CountyCBSA, error) {
	var (
		header tabular.Header
		rows   [][]string
		err    error
	)
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		header, rows, err = tabular.ReadXLSX(path, tabular.XLSXOptions{SkipRows: skipRows})
	} else {
		header, rows, err = tabular.ReadCSVFile(path, tabular.CSVOptions{})
	}
	if err != nil {
		return nil, eris.Wrap(err, "crosswalk: read county-cbsa")
	}

	cbsaIdx := header.Index(cbsaAliases...)
	if cbsaIdx < 0 {
		return nil, eris.Errorf("crosswalk: %s has no CBSA code column", path)
	}
	county, err := countyKey(header, path)
	if err != nil {
		return nil, err
	}

	out := make(CountyCBSA, len(rows))
	for _, rec := range rows {
		fips := county(rec)
		cbsa := transform.NormalizeCBSA(tabular.Field(rec, cbsaIdx))
		// Footnote rows at the bottom of the delineation sheet have neither.
		if fips == "" || cbsa == "" {
			continue
		}
		out[fips] = cbsa
	}
	return out, nil
}

// LoadCountyPopulation reads county populations from column. Unparseable
// values count as population 0.
func LoadCountyPopulation(path, column string) (CountyPopulation, error) {
	header, rows, err := tabular.ReadCSVFile(path, tabular.CSVOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "crosswalk: read county population")
	}
	if column == "" {
		column = "population"
	}
	popIdx := header.Index(column)
	if popIdx < 0 {
		return nil, eris.Errorf("crosswalk: %s has no %q column", path, column)
	}
	county, err := countyKey(header, path)
	if err != nil {
		return nil, err
	}

	out := make(CountyPopulation, len(rows))
	for _, rec := range rows {
		fips := county(rec)
		if fips == "" {
			continue
		}
		out[fips] = tabular.ParseFloatOr(tabular.Field(rec, popIdx), 0)
	}
	return out, nil
}

// countyKey returns a function extracting the 5-digit county FIPS from a
// record, using either a full FIPS column or separate state and county parts.
func countyKey(header tabular.Header, path string) (func([]string) string, error) {
	if idx := header.Index(countyAliases...); idx >= 0 {
		return func(rec []string) string {
			return transform.NormalizeCountyFIPS(tabular.Field(rec, idx))
		}, nil
	}

	stateIdx := header.Index(stateAliases...)
	countyIdx := header.Index(countyPart...)
	if stateIdx < 0 || countyIdx < 0 {
		return nil, eris.Errorf("crosswalk: %s has no county FIPS columns", path)
	}
	return func(rec []string) string {
		return transform.CombineFIPS(tabular.Field(rec, stateIdx), tabular.Field(rec, countyIdx))
	}, nil
}
