package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/geopanel/internal/concentration"
	"github.com/sells-group/geopanel/internal/config"
	"github.com/sells-group/geopanel/internal/crosswalk"
	"github.com/sells-group/geopanel/internal/footprint"
	"github.com/sells-group/geopanel/internal/manifest"
	"github.com/sells-group/geopanel/internal/metrics"
	"github.com/sells-group/geopanel/internal/panel"
	"github.com/sells-group/geopanel/internal/paths"
	"github.com/sells-group/geopanel/internal/store"
)

// setupProject points the package globals at a fresh project under a temp dir.
func setupProject(t *testing.T) {
	t.Helper()

	c := &config.Config{}
	c.Paths = config.PathsConfig{ProjectRoot: t.TempDir(), DataDir: "data", RawDir: "raw", DerivedDir: "derived"}
	c.Crosswalk = config.CrosswalkConfig{CBSASkipRows: 2, PopulationColumn: "population"}
	c.Footprint = config.FootprintConfig{
		ChunkRows:      2,
		CoreMinSpells:  1,
		CoreMinShare:   0.1,
		BaselineYear:   2019,
		DispersionYear: 2019,
	}
	c.Panel = config.PanelConfig{StartupMaxAge: 10, PostYear: 2020, PostHalf: 1, WinsorLower: 0.01, WinsorUpper: 0.99}
	c.Store.Path = "derived/tables.db"
	c.Publish.Schema = "research"
	cfg = c

	d, err := paths.Resolve(cfg.Paths, cfg.Store.Path)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(d.RawDir, 0o755))
	dirs = d
	rec = metrics.New()
}

func writeRaw(t *testing.T, name, content string) string {
	t.Helper()
	path := dirs.Raw(name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

const (
	countyCZCSV = "county_fips,cz\n" +
		"01001,100\n" +
		"01003,100\n" +
		"01005,200\n" +
		"01007,300\n"
	countyCBSACSV = "county_fips,cbsa_code\n" +
		"01001,12420\n" +
		"01003,19740\n" +
		"01005,19740\n"
	countyPopCSV = "county_fips,population\n" +
		"01001,300\n" +
		"01003,100\n" +
		"01005,50\n" +
		"01007,10\n"
	czHHICSV = "cz,soc_code,year,quarter,hhi\n" +
		"100,11-1011,2019,1,0.2\n" +
		"100,11-1011,2019,2,0.4\n" +
		"200,11-1011,2019,1,0.6\n" +
		"100,11-1011,2019,3,0.3\n" +
		"200,11-1011,2019,3,0.5\n" +
		"999,11-1011,2019,3,0.9\n"
	metrosCSV = "msa,cbsacode,lat,lon\n" +
		"Austin,12420,30.2672,-97.7431\n" +
		"Denver,19740,39.7392,-104.9903\n"
	spellsCSV = "user_id,companyname,msa,startdate,enddate,soc_code\n" +
		"1,Acme,Austin,2019-01-10,2019-08-01,11-1011\n" +
		"2,Acme,Austin,2019-01-20,2019-01-25,11-1011\n" +
		"3,Acme,Denver,2019-01-05,2019-12-06,11-1011\n" +
		"4,Beta,Denver,2019-03-01,2019-09-30,11-1011\n" +
		"5,Beta,Denver,2019-08-01,2019-10-01,11-1011\n" +
		"6,Beta,Atlantis,2019-08-01,2019-10-01,11-1011\n"
	attributesCSV = "companyname,founded,teleworkable,flexibility_score\n" +
		"Acme,2015,0.5,1\n" +
		"Beta,1990,0.2,0\n"
)

// writeRawInputs writes every raw input of the pipeline.
func writeRawInputs(t *testing.T) {
	t.Helper()
	writeRaw(t, countyCZFile, countyCZCSV)
	writeRaw(t, "county_cbsa.csv", countyCBSACSV)
	writeRaw(t, countyPopFile, countyPopCSV)
	writeRaw(t, czHHIFile, czHHICSV)
	writeRaw(t, metrosFile, metrosCSV)
	writeRaw(t, spellsFile, spellsCSV)
	writeRaw(t, "firm_attributes.csv", attributesCSV)
}

func defaultFootprintRun() footprintRun {
	return footprintRun{
		Spells: dirs.Raw(spellsFile),
		Metros: dirs.Raw(metrosFile),
		OutDir: dirs.Derived,
		Engine: footprint.Options{
			ChunkRows:    cfg.Footprint.ChunkRows,
			BaselineYear: cfg.Footprint.BaselineYear,
		},
		Summary: footprint.SummaryOptions{
			CoreMinSpells:  cfg.Footprint.CoreMinSpells,
			CoreMinShare:   cfg.Footprint.CoreMinShare,
			DispersionYear: cfg.Footprint.DispersionYear,
		},
	}
}

func defaultPanelRun(level panel.Level) panelRun {
	return panelRun{
		Attributes: dirs.Raw("firm_attributes.csv"),
		InDir:      dirs.Derived,
		OutDir:     dirs.Derived,
		HHIMode:    concentration.ModeWeighted,
		Options: panel.Options{
			Level:         level,
			StartupMaxAge: cfg.Panel.StartupMaxAge,
			PostYear:      cfg.Panel.PostYear,
			PostHalf:      cfg.Panel.PostHalf,
			WinsorLower:   cfg.Panel.WinsorLower,
			WinsorUpper:   cfg.Panel.WinsorUpper,
		},
	}
}

// runPipeline runs every build step in order against the raw inputs.
func runPipeline(t *testing.T, ctx context.Context) {
	t.Helper()
	in := crosswalk.Inputs{
		CountyCZ:         dirs.Raw(countyCZFile),
		CountyCBSA:       dirs.Raw("county_cbsa.csv"),
		CountyPopulation: dirs.Raw(countyPopFile),
	}
	require.NoError(t, runStep(ctx, "crosswalk", dirs.Derived, func(ctx context.Context, m *manifest.Manifest, st store.Store) error {
		return buildCrosswalk(ctx, m, st, in, dirs.Derived)
	}))
	require.NoError(t, runStep(ctx, "hhi", dirs.Derived, func(ctx context.Context, m *manifest.Manifest, st store.Store) error {
		return buildHHI(ctx, m, st, concentration.ModeWeighted, dirs.Raw(czHHIFile), dirs.Derived, dirs.Derived)
	}))
	require.NoError(t, runStep(ctx, "footprint", dirs.Derived, func(ctx context.Context, m *manifest.Manifest, st store.Store) error {
		return buildFootprint(ctx, m, st, defaultFootprintRun(), io.Discard)
	}))
	for _, level := range []panel.Level{panel.LevelFirm, panel.LevelOcc} {
		require.NoError(t, runStep(ctx, "panel_"+string(level), dirs.Derived, func(ctx context.Context, m *manifest.Manifest, st store.Store) error {
			return buildPanel(ctx, m, st, defaultPanelRun(level))
		}))
	}
}
