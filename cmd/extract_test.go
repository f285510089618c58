package main

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomatics-io/landstat/internal/config"
	"github.com/geomatics-io/landstat/internal/raster"
	"github.com/geomatics-io/landstat/internal/store"
)

func resetExtractFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		for _, name := range []string{"lc", "kg", "sl", "wk", "all"} {
			_ = extractCmd.Flags().Set(name, "false")
		}
		_ = extractCmd.Flags().Set("manifest", "")
	})
}

func TestSelectedGroups(t *testing.T) {
	resetExtractFlags(t)

	assert.Empty(t, selectedGroups(extractCmd))

	require.NoError(t, extractCmd.Flags().Set("sl", "true"))
	require.NoError(t, extractCmd.Flags().Set("kg", "true"))
	assert.Equal(t, map[string]bool{"sl": true, "kg": true}, selectedGroups(extractCmd))
}

func TestSelectedGroupsAll(t *testing.T) {
	resetExtractFlags(t)

	require.NoError(t, extractCmd.Flags().Set("all", "true"))
	groups := selectedGroups(extractCmd)
	assert.Equal(t, map[string]bool{"lc": true, "kg": true, "sl": true, "wk": true}, groups)
}

func TestExtractNoFlagsPrintsUsage(t *testing.T) {
	resetExtractFlags(t)

	out := captureOutput(t, extractCmd)
	extractCmd.SetContext(context.Background())

	require.NoError(t, extractCmd.RunE(extractCmd, nil))
	assert.Contains(t, out.String(), "--lc")
	assert.Contains(t, out.String(), "--all")
}

func TestConfiguredVariantsDefaults(t *testing.T) {
	resetExtractFlags(t)
	withConfig(t, &config.Config{Data: config.DataConfig{Dir: "data"}})

	variants, err := configuredVariants(extractCmd)
	require.NoError(t, err)
	assert.Len(t, variants, 5)
}

func TestConfiguredVariantsManifestFlag(t *testing.T) {
	resetExtractFlags(t)
	withConfig(t, &config.Config{})

	path := filepath.Join(t.TempDir(), "datasets.yaml")
	manifest := `datasets:
  - name: slope
    kind: slope
    raster: data/slope.tif
    output: Slope-by-country.csv
    mode: clip
`
	require.NoError(t, os.WriteFile(path, []byte(manifest), 0o644))
	require.NoError(t, extractCmd.Flags().Set("manifest", path))

	variants, err := configuredVariants(extractCmd)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	assert.Equal(t, "slope", variants[0].Name)
}

// writeBoundaries writes a one-feature admin-0 shapefile covering the
// test raster.
func writeBoundaries(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "admin0.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("ADMIN", 64),
		shp.StringField("SOV_A3", 3),
	}))

	ring := []shp.Point{
		{X: -1, Y: -2}, {X: -1, Y: 2}, {X: 3, Y: 2}, {X: 3, Y: -2}, {X: -1, Y: -2},
	}
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{ring}))
	w.Write(&poly)
	require.NoError(t, w.WriteAttribute(0, 0, "Chile"))
	require.NoError(t, w.WriteAttribute(0, 1, "CHL"))
	w.Close()
	return path
}

func TestExtractEndToEnd(t *testing.T) {
	resetExtractFlags(t)
	dir := t.TempDir()

	rasterPath := filepath.Join(dir, "slope.tif")
	gt := raster.GeoTransform{XOrigin: 0, XPixel: 1, YOrigin: 1, YPixel: -1}
	require.NoError(t, raster.Write(rasterPath, 2, 2, gt, []byte{1, 1, 2, 2}, raster.WriteOptions{}))

	manifestPath := filepath.Join(dir, "datasets.yaml")
	manifest := `datasets:
  - name: slope
    kind: slope
    raster: ` + rasterPath + `
    output: Slope-by-country.csv
    mode: clip
`
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifest), 0o644))

	withConfig(t, &config.Config{
		Data: config.DataConfig{
			Boundaries: writeBoundaries(t, dir),
			Manifest:   manifestPath,
		},
		Extract: config.ExtractConfig{
			ResultsDir: filepath.Join(dir, "results"),
			Workers:    2,
			Precision:  2,
		},
		Store: config.StoreConfig{Path: filepath.Join(dir, "landstat.db")},
	})

	require.NoError(t, extractCmd.Flags().Set("sl", "true"))
	extractCmd.SetContext(context.Background())
	require.NoError(t, extractCmd.RunE(extractCmd, nil))

	// CSV written with the slope legend and the one region
	f, err := os.Open(filepath.Join(dir, "results", "Slope-by-country.csv"))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Country", records[0][0])
	assert.Equal(t, "0-0.5%", records[0][1])
	assert.Equal(t, "Chile", records[1][0])

	// run recorded as complete with its totals
	s, err := store.NewSQLite(cfg.Store.Path)
	require.NoError(t, err)
	defer s.Close()
	run, err := s.LatestRun(context.Background(), "slope")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, store.RunStatusComplete, run.Status)
	totals, err := s.Totals(context.Background(), run.ID)
	require.NoError(t, err)
	assert.Len(t, totals, 8)
}

func TestExtractMissingBoundariesFails(t *testing.T) {
	resetExtractFlags(t)
	withConfig(t, &config.Config{
		Data: config.DataConfig{Boundaries: filepath.Join(t.TempDir(), "absent.shp")},
	})

	require.NoError(t, extractCmd.Flags().Set("sl", "true"))
	extractCmd.SetContext(context.Background())
	err := extractCmd.RunE(extractCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boundaries")
}
