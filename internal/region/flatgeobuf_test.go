package region

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	fgb "github.com/tingold/orb-flatgeobuf"
)

// writeTestFlatGeobuf writes a two-feature boundary layer. The spatial
// index is left out so the file preserves feature order.
func writeTestFlatGeobuf(t *testing.T) string {
	t.Helper()

	fc := geojson.NewFeatureCollection()

	chile := geojson.NewFeature(orb.Polygon{{{-75, -55}, {-66, -55}, {-66, -17}, {-75, -17}, {-75, -55}}})
	chile.Properties = geojson.Properties{"ADMIN": "Chile", "SOV_A3": "CHL"}
	fc.Append(chile)

	japan := geojson.NewFeature(orb.MultiPolygon{
		{{{130, 30}, {146, 30}, {146, 46}, {130, 46}, {130, 30}}},
		{{{127, 26}, {129, 26}, {129, 27}, {127, 27}, {127, 26}}},
	})
	japan.Properties = geojson.Properties{"ADMIN": "Japan", "SOV_A3": "JPN"}
	fc.Append(japan)

	path := filepath.Join(t.TempDir(), "boundaries.fgb")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, fgb.WriteFeatures(f, fc, &fgb.Options{Name: "boundaries", IncludeIndex: false}))
	return path
}

func TestReadFeaturesFlatGeobuf(t *testing.T) {
	features, err := ReadFeatures(writeTestFlatGeobuf(t))
	require.NoError(t, err)
	require.Len(t, features, 2)

	chile := features[0]
	assert.Equal(t, 0, chile.Index)
	assert.Equal(t, "Chile", chile.Admin)
	assert.Equal(t, "CHL", chile.SovA3)
	require.NotNil(t, chile.Geom)
	assert.Equal(t, 1, chile.Geom.NumPolygons())
	assert.Equal(t, 4326, chile.Geom.SRID())

	japan := features[1]
	assert.Equal(t, 1, japan.Index)
	assert.Equal(t, "Japan", japan.Admin)
	assert.Equal(t, "JPN", japan.SovA3)
	require.NotNil(t, japan.Geom)
	assert.Equal(t, 2, japan.Geom.NumPolygons())
}

func TestOrbToMultiPolygon(t *testing.T) {
	square := orb.Ring{{0, 0}, {4, 0}, {4, 4}, {0, 4}, {0, 0}}
	hole := orb.Ring{{1, 1}, {1, 2}, {2, 2}, {2, 1}, {1, 1}}

	t.Run("polygon with hole", func(t *testing.T) {
		mp := orbToMultiPolygon(orb.Polygon{square, hole})
		require.NotNil(t, mp)
		require.Equal(t, 1, mp.NumPolygons())
		assert.Equal(t, 2, mp.Polygon(0).NumLinearRings())
		assert.Equal(t, 4326, mp.SRID())
	})

	t.Run("multipolygon", func(t *testing.T) {
		second := orb.Ring{{10, 10}, {12, 10}, {12, 12}, {10, 12}, {10, 10}}
		mp := orbToMultiPolygon(orb.MultiPolygon{{square}, {second}})
		require.NotNil(t, mp)
		assert.Equal(t, 2, mp.NumPolygons())
	})

	t.Run("non-polygon geometry", func(t *testing.T) {
		assert.Nil(t, orbToMultiPolygon(orb.Point{1, 2}))
		assert.Nil(t, orbToMultiPolygon(orb.LineString{{0, 0}, {1, 1}}))
	})

	t.Run("degenerate rings", func(t *testing.T) {
		assert.Nil(t, orbToMultiPolygon(orb.Polygon{{{0, 0}, {1, 1}, {0, 0}}}))
	})
}

func TestReadFeaturesMissingFlatGeobuf(t *testing.T) {
	_, err := ReadFeatures(filepath.Join(t.TempDir(), "absent.fgb"))
	assert.Error(t, err)
}
