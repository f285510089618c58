// Package region reads administrative boundary layers and resolves
// admin names to canonical region identities.
package region

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Feature is one administrative-boundary polygon feature.
type Feature struct {
	// Index is the feature's position in the boundary layer. It is part
	// of the mask-file naming convention, so it counts every feature in
	// layer order including ones later skipped.
	Index int
	// Admin is the free-text administrative name, resolved through a
	// Normalizer before aggregation.
	Admin string
	// SovA3 is the 3-letter sovereign code, used only for scratch and
	// mask file names.
	SovA3 string
	Geom  *geom.MultiPolygon
}

// ReadFeatures loads all polygon features from a boundary layer in layer
// order. The format is selected by file extension: ESRI shapefile (.shp)
// or FlatGeobuf (.fgb).
func ReadFeatures(path string) ([]Feature, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".shp":
		return readShapefile(path)
	case ".fgb":
		return readFlatGeobuf(path)
	default:
		return nil, eris.Errorf("region: unsupported boundary format %q", filepath.Ext(path))
	}
}

// newMultiPolygon assembles shapefile-style ring parts into a
// MultiPolygon: clockwise rings open a new polygon, counter-clockwise
// rings are holes in the polygon opened most recently.
func newMultiPolygon(rings [][]float64) *geom.MultiPolygon {
	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	var cur *geom.Polygon
	flush := func() {
		if cur != nil && cur.NumLinearRings() > 0 {
			_ = mp.Push(cur)
		}
		cur = nil
	}
	for _, flat := range rings {
		if len(flat) < 8 { // a closed ring needs at least 4 points
			continue
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)
		if isClockwise(flat) || cur == nil {
			flush()
			cur = geom.NewPolygon(geom.XY)
		}
		_ = cur.Push(ring)
	}
	flush()
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// isClockwise reports negative shoelace area, the shapefile convention
// for outer rings.
func isClockwise(flat []float64) bool {
	var sum float64
	n := len(flat) / 2
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += (flat[j*2] - flat[i*2]) * (flat[j*2+1] + flat[i*2+1])
	}
	return sum > 0
}
