package region

import (
	"github.com/paulmach/orb"
	"github.com/rotisserie/eris"
	fgb "github.com/tingold/orb-flatgeobuf"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
)

// readFlatGeobuf reads polygon features with ADMIN and SOV_A3 properties
// from a FlatGeobuf file.
func readFlatGeobuf(path string) ([]Feature, error) {
	reader, err := fgb.NewReader(path)
	if err != nil {
		return nil, eris.Wrapf(err, "region: open flatgeobuf %s", path)
	}

	fc, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "region: read flatgeobuf %s", path)
	}

	var features []Feature
	var skipped int
	for i, f := range fc.Features {
		mp := orbToMultiPolygon(f.Geometry)
		if mp == nil {
			skipped++
			continue
		}
		features = append(features, Feature{
			Index: i,
			Admin: f.Properties.MustString("ADMIN", ""),
			SovA3: f.Properties.MustString("SOV_A3", ""),
			Geom:  mp,
		})
	}

	if skipped > 0 {
		zap.L().Debug("region: skipped non-polygon flatgeobuf records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return features, nil
}

// orbToMultiPolygon converts an orb polygon geometry to go-geom,
// preserving polygon/hole structure.
func orbToMultiPolygon(g orb.Geometry) *geom.MultiPolygon {
	var polys orb.MultiPolygon
	switch o := g.(type) {
	case orb.Polygon:
		polys = orb.MultiPolygon{o}
	case orb.MultiPolygon:
		polys = o
	default:
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)
	for _, poly := range polys {
		gp := geom.NewPolygon(geom.XY)
		for _, ring := range poly {
			flat := make([]float64, 0, len(ring)*2)
			for _, pt := range ring {
				flat = append(flat, pt[0], pt[1])
			}
			if len(flat) < 8 {
				continue
			}
			_ = gp.Push(geom.NewLinearRingFlat(geom.XY, flat))
		}
		if gp.NumLinearRings() > 0 {
			_ = mp.Push(gp)
		}
	}
	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
