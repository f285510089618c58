package region

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// readShapefile reads polygon features with ADMIN and SOV_A3 attributes
// from an ESRI shapefile.
func readShapefile(path string) ([]Feature, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "region: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	// Build field name → index map.
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToUpper(name)] = i
	}
	adminIdx, ok := fieldIdx["ADMIN"]
	if !ok {
		return nil, eris.Errorf("region: shapefile %s has no ADMIN field", path)
	}
	sovIdx, ok := fieldIdx["SOV_A3"]
	if !ok {
		return nil, eris.Errorf("region: shapefile %s has no SOV_A3 field", path)
	}

	attr := func(idx int) string {
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	var features []Feature
	var skipped int
	for i := 0; reader.Next(); i++ {
		_, shape := reader.Shape()
		poly, isPoly := shape.(*shp.Polygon)
		if !isPoly || poly.NumParts == 0 || len(poly.Points) == 0 {
			skipped++
			continue
		}

		rings := make([][]float64, 0, poly.NumParts)
		for p := int32(0); p < poly.NumParts; p++ {
			start := poly.Parts[p]
			end := int32(len(poly.Points))
			if p+1 < poly.NumParts {
				end = poly.Parts[p+1]
			}
			flat := make([]float64, 0, (end-start)*2)
			for j := start; j < end; j++ {
				flat = append(flat, poly.Points[j].X, poly.Points[j].Y)
			}
			rings = append(rings, flat)
		}

		mp := newMultiPolygon(rings)
		if mp == nil {
			skipped++
			continue
		}
		features = append(features, Feature{
			Index: i,
			Admin: attr(adminIdx),
			SovA3: attr(sovIdx),
			Geom:  mp,
		})
	}

	if skipped > 0 {
		zap.L().Debug("region: skipped non-polygon shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	return features, nil
}
