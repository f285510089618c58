package aggregate

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geomatics-io/landstat/internal/area"
	"github.com/geomatics-io/landstat/internal/classify"
	"github.com/geomatics-io/landstat/internal/raster"
	"github.com/geomatics-io/landstat/internal/region"
)

// ClipOptions configure the vector-clip scan.
type ClipOptions struct {
	// AllTouched includes pixels merely touched by the cutline, not just
	// pixels whose center lies inside it.
	AllTouched bool
	// Fill is the raw value written outside the cutline. A fill the
	// lookup classifies as data is replaced with a no-data value, so
	// outside pixels can never accumulate area.
	Fill byte
	// Workers bounds concurrent feature scans. Each worker holds its own
	// raster handles and accumulates into a private partial matrix.
	Workers int
}

// ClipAggregator scans a raster with no precomputed region masks by
// clipping it to each region's polygon and full-scanning the clip.
// Clips are bounded to the polygon's extent, so each scan touches the
// region's bounding box rather than the whole globe.
type ClipAggregator struct {
	sourcePath string
	lookup     classify.Lookup
	names      region.Normalizer
	opts       ClipOptions
}

// NewClipAggregator builds a vector-clip aggregator over the source
// raster.
func NewClipAggregator(sourcePath string, lookup classify.Lookup, names region.Normalizer, opts ClipOptions) *ClipAggregator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	opts.Fill = nodataFill(lookup, opts.Fill)
	return &ClipAggregator{sourcePath: sourcePath, lookup: lookup, names: names, opts: opts}
}

// nodataFill returns fill if the lookup already treats it as no-data,
// otherwise the highest raw value the lookup rejects. Zero is a valid
// class for some legends (slope bucket 0), so an unset fill cannot be
// trusted as a sentinel.
func nodataFill(lookup classify.Lookup, fill byte) byte {
	if _, ok := lookup.Classify(int(fill)); !ok {
		return fill
	}
	for v := 255; v >= 0; v-- {
		if _, ok := lookup.Classify(v); !ok {
			return byte(v)
		}
	}
	return fill
}

// Run aggregates every boundary feature into a region × class matrix.
// Unresolved names and empty clips are skipped; a source raster that
// fails to open is fatal.
func (a *ClipAggregator) Run(ctx context.Context, features []region.Feature) (*Matrix, error) {
	// fail fast before spawning workers
	src, err := raster.Open(a.sourcePath)
	if err != nil {
		return nil, err
	}
	src.Close()

	scratch, err := NewScratch()
	if err != nil {
		return nil, err
	}
	defer func() { _ = scratch.Close() }()

	log := zap.L().With(zap.String("raster", a.sourcePath))

	partials := make([]*Matrix, len(features))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)
	for i, f := range features {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partial := NewMatrix(a.lookup.Columns())
			if err := a.scanFeature(f, scratch, partial, log); err != nil {
				return err
			}
			partials[i] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matrix := NewMatrix(a.lookup.Columns())
	for _, p := range partials {
		if p != nil {
			matrix.Merge(p)
		}
	}
	return matrix, nil
}

// scanFeature clips the source raster to one feature and accumulates the
// clip into the partial matrix.
func (a *ClipAggregator) scanFeature(f region.Feature, scratch *Scratch, partial *Matrix, log *zap.Logger) error {
	admin, ok := a.names.Lookup(f.Admin)
	if !ok {
		log.Info("skipping unresolved admin name",
			zap.String("admin", f.Admin),
			zap.String("feature", featureTag(f)),
		)
		return nil
	}

	// Materialize the single-feature cutline geometry as its own scratch
	// dataset, then clip against that file.
	cutlinePath := scratch.Path(fmt.Sprintf("%s_feature_mask.wkb", featureTag(f)))
	if err := writeCutline(cutlinePath, f.Geom); err != nil {
		return err
	}

	clipPath := scratch.Path(fmt.Sprintf("%s_feature.tif", featureTag(f)))
	clipped, err := warpToCutline(a.sourcePath, cutlinePath, clipPath, a.opts.AllTouched, a.opts.Fill)
	if err != nil {
		return err
	}
	if !clipped {
		log.Info("skipping empty clip",
			zap.String("admin", admin),
			zap.String("feature", featureTag(f)),
		)
		return nil
	}

	log.Info("processing feature",
		zap.String("admin", admin),
		zap.String("feature", featureTag(f)),
	)
	partial.EnsureRegion(admin)
	return a.scanClip(clipPath, admin, partial)
}

// scanClip full-scans a clipped raster row by row, mapping each row's
// value histogram through the lookup.
func (a *ClipAggregator) scanClip(path, admin string, partial *Matrix) error {
	clip, err := raster.Open(path)
	if err != nil {
		return err
	}
	defer clip.Close()

	width, height := clip.Size()
	gt := clip.GeoTransform()
	row := make([]byte, width)
	for y := 0; y < height; y++ {
		if err := clip.ReadRow(y, row); err != nil {
			return err
		}
		km2 := area.PixelKm2(gt, y)

		var counts [256]int
		for _, v := range row {
			counts[v]++
		}
		for v, n := range counts {
			if n == 0 {
				continue
			}
			key, ok := a.lookup.Classify(v)
			if !ok {
				continue
			}
			partial.Add(admin, key, float64(n)*km2)
		}
	}
	return nil
}

// featureTag names scratch and mask files for a feature.
func featureTag(f region.Feature) string {
	return fmt.Sprintf("%s_%d", f.SovA3, f.Index)
}

// writeCutline writes the feature geometry as a WKB scratch file.
func writeCutline(path string, mp *geom.MultiPolygon) error {
	data, err := wkb.Marshal(mp, wkb.NDR)
	if err != nil {
		return eris.Wrap(err, "aggregate: encode cutline")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "aggregate: write cutline %s", path)
	}
	return nil
}

// readCutline loads a WKB scratch polygon file.
func readCutline(path string) (*geom.MultiPolygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: read cutline %s", path)
	}
	g, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrapf(err, "aggregate: decode cutline %s", path)
	}
	mp, ok := g.(*geom.MultiPolygon)
	if !ok {
		return nil, eris.Errorf("aggregate: cutline %s is %T, want MultiPolygon", path, g)
	}
	return mp, nil
}

// warpToCutline clips the source raster to the cutline polygon's extent,
// writing a fully flushed scratch GeoTIFF. Pixels outside the cutline
// are recoded to fill. Returns false when the cutline does not intersect
// the raster. The crop window covers pixels overlapping the cutline's
// bounds; a pixel merely tangent to the bounds along its own edge falls
// outside the window and is not counted as touched.
func warpToCutline(sourcePath, cutlinePath, outPath string, allTouched bool, fill byte) (bool, error) {
	mp, err := readCutline(cutlinePath)
	if err != nil {
		return false, err
	}

	src, err := raster.Open(sourcePath)
	if err != nil {
		return false, err
	}
	defer src.Close()

	width, height := src.Size()
	gt := src.GeoTransform()

	// crop window: the cutline's bounds in pixel coordinates
	b := mp.Bounds()
	x0 := clamp(int(math.Floor((b.Min(0)-gt.XOrigin)/gt.XPixel)), 0, width)
	x1 := clamp(int(math.Ceil((b.Max(0)-gt.XOrigin)/gt.XPixel)), 0, width)
	// YPixel is negative for north-up rasters, so max latitude gives the
	// top row
	y0 := clamp(int(math.Floor((b.Max(1)-gt.YOrigin)/gt.YPixel)), 0, height)
	y1 := clamp(int(math.Ceil((b.Min(1)-gt.YOrigin)/gt.YPixel)), 0, height)
	if x0 >= x1 || y0 >= y1 {
		return false, nil
	}

	w, h := x1-x0, y1-y0
	pixels := make([]byte, w*h)
	rowBuf := make([]byte, w)
	for r := 0; r < h; r++ {
		if err := src.ReadBlock(x0, y0+r, w, 1, rowBuf); err != nil {
			return false, err
		}
		lat := gt.YOrigin + (float64(y0+r)+0.5)*gt.YPixel
		for c := 0; c < w; c++ {
			lon := gt.XOrigin + (float64(x0+c)+0.5)*gt.XPixel
			inside := contains(mp, lon, lat)
			if !inside && allTouched {
				inside = touches(mp, gt, lon, lat)
			}
			if inside {
				pixels[r*w+c] = rowBuf[c]
			} else {
				pixels[r*w+c] = fill
			}
		}
	}

	clipGT := raster.GeoTransform{
		XOrigin: gt.XOrigin + float64(x0)*gt.XPixel,
		XPixel:  gt.XPixel,
		YOrigin: gt.YOrigin + float64(y0)*gt.YPixel,
		YPixel:  gt.YPixel,
	}
	// Write fully flushes and closes before returning, so the caller can
	// reopen the clip immediately.
	if err := raster.Write(outPath, w, h, clipGT, pixels, raster.WriteOptions{}); err != nil {
		return false, err
	}
	return true, nil
}

// contains reports whether the point lies inside the multipolygon:
// within some polygon's exterior ring and outside its holes.
func contains(mp *geom.MultiPolygon, lon, lat float64) bool {
	p := geom.Coord{lon, lat}
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		if poly.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(poly.Layout(), p, poly.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for r := 1; r < poly.NumLinearRings(); r++ {
			if xy.IsPointInRing(poly.Layout(), p, poly.LinearRing(r).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// touches reports whether the pixel centered at (lon, lat) is touched by
// the multipolygon, sampling the pixel's four corners and four edge
// midpoints. This approximates cutline-touched inclusion: a sliver that
// crosses the pixel between sample points is still missed.
func touches(mp *geom.MultiPolygon, gt raster.GeoTransform, lon, lat float64) bool {
	dx := gt.XPixel / 2
	dy := gt.YPixel / 2
	offsets := [8][2]float64{
		{-dx, -dy}, {-dx, dy}, {dx, -dy}, {dx, dy},
		{-dx, 0}, {dx, 0}, {0, -dy}, {0, dy},
	}
	for _, off := range offsets {
		if contains(mp, lon+off[0], lat+off[1]) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
