package aggregate

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geomatics-io/landstat/internal/area"
	"github.com/geomatics-io/landstat/internal/classify"
	"github.com/geomatics-io/landstat/internal/raster"
	"github.com/geomatics-io/landstat/internal/region"
)

// MaskOptions configure the mask-block scan.
type MaskOptions struct {
	// MasksDir holds one boolean mask raster per feature, named
	// {SOV_A3}_{featureIndex}_1km_mask.tif, aligned to the source grid.
	MasksDir string
	// Fill is the value masked-off pixels are recoded to before
	// classification. A fill the lookup classifies as data is replaced
	// with a no-data value.
	Fill byte
	// Workers bounds concurrent feature scans; each worker opens its own
	// raster handles and fills a private partial matrix.
	Workers int
}

// MaskAggregator scans very large rasters using precomputed per-region
// binary masks instead of vector clipping. It walks the source raster in
// its native block tiling and skips blocks whose mask carries no data,
// which bounds I/O when a region covers a small fraction of the grid.
type MaskAggregator struct {
	sourcePath string
	lookup     classify.Lookup
	names      region.Normalizer
	opts       MaskOptions
}

// NewMaskAggregator builds a mask-block aggregator over the source
// raster.
func NewMaskAggregator(sourcePath string, lookup classify.Lookup, names region.Normalizer, opts MaskOptions) *MaskAggregator {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	opts.Fill = nodataFill(lookup, opts.Fill)
	return &MaskAggregator{sourcePath: sourcePath, lookup: lookup, names: names, opts: opts}
}

// Run aggregates every boundary feature into a region × class matrix.
// Unresolved names are skipped; a missing mask or unopenable raster is
// fatal for the dataset run.
func (a *MaskAggregator) Run(ctx context.Context, features []region.Feature) (*Matrix, error) {
	src, err := raster.Open(a.sourcePath)
	if err != nil {
		return nil, err
	}
	src.Close()

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
			if err := a.scanFeature(gctx, f, partial, log); err != nil {
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

// scanFeature walks one feature's mask in the source raster's native
// block tiling.
func (a *MaskAggregator) scanFeature(ctx context.Context, f region.Feature, partial *Matrix, log *zap.Logger) error {
	admin, ok := a.names.Lookup(f.Admin)
	if !ok {
		log.Info("skipping unresolved admin name",
			zap.String("admin", f.Admin),
			zap.String("feature", featureTag(f)),
		)
		return nil
	}

	src, err := raster.Open(a.sourcePath)
	if err != nil {
		return err
	}
	defer src.Close()

	maskPath := filepath.Join(a.opts.MasksDir, fmt.Sprintf("%s_1km_mask.tif", featureTag(f)))
	mask, err := raster.Open(maskPath)
	if err != nil {
		// without the mask there is no way to bound the scan
		return eris.Wrapf(err, "aggregate: mask for feature %s", featureTag(f))
	}
	defer mask.Close()

	log.Info("processing feature",
		zap.String("admin", admin),
		zap.String("feature", featureTag(f)),
	)
	partial.EnsureRegion(admin)

	width, height := src.Size()
	gt := src.GeoTransform()
	blockW, blockH := src.BlockSize()

	srcBuf := make([]byte, blockW*blockH)
	maskBuf := make([]byte, blockW*blockH)

	for y := 0; y < height; y += blockH {
		if err := ctx.Err(); err != nil {
			return err
		}
		nrows := blockLimit(y, blockH, height)
		for x := 0; x < width; x += blockW {
			ncols := blockLimit(x, blockW, width)

			// sparse hole in the mask: nothing of this region here,
			// skip without reading either raster
			if mask.Coverage(x, y, ncols, nrows) == raster.CoverageEmpty {
				continue
			}

			if err := src.ReadBlock(x, y, ncols, nrows, srcBuf); err != nil {
				return err
			}
			if err := mask.ReadBlock(x, y, ncols, nrows, maskBuf); err != nil {
				return err
			}

			grid := area.Grid(gt, y, nrows, ncols)

			// per distinct raw value, the summed area of its pixels;
			// masked-off pixels are recoded to the no-data fill first
			var sums [256]float64
			for r := 0; r < nrows; r++ {
				for c := 0; c < ncols; c++ {
					v := srcBuf[r*ncols+c]
					if maskBuf[r*ncols+c] == 0 {
						v = a.opts.Fill
					}
					sums[v] += grid[r][c]
				}
			}
			for v, km2 := range sums {
				if km2 == 0 {
					continue
				}
				key, ok := a.lookup.Classify(v)
				if !ok {
					continue
				}
				partial.Add(admin, key, km2)
			}
		}
	}
	return nil
}

// blockLimit returns the usable block extent at coord: the nominal block
// size, or whatever remains at the raster's edge.
func blockLimit(coord, blockSize, total int) int {
	if coord+blockSize < total {
		return blockSize
	}
	return total - coord
}
