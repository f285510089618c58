// Package raster reads and writes single-band 8-bit GeoTIFF rasters.
//
// Coverage is deliberately narrow: classification rasters on a linear
// geotransform, striped or tiled, uncompressed or Deflate. That is the
// entire population of inputs this tool consumes, and it keeps the
// package free of cgo GDAL bindings.
package raster

// GeoTransform is the affine mapping from pixel/line indices to
// geographic coordinates, in GDAL order.
type GeoTransform struct {
	XOrigin float64 // longitude of the top-left corner
	XPixel  float64 // pixel width in degrees
	XRot    float64
	YOrigin float64 // latitude of the top-left corner
	YRot    float64
	YPixel  float64 // pixel height in degrees, negative for north-up
}

// RGB is one color-table entry.
type RGB struct {
	R, G, B uint8
}

// Palette is an ordered raster color table indexed by pixel value.
type Palette []RGB

// CoverageStatus reports whether a block window is backed by data.
type CoverageStatus int

const (
	// CoverageData means at least one byte of pixel data backs the window.
	CoverageData CoverageStatus = iota
	// CoverageEmpty means the window lies entirely in sparse holes:
	// every intersecting strip or tile has a zero byte count.
	CoverageEmpty
)
