// Package area computes the geodetic surface area covered by raster
// pixels on the WGS84 ellipsoid. Pixel extents are constant in degrees,
// so physical area varies with latitude only: every pixel in a row
// covers the same number of square kilometers.
package area

import (
	"math"

	"github.com/geomatics-io/landstat/internal/raster"
)

// WGS84 ellipsoid constants.
const (
	equatorialRadiusKm = 6378.137
	eccentricitySq     = 0.00669437999014
)

// PixelKm2 returns the area in km² of one pixel in the given row. The
// row's center latitude is the raster's top latitude stepped down by
// whole pixel heights, minus half a pixel height.
func PixelKm2(gt raster.GeoTransform, row int) float64 {
	yRad := toRadians(math.Abs(gt.YPixel))
	y := toRadians(gt.YOrigin+float64(row)*gt.YPixel) - yRad/2
	return rowKm2(gt, y)
}

// Grid returns a rows×cols grid of per-pixel areas for the block of rows
// starting at yOff, for masking against a same-shape pixel block. Values
// are constant along each row.
func Grid(gt raster.GeoTransform, yOff, rows, cols int) [][]float64 {
	grid := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		km2 := PixelKm2(gt, yOff+i)
		grid[i] = make([]float64, cols)
		for j := range grid[i] {
			grid[i][j] = km2
		}
	}
	return grid
}

// rowKm2 computes one pixel's area for a row whose center latitude is y
// radians.
func rowKm2(gt raster.GeoTransform, y float64) float64 {
	// length of a degree of longitude at latitude y, scaled by the
	// pixel width: cos(y)·π·a / (180·sqrt(1 − e²·sin²(y)))
	sinY := math.Sin(y)
	xlen := math.Abs(gt.XPixel) * (math.Cos(y) * math.Pi * equatorialRadiusKm /
		(180 * math.Sqrt(1-eccentricitySq*sinY*sinY)))
	// length of a degree of latitude at y, truncated series
	ylen := math.Abs(gt.YPixel) * (111.132954 -
		0.559822*math.Cos(2*y) +
		0.001175*math.Cos(4*y))
	return xlen * ylen
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
