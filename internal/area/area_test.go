package area

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomatics-io/landstat/internal/raster"
)

// 1°×1° grid whose second row boundary is the equator.
var equatorGT = raster.GeoTransform{
	XOrigin: 0, XPixel: 1,
	YOrigin: 1, YPixel: -1,
}

func TestPixelKm2(t *testing.T) {
	tests := []struct {
		name     string
		gt       raster.GeoTransform
		row      int
		expected float64
	}{
		{
			name:     "one degree pixel centered at +0.5",
			gt:       equatorGT,
			row:      0,
			expected: 12308.619407067543,
		},
		{
			name:     "one degree pixel centered at -0.5",
			gt:       equatorGT,
			row:      1,
			expected: 12308.619407067543,
		},
		{
			name:     "mid latitude row",
			gt:       raster.GeoTransform{XOrigin: 0, XPixel: 1, YOrigin: 46, YPixel: -1},
			row:      0,
			expected: 8686.608341707673,
		},
		{
			name:     "mid latitude second row",
			gt:       raster.GeoTransform{XOrigin: 0, XPixel: 1, YOrigin: 46, YPixel: -1},
			row:      1,
			expected: 8837.48472720747,
		},
		{
			name:     "half degree pixel centered at +0.25",
			gt:       raster.GeoTransform{XOrigin: 0, XPixel: 0.5, YOrigin: 0.5, YPixel: -0.5},
			row:      0,
			expected: 3077.2403784752564,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, PixelKm2(tt.gt, tt.row), 1e-9)
		})
	}
}

func TestPixelKm2NorthSouthSymmetry(t *testing.T) {
	// rows mirrored about the equator cover equal area
	for row := 0; row < 10; row++ {
		gt := raster.GeoTransform{XOrigin: 0, XPixel: 1, YOrigin: 10, YPixel: -1}
		north := PixelKm2(gt, row)
		south := PixelKm2(gt, 19-row)
		assert.InDelta(t, north, south, 1e-9, "row %d vs %d", row, 19-row)
	}
}

func TestPixelKm2ShrinksTowardPoles(t *testing.T) {
	gt := raster.GeoTransform{XOrigin: 0, XPixel: 1, YOrigin: 90, YPixel: -1}
	prev := PixelKm2(gt, 89) // centered +0.5
	for row := 88; row >= 0; row-- {
		cur := PixelKm2(gt, row)
		assert.Less(t, prev, cur, "row %d should cover more area than the row poleward of it", row)
		prev = cur
	}
}

func TestGridMatchesPixelKm2(t *testing.T) {
	gt := raster.GeoTransform{XOrigin: -10, XPixel: 0.25, YOrigin: 52, YPixel: -0.25}
	grid := Grid(gt, 3, 4, 5)
	require.Len(t, grid, 4)
	for i, row := range grid {
		require.Len(t, row, 5)
		want := PixelKm2(gt, 3+i)
		for j, v := range row {
			assert.InDelta(t, want, v, 1e-12, "cell %d,%d", i, j)
		}
	}
}

func TestAreaAdditivityAcrossRowRanges(t *testing.T) {
	// summing over two adjacent row ranges equals summing the combined
	// range, whichever way the split falls
	gt := raster.GeoTransform{XOrigin: 0, XPixel: 0.5, YOrigin: 30, YPixel: -0.5}
	const rows, cols = 16, 3

	total := sumGrid(Grid(gt, 0, rows, cols))
	for split := 1; split < rows; split++ {
		a := sumGrid(Grid(gt, 0, split, cols))
		b := sumGrid(Grid(gt, split, rows-split, cols))
		assert.InDelta(t, total, a+b, 1e-9, "split at %d", split)
	}
}

func sumGrid(grid [][]float64) float64 {
	var sum float64
	for _, row := range grid {
		for _, v := range row {
			sum += v
		}
	}
	return sum
}
