package classify

import "github.com/geomatics-io/landstat/internal/raster"

// koppenColor pairs one legend color with its Köppen-Geiger class.
// Order defines the output column order.
type koppenColor struct {
	rgb   raster.RGB
	class string
}

// Köppen-Geiger legend colors, from the legend.txt shipped with the
// Beck et al. dataset (http://www.gloh2o.org/koppen/).
var koppenColors = []koppenColor{
	{raster.RGB{R: 0, G: 0, B: 255}, "Af"}, {raster.RGB{R: 0, G: 120, B: 255}, "Am"}, {raster.RGB{R: 70, G: 170, B: 250}, "Aw"},
	{raster.RGB{R: 255, G: 0, B: 0}, "BWh"}, {raster.RGB{R: 255, G: 150, B: 150}, "BWk"}, {raster.RGB{R: 245, G: 165, B: 0}, "BSh"},
	{raster.RGB{R: 255, G: 220, B: 100}, "BSk"},
	{raster.RGB{R: 255, G: 255, B: 0}, "Csa"}, {raster.RGB{R: 200, G: 200, B: 0}, "Csb"}, {raster.RGB{R: 150, G: 150, B: 0}, "Csc"},
	{raster.RGB{R: 150, G: 255, B: 150}, "Cwa"}, {raster.RGB{R: 100, G: 200, B: 100}, "Cwb"}, {raster.RGB{R: 50, G: 150, B: 50}, "Cwc"},
	{raster.RGB{R: 200, G: 255, B: 80}, "Cfa"}, {raster.RGB{R: 100, G: 255, B: 80}, "Cfb"}, {raster.RGB{R: 50, G: 200, B: 0}, "Cfc"},
	{raster.RGB{R: 255, G: 0, B: 255}, "Dsa"}, {raster.RGB{R: 200, G: 0, B: 200}, "Dsb"}, {raster.RGB{R: 150, G: 50, B: 150}, "Dsc"},
	{raster.RGB{R: 150, G: 100, B: 150}, "Dsd"}, {raster.RGB{R: 170, G: 175, B: 255}, "Dwa"}, {raster.RGB{R: 90, G: 120, B: 220}, "Dwb"},
	{raster.RGB{R: 75, G: 80, B: 180}, "Dwc"}, {raster.RGB{R: 50, G: 0, B: 135}, "Dwd"}, {raster.RGB{R: 0, G: 255, B: 255}, "Dfa"},
	{raster.RGB{R: 55, G: 200, B: 255}, "Dfb"}, {raster.RGB{R: 0, G: 125, B: 125}, "Dfc"}, {raster.RGB{R: 0, G: 70, B: 95}, "Dfd"},
	{raster.RGB{R: 178, G: 178, B: 178}, "ET"}, {raster.RGB{R: 102, G: 102, B: 102}, "EF"},
}

// KoppenGeiger classifies palette-indexed climate rasters: the raw value
// indexes the raster's color table, and the resolved color selects the
// class. Pure white and pure black entries are masked-off pixels.
type KoppenGeiger struct {
	palette raster.Palette
	byColor map[raster.RGB]string
	columns []string
}

// NewKoppenGeiger builds a lookup over the given raster color table.
func NewKoppenGeiger(palette raster.Palette) *KoppenGeiger {
	kg := &KoppenGeiger{
		palette: palette,
		byColor: make(map[raster.RGB]string, len(koppenColors)),
		columns: make([]string, 0, len(koppenColors)),
	}
	for _, c := range koppenColors {
		kg.byColor[c.rgb] = c.class
		kg.columns = append(kg.columns, c.class)
	}
	return kg
}

func (kg *KoppenGeiger) Classify(raw int) (string, bool) {
	if raw < 0 || raw >= len(kg.palette) {
		return "", false
	}
	rgb := kg.palette[raw]
	if rgb == (raster.RGB{R: 255, G: 255, B: 255}) || rgb == (raster.RGB{R: 0, G: 0, B: 0}) {
		// blank pixel, masked off
		return "", false
	}
	class, ok := kg.byColor[rgb]
	return class, ok
}

func (kg *KoppenGeiger) Columns() []string {
	return kg.columns
}
