package classify

import "strconv"

// esaClasses is the fixed list of LCCS classes present in the ESA CCI
// land-cover rasters. The files are greyscale by construction: the grey
// value of each pixel is its LCCS class code, so no color table is
// involved.
var esaClasses = []int{
	10, 11, 12, 20, 30, 40, 50, 60, 61, 62, 70, 71, 72, 80, 81, 82, 90,
	100, 110, 120, 121, 122, 130, 140, 150, 151, 152, 153, 160, 170, 180,
	190, 200, 201, 202, 210, 220,
}

// ESALandCover classifies greyscale ESA CCI rasters where the raw value
// is the LCCS class code. Zero is no land cover (water) and unknown
// codes are no-data.
type ESALandCover struct {
	known   map[int]string
	columns []string
}

// NewESALandCover builds the direct greyscale lookup.
func NewESALandCover() *ESALandCover {
	lc := &ESALandCover{
		known:   make(map[int]string, len(esaClasses)),
		columns: make([]string, 0, len(esaClasses)),
	}
	for _, code := range esaClasses {
		key := strconv.Itoa(code)
		lc.known[code] = key
		lc.columns = append(lc.columns, key)
	}
	return lc
}

func (lc *ESALandCover) Classify(raw int) (string, bool) {
	if raw == 0 {
		return "", false
	}
	key, ok := lc.known[raw]
	return key, ok
}

func (lc *ESALandCover) Columns() []string {
	return lc.columns
}

// faoCover pairs one FAO land-cover code with its label. Order defines
// the output column order.
type faoCover struct {
	code  int
	label string
}

var faoCovers = []faoCover{
	{1, "Artificial Surfaces"},
	{2, "Cropland"},
	{3, "Grassland"},
	{4, "Tree Covered Areas"},
	{5, "Shrubs Covered Areas"},
	{6, "Herbaceous vegetation, aquatic or regularly flooded"},
	{7, "Mangroves"},
	{8, "Sparse vegetation"},
	{9, "Baresoil"},
	{10, "Snow and glaciers"},
	{11, "Waterbodies"},
}

// FAOLandCover classifies the FAO dominant land-cover raster through a
// fixed code table. Codes 0 and 255 are no-data.
type FAOLandCover struct {
	byCode  map[int]string
	columns []string
}

// NewFAOLandCover builds the coded-table lookup.
func NewFAOLandCover() *FAOLandCover {
	lc := &FAOLandCover{
		byCode:  make(map[int]string, len(faoCovers)),
		columns: make([]string, 0, len(faoCovers)),
	}
	for _, c := range faoCovers {
		lc.byCode[c.code] = c.label
		lc.columns = append(lc.columns, c.label)
	}
	return lc
}

func (lc *FAOLandCover) Classify(raw int) (string, bool) {
	if raw == 0 || raw == 255 {
		return "", false
	}
	label, ok := lc.byCode[raw]
	return label, ok
}

func (lc *FAOLandCover) Columns() []string {
	return lc.columns
}
