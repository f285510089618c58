package classify

// gaezSlopes are the GAEZ 3.0 terrain-slope buckets. The geomorpho90m
// slope raster is pre-classified so the raw value indexes this list.
var gaezSlopes = []string{
	"0-0.5%", "0.5-2%", "2-5%", "5-8%", "8-16%", "16-30%", "30-45%", ">45%",
}

// Slope classifies the pre-bucketed slope raster. 255 is the no-data
// sentinel; values past the bucket list are no-data as well.
type Slope struct{}

// NewSlope builds the enumerated-bucket lookup.
func NewSlope() *Slope {
	return &Slope{}
}

func (s *Slope) Classify(raw int) (string, bool) {
	if raw < 0 || raw >= len(gaezSlopes) {
		return "", false
	}
	return gaezSlopes[raw], true
}

func (s *Slope) Columns() []string {
	return append([]string(nil), gaezSlopes...)
}
