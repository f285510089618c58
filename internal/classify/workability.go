package classify

import "strconv"

// Workability classifies the FAO soil-workability raster, whose pixels
// are already the workability class 1..7. Zero is no-data.
type Workability struct{}

// NewWorkability builds the lookup.
func NewWorkability() *Workability {
	return &Workability{}
}

func (w *Workability) Classify(raw int) (string, bool) {
	if raw < 1 || raw > 7 {
		return "", false
	}
	return strconv.Itoa(raw), true
}

func (w *Workability) Columns() []string {
	cols := make([]string, 0, 7)
	for i := 1; i <= 7; i++ {
		cols = append(cols, strconv.Itoa(i))
	}
	return cols
}
