// Package output serializes aggregation matrices.
package output

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/geomatics-io/landstat/internal/aggregate"
)

// FormatConfig is the explicit numeric-display configuration for
// serialization; nothing here is process-global.
type FormatConfig struct {
	// Precision is the number of decimal places for km² cells.
	Precision int
}

// DefaultFormat matches the published dataset tables.
var DefaultFormat = FormatConfig{Precision: 2}

// WriteCSV writes the matrix as a delimited table: header row of
// "Country" plus the classification keys in lookup order, then one row
// per region in ascending region order.
func WriteCSV(path string, m *aggregate.Matrix, format FormatConfig) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "output: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	header := append([]string{"Country"}, m.Columns()...)
	if err := w.Write(header); err != nil {
		return eris.Wrapf(err, "output: write header %s", path)
	}

	record := make([]string, len(header))
	for _, region := range m.Regions() {
		record[0] = region
		for i, v := range m.Row(region) {
			record[i+1] = strconv.FormatFloat(v, 'f', format.Precision, 64)
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "output: write row %s", path)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "output: flush %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "output: close %s", path)
	}
	return nil
}
