package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geomatics-io/landstat/internal/aggregate"
)

func readBack(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteCSV(t *testing.T) {
	m := aggregate.NewMatrix([]string{"Af", "BWh"})
	m.Add("Peru", "Af", 1234.5678)
	m.Add("Chile", "BWh", 10)
	m.EnsureRegion("Greenland")

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(path, m, DefaultFormat))

	records := readBack(t, path)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"Country", "Af", "BWh"}, records[0])

	// regions ascending, zero cells written as zero
	assert.Equal(t, []string{"Chile", "0.00", "10.00"}, records[1])
	assert.Equal(t, []string{"Greenland", "0.00", "0.00"}, records[2])
	assert.Equal(t, []string{"Peru", "1234.57", "0.00"}, records[3])
}

func TestWriteCSVPrecision(t *testing.T) {
	m := aggregate.NewMatrix([]string{"A"})
	m.Add("Chile", "A", 1.23456789)

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(path, m, FormatConfig{Precision: 5}))

	records := readBack(t, path)
	assert.Equal(t, "1.23457", records[1][1])
}

func TestWriteCSVEmptyMatrix(t *testing.T) {
	m := aggregate.NewMatrix([]string{"A", "B"})
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(path, m, DefaultFormat))

	records := readBack(t, path)
	require.Len(t, records, 1)
	assert.Equal(t, []string{"Country", "A", "B"}, records[0])
}

func TestWriteCSVBadPath(t *testing.T) {
	m := aggregate.NewMatrix([]string{"A"})
	err := WriteCSV(filepath.Join(t.TempDir(), "missing", "out.csv"), m, DefaultFormat)
	assert.Error(t, err)
}
