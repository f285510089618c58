// Package aggregate turns classified rasters into per-region area
// totals. It holds the region × class accumulation matrix and the two
// scanning strategies: per-region vector clipping and mask-driven block
// scanning.
package aggregate

import "sort"

// Matrix accumulates geodetic area (km²) per region and classification
// key. Columns are fixed at construction; rows appear the first time a
// region receives area. Accumulation is add-only, so totals are
// independent of pixel, row, and block visit order up to float summation
// error.
type Matrix struct {
	columns []string
	colIdx  map[string]int
	rows    map[string][]float64
}

// NewMatrix creates an empty matrix with the given column universe.
func NewMatrix(columns []string) *Matrix {
	m := &Matrix{
		columns: append([]string(nil), columns...),
		colIdx:  make(map[string]int, len(columns)),
		rows:    make(map[string][]float64),
	}
	for i, c := range m.columns {
		m.colIdx[c] = i
	}
	return m
}

// EnsureRegion creates the region's zero-filled row if it does not
// exist. Idempotent.
func (m *Matrix) EnsureRegion(region string) {
	if _, ok := m.rows[region]; !ok {
		m.rows[region] = make([]float64, len(m.columns))
	}
}

// Add accumulates km² into the region/key cell. Keys outside the column
// universe are ignored; classification lookups never produce them for
// well-formed rasters.
func (m *Matrix) Add(region, key string, km2 float64) {
	i, ok := m.colIdx[key]
	if !ok {
		return
	}
	m.EnsureRegion(region)
	m.rows[region][i] += km2
}

// Merge adds every cell of other into m. Both matrices must share a
// column universe.
func (m *Matrix) Merge(other *Matrix) {
	for region, row := range other.rows {
		m.EnsureRegion(region)
		dst := m.rows[region]
		for i, v := range row {
			dst[i] += v
		}
	}
}

// Columns returns the column keys in lookup-defined order.
func (m *Matrix) Columns() []string {
	return m.columns
}

// Regions returns all region names in ascending order.
func (m *Matrix) Regions() []string {
	regions := make([]string, 0, len(m.rows))
	for r := range m.rows {
		regions = append(regions, r)
	}
	sort.Strings(regions)
	return regions
}

// Row returns the region's accumulated values in column order, or nil if
// the region has no row.
func (m *Matrix) Row(region string) []float64 {
	row, ok := m.rows[region]
	if !ok {
		return nil
	}
	return append([]float64(nil), row...)
}

// Value returns one cell, zero if the row or column does not exist.
func (m *Matrix) Value(region, key string) float64 {
	i, ok := m.colIdx[key]
	if !ok {
		return 0
	}
	row, ok := m.rows[region]
	if !ok {
		return 0
	}
	return row[i]
}
