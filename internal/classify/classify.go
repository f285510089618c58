// Package classify maps raw pixel values to dataset classification keys.
//
// Each dataset family encodes its classes differently: palette indices
// resolved through a color table, greyscale values that are the class
// code, indices into a fixed bucket list, or a small code table. All
// variants present the same two operations; raw values outside a
// variant's known domain are no-data, never an error.
package classify

// Lookup resolves raw pixel values for one dataset family.
type Lookup interface {
	// Classify maps a raw pixel value to its classification key.
	// ok is false for no-data pixels (masked, blank, or sentinel).
	Classify(raw int) (key string, ok bool)
	// Columns is the fixed, ordered universe of keys for this dataset,
	// used to preallocate matrix columns before scanning begins.
	Columns() []string
}
