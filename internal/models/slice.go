package models

import (
	"gonum.org/v1/gonum/mat"
)

// Stats summarizes the raw intensities of an extracted cross-section before
// normalization.
type Stats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
}

// Flat reports whether the cross-section holds a single repeated value, in
// which case its display intensities are all zero.
func (s Stats) Flat() bool {
	return s.Max == s.Min
}

// SliceResult is one display-ready view through the volume.
type SliceResult struct {
	// Axis is the view this slice belongs to
	Axis Axis

	// Position is the cursor index on the dimension fixed by Axis
	Position int

	// Data holds display intensities in [0, 1], one row per index of the
	// first remaining dimension
	Data *mat.Dense

	// CrosshairRow and CrosshairCol locate where the other two views
	// intersect this one
	CrosshairRow int
	CrosshairCol int

	// Raw describes the intensities before windowing
	Raw Stats
}

// Dims returns the rows and columns of the slice.
func (r SliceResult) Dims() (rows, cols int) {
	if r.Data == nil {
		return 0, 0
	}
	return r.Data.Dims()
}
