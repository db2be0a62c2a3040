package models

import "fmt"

// Shape holds the extent of a volume along each of its three dimensions.
type Shape [3]int

// Voxels returns the number of samples in a volume of this shape.
func (s Shape) Voxels() int {
	return s[0] * s[1] * s[2]
}

// SliceShape returns the rows and columns of the slice seen by axis a.
func (s Shape) SliceShape(a Axis) (rows, cols int) {
	r, c := a.Dims()
	return s[r], s[c]
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%dx%d", s[0], s[1], s[2])
}

// Cursor is the shared position, one index per volume dimension, that every
// view is sliced and crosshaired at.
type Cursor [3]int

// CenterOf returns the cursor at the geometric center of a volume.
func CenterOf(s Shape) Cursor {
	return Cursor{s[0] / 2, s[1] / 2, s[2] / 2}
}

// Within reports whether every component lies inside the given shape.
func (c Cursor) Within(s Shape) bool {
	for d := range c {
		if c[d] < 0 || c[d] >= s[d] {
			return false
		}
	}
	return true
}

// Crosshair returns the two components that axis a draws as its crosshair,
// ordered as the slice rows and columns.
func (c Cursor) Crosshair(a Axis) (row, col int) {
	r, cl := a.Dims()
	return c[r], c[cl]
}

func (c Cursor) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c[0], c[1], c[2])
}
