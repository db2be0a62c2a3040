package models

import (
	"fmt"
	"strings"
)

// Axis identifies one of the three orthogonal views through a volume.
type Axis int

const (
	Sagittal Axis = iota
	Coronal
	Transverse
)

// Axes lists every view in display order.
var Axes = [...]Axis{Sagittal, Coronal, Transverse}

// axisLayout binds a view to the volume dimension it fixes and to the two
// dimensions that become the rows and columns of its slice.
type axisLayout struct {
	name  string
	bound int
	row   int
	col   int
}

var axisTable = [...]axisLayout{
	Sagittal:   {name: "sagittal", bound: 0, row: 1, col: 2},
	Coronal:    {name: "coronal", bound: 1, row: 0, col: 2},
	Transverse: {name: "transverse", bound: 2, row: 0, col: 1},
}

// Valid reports whether a is one of the three known views.
func (a Axis) Valid() bool {
	return a >= Sagittal && a <= Transverse
}

// Bound returns the volume dimension held fixed by this view.
func (a Axis) Bound() int {
	return axisTable[a].bound
}

// Dims returns the volume dimensions used as the slice rows and columns.
func (a Axis) Dims() (row, col int) {
	l := axisTable[a]
	return l.row, l.col
}

func (a Axis) String() string {
	if !a.Valid() {
		return fmt.Sprintf("Axis(%d)", int(a))
	}
	return axisTable[a].name
}

// ParseAxis converts a view name into an Axis. Besides the full names it
// accepts "axial" for the transverse view, the dimension numbers "0", "1",
// "2" and the single letters "x", "y", "z".
func ParseAxis(name string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sagittal", "sag", "0", "x":
		return Sagittal, nil
	case "coronal", "cor", "1", "y":
		return Coronal, nil
	case "transverse", "axial", "tra", "2", "z":
		return Transverse, nil
	default:
		return 0, fmt.Errorf("invalid axis: %q (must be sagittal, coronal or transverse)", name)
	}
}
