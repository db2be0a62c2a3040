// Package volume holds the voxel array a viewer slices through.
package volume

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"mprviewer/internal/models"
)

// ErrEmptyStack is returned when a store is built from no slabs, from a nil
// slab, or from slabs without pixels.
var ErrEmptyStack = errors.New("volume: empty slab stack")

// ShapeMismatchError reports a slab whose dimensions differ from the first
// slab of the stack.
type ShapeMismatchError struct {
	Index              int
	WantRows, WantCols int
	GotRows, GotCols   int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("volume: slab %d has shape %dx%d, expected %dx%d",
		e.Index, e.GotRows, e.GotCols, e.WantRows, e.WantCols)
}

// Store is an immutable 3D array of intensity samples. Dimension 0 indexes
// the slabs in stack order, dimensions 1 and 2 the rows and columns of
// each slab.
type Store struct {
	// data is the volume as a 1D array in row-major order
	data  []float64
	shape models.Shape
}

// NewStore stacks equally shaped slabs into a volume. The slabs must already
// be in their final order; they are copied, so later changes to them do not
// affect the store.
func NewStore(slabs []*mat.Dense) (*Store, error) {
	if len(slabs) == 0 || slabs[0] == nil {
		return nil, ErrEmptyStack
	}

	rows, cols := slabs[0].Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("slab 0 has shape %dx%d: %w", rows, cols, ErrEmptyStack)
	}
	for i, s := range slabs[1:] {
		if s == nil {
			return nil, fmt.Errorf("slab %d: %w", i+1, ErrEmptyStack)
		}
		if r, c := s.Dims(); r != rows || c != cols {
			return nil, &ShapeMismatchError{
				Index:    i + 1,
				WantRows: rows,
				WantCols: cols,
				GotRows:  r,
				GotCols:  c,
			}
		}
	}

	st := &Store{
		data:  make([]float64, len(slabs)*rows*cols),
		shape: models.Shape{len(slabs), rows, cols},
	}
	for i, s := range slabs {
		dst := mat.NewDense(rows, cols, st.data[i*rows*cols:(i+1)*rows*cols])
		dst.Copy(s)
	}
	return st, nil
}

// Shape returns the extent of the volume along each dimension.
func (s *Store) Shape() models.Shape {
	return s.shape
}

// Len returns the number of voxels.
func (s *Store) Len() int {
	return len(s.data)
}

// At returns the sample at (i, j, k).
func (s *Store) At(i, j, k int) float64 {
	return s.data[s.offset(i, j, k)]
}

func (s *Store) offset(i, j, k int) int {
	return i*s.shape[1]*s.shape[2] + j*s.shape[2] + k
}

// Section copies out the cross-section obtained by fixing dimension dim at
// index. The remaining two dimensions become rows and columns in their
// natural order.
func (s *Store) Section(dim, index int) (*mat.Dense, error) {
	if dim < 0 || dim > 2 {
		return nil, fmt.Errorf("volume: invalid dimension %d", dim)
	}
	if index < 0 || index >= s.shape[dim] {
		return nil, fmt.Errorf("volume: index %d out of range [0, %d) on dimension %d",
			index, s.shape[dim], dim)
	}

	d0, d1, d2 := s.shape[0], s.shape[1], s.shape[2]
	switch dim {
	case 0:
		out := make([]float64, d1*d2)
		copy(out, s.data[index*d1*d2:(index+1)*d1*d2])
		return mat.NewDense(d1, d2, out), nil
	case 1:
		out := make([]float64, d0*d2)
		for i := 0; i < d0; i++ {
			copy(out[i*d2:(i+1)*d2], s.data[s.offset(i, index, 0):s.offset(i, index, 0)+d2])
		}
		return mat.NewDense(d0, d2, out), nil
	default:
		out := make([]float64, d0*d1)
		for i := 0; i < d0; i++ {
			for j := 0; j < d1; j++ {
				out[i*d1+j] = s.data[s.offset(i, j, index)]
			}
		}
		return mat.NewDense(d0, d1, out), nil
	}
}
