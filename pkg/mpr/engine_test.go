package mpr

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"mprviewer/internal/models"
	"mprviewer/pkg/volume"
	"mprviewer/pkg/window"
)

func rampSlabs(d0, d1, d2 int) []*mat.Dense {
	slabs := make([]*mat.Dense, d0)
	for i := range slabs {
		s := mat.NewDense(d1, d2, nil)
		for j := 0; j < d1; j++ {
			for k := 0; k < d2; k++ {
				s.Set(j, k, float64(i+j+k))
			}
		}
		slabs[i] = s
	}
	return slabs
}

func loadedEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e := NewEngine(opts...)
	views, err := e.Load(rampSlabs(4, 5, 6))
	require.NoError(t, err)
	require.NotNil(t, views)
	return e
}

func TestEmptyEngine(t *testing.T) {
	e := NewEngine()

	assert.False(t, e.Loaded())
	assert.Equal(t, models.Shape{}, e.Shape())

	_, err := e.GetSlice(models.Sagittal)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = e.Views()
	assert.ErrorIs(t, err, ErrNotLoaded)

	assert.Nil(t, e.SetCursorFromSlider(models.Coronal, 1))
	assert.Nil(t, e.SetCursorFromClick(models.Coronal, 1, 1))
	assert.Equal(t, models.Cursor{}, e.Cursor())
}

func TestWindowRecordedBeforeLoad(t *testing.T) {
	e := NewEngine()

	assert.Nil(t, e.SetBrightness(0.2))
	assert.Nil(t, e.SetContrast(1.5))
	assert.Equal(t, window.Settings{Brightness: 0.2, Contrast: 1.5}, e.Window())

	views, err := e.Load(rampSlabs(4, 5, 6))
	require.NoError(t, err)
	assert.Equal(t, window.Settings{Brightness: 0.2, Contrast: 1.5}, views.Window)

	// normalized 4/7 at the transverse center
	want := window.Apply(4.0/7.0, 0.2, 1.5)
	assert.InDelta(t, want, views.Slice(models.Transverse).Data.At(2, 2), 1e-12)
}

func TestLoadCentersCursor(t *testing.T) {
	e := NewEngine()
	views, err := e.Load(rampSlabs(4, 5, 6))
	require.NoError(t, err)

	assert.True(t, e.Loaded())
	assert.Equal(t, models.Shape{4, 5, 6}, e.Shape())
	assert.Equal(t, models.Cursor{2, 2, 3}, e.Cursor())
	assert.Equal(t, models.Cursor{2, 2, 3}, views.Cursor)

	tra := views.Slice(models.Transverse)
	rows, cols := tra.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 5, cols)
	assert.InDelta(t, 4.0/7.0, tra.Data.At(2, 2), 1e-12)

	// reloading a smaller volume recenters
	_, err = e.Load(rampSlabs(3, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, models.Cursor{1, 1, 1}, e.Cursor())
}

func TestLoadShapeMismatchKeepsState(t *testing.T) {
	e := NewEngine()
	views, err := e.Load([]*mat.Dense{mat.NewDense(10, 10, nil), mat.NewDense(10, 12, nil)})
	assert.Nil(t, views)

	var mismatch *volume.ShapeMismatchError
	assert.True(t, errors.As(err, &mismatch))
	assert.False(t, e.Loaded())

	loaded := loadedEngine(t)
	_, err = loaded.Load([]*mat.Dense{mat.NewDense(2, 2, nil), mat.NewDense(3, 2, nil)})
	require.Error(t, err)
	assert.Equal(t, models.Shape{4, 5, 6}, loaded.Shape())
	assert.Equal(t, models.Cursor{2, 2, 3}, loaded.Cursor())
}

func TestLoadZeroSizedSlabKeepsEngineEmpty(t *testing.T) {
	e := NewEngine()

	views, err := e.Load([]*mat.Dense{{}})
	assert.Nil(t, views)
	assert.ErrorIs(t, err, volume.ErrEmptyStack)
	assert.False(t, e.Loaded())

	_, err = e.GetSlice(models.Coronal)
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestGetSliceShapes(t *testing.T) {
	e := loadedEngine(t)
	for _, axis := range models.Axes {
		res, err := e.GetSlice(axis)
		require.NoError(t, err)

		wantRows, wantCols := e.Shape().SliceShape(axis)
		rows, cols := res.Dims()
		assert.Equal(t, wantRows, rows)
		assert.Equal(t, wantCols, cols)
	}
}

func TestGetSliceIdempotent(t *testing.T) {
	e := loadedEngine(t)
	e.SetBrightness(-0.1)

	first, err := e.GetSlice(models.Sagittal)
	require.NoError(t, err)
	second, err := e.GetSlice(models.Sagittal)
	require.NoError(t, err)

	assert.True(t, mat.Equal(first.Data, second.Data))
}

func TestSetCursorFromSlider(t *testing.T) {
	e := loadedEngine(t)

	views := e.SetCursorFromSlider(models.Coronal, 4)
	require.NotNil(t, views)
	assert.Equal(t, models.Cursor{2, 4, 3}, e.Cursor())
	assert.Equal(t, 4, views.Slice(models.Coronal).Position)

	// every view is refreshed, not only the coronal one
	assert.Equal(t, 4, views.Slice(models.Sagittal).CrosshairRow)
	assert.Equal(t, 4, views.Slice(models.Transverse).CrosshairCol)

	assert.Nil(t, e.SetCursorFromSlider(models.Transverse, 6))
	assert.Nil(t, e.SetCursorFromSlider(models.Sagittal, -1))
	assert.Nil(t, e.SetCursorFromSlider(models.Axis(9), 0))
	assert.Equal(t, models.Cursor{2, 4, 3}, e.Cursor())
}

func TestSetCursorFromClick(t *testing.T) {
	testCases := []struct {
		axis     models.Axis
		row, col int
		expected models.Cursor
	}{
		{models.Sagittal, 1, 5, models.Cursor{2, 1, 5}},
		{models.Coronal, 3, 0, models.Cursor{3, 2, 0}},
		{models.Transverse, 0, 4, models.Cursor{0, 4, 3}},
	}

	for _, tc := range testCases {
		t.Run(tc.axis.String(), func(t *testing.T) {
			e := loadedEngine(t)
			views := e.SetCursorFromClick(tc.axis, tc.row, tc.col)
			require.NotNil(t, views)
			assert.Equal(t, tc.expected, e.Cursor())
			assert.Equal(t, tc.expected, views.Cursor)

			clicked := views.Slice(tc.axis)
			assert.Equal(t, tc.row, clicked.CrosshairRow)
			assert.Equal(t, tc.col, clicked.CrosshairCol)
		})
	}
}

func TestSetCursorFromClickRejectsOutOfBounds(t *testing.T) {
	e := loadedEngine(t)
	before := e.Cursor()

	// transverse slices are 4x5
	for _, click := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 5}, {100, 100}} {
		assert.Nil(t, e.SetCursorFromClick(models.Transverse, click[0], click[1]))
		assert.Equal(t, before, e.Cursor())
	}
}

func TestSetBrightnessAndContrast(t *testing.T) {
	e := loadedEngine(t)

	views := e.SetBrightness(0.2)
	require.NotNil(t, views)
	views = e.SetContrast(1.5)
	require.NotNil(t, views)
	assert.Equal(t, window.Settings{Brightness: 0.2, Contrast: 1.5}, views.Window)

	for _, axis := range models.Axes {
		for _, v := range views.Slice(axis).Data.RawMatrix().Data {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}

	e.SetBrightness(7)
	e.SetContrast(12)
	assert.Equal(t, window.Settings{Brightness: 1, Contrast: 4}, e.Window())

	assert.Nil(t, e.SetContrast(0))
	assert.Nil(t, e.SetContrast(-2))
	assert.Equal(t, 4.0, e.Window().Contrast)
}

func TestViewsSliceUnknownAxis(t *testing.T) {
	e := loadedEngine(t)
	views, err := e.Views()
	require.NoError(t, err)

	for _, axis := range []models.Axis{models.Axis(-1), models.Axis(3)} {
		res := views.Slice(axis)
		assert.Nil(t, res.Data)
		rows, cols := res.Dims()
		assert.Zero(t, rows)
		assert.Zero(t, cols)
	}
	assert.NotNil(t, views.Slice(models.Transverse).Data)
}

func TestParallelMatchesSequential(t *testing.T) {
	seq := loadedEngine(t)
	par := loadedEngine(t, WithParallel(true))

	for _, e := range []*Engine{seq, par} {
		e.SetCursorFromClick(models.Sagittal, 1, 2)
		e.SetBrightness(0.1)
	}

	a, err := seq.Views()
	require.NoError(t, err)
	b, err := par.Views()
	require.NoError(t, err)

	assert.Equal(t, a.Cursor, b.Cursor)
	for _, axis := range models.Axes {
		assert.True(t, mat.Equal(a.Slice(axis).Data, b.Slice(axis).Data), "%v", axis)
	}
}

// TestConcurrentUpdatesStayConsistent checks that every returned set of
// views agrees with its own cursor, whatever else runs at the same time.
func TestConcurrentUpdatesStayConsistent(t *testing.T) {
	e := loadedEngine(t, WithParallel(true))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				var views *Views
				switch i % 3 {
				case 0:
					views = e.SetCursorFromSlider(models.Sagittal, (i+w)%4)
				case 1:
					views = e.SetCursorFromClick(models.Transverse, (i+w)%4, (i*w)%5)
				default:
					views = e.SetBrightness(float64(i%10) / 20)
				}
				if views == nil {
					continue
				}
				for _, axis := range models.Axes {
					s := views.Slice(axis)
					row, col := views.Cursor.Crosshair(axis)
					if s.Position != views.Cursor[axis.Bound()] || s.CrosshairRow != row || s.CrosshairCol != col {
						t.Errorf("view %v does not match cursor %v", axis, views.Cursor)
					}
				}
			}
		}(w)
	}
	wg.Wait()
}

func TestEngineLogsRejections(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf)
	logger.SetLevel(log.DebugLevel)

	e := loadedEngine(t, WithLogger(logger))
	e.SetCursorFromSlider(models.Coronal, 99)

	assert.Contains(t, buf.String(), "Slider value out of range")
}

func TestWithWindowNormalizes(t *testing.T) {
	e := NewEngine(WithWindow(window.Settings{Brightness: -5, Contrast: 0}))
	assert.Equal(t, window.Settings{Brightness: -1, Contrast: 1}, e.Window())
}
