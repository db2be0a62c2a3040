// Package mpr keeps three orthogonal views of a volume synchronized around a
// shared cursor.
//
// An Engine starts empty. Load installs a volume and centers the cursor;
// every later change to the cursor or to the brightness/contrast window
// returns a fresh set of three views rendered from one consistent snapshot.
package mpr

import (
	"errors"
	"io"
	"math"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"mprviewer/internal/models"
	"mprviewer/pkg/slicer"
	"mprviewer/pkg/volume"
	"mprviewer/pkg/window"
)

// ErrNotLoaded is returned when slices are requested before a volume has
// been loaded.
var ErrNotLoaded = errors.New("mpr: no volume loaded")

// Views holds the three slices rendered from a single snapshot of the
// engine state.
type Views struct {
	Cursor models.Cursor
	Window window.Settings
	Slices [3]models.SliceResult
}

// Slice returns the view for axis a, or a zero SliceResult when a is not a
// known axis.
func (v *Views) Slice(a models.Axis) models.SliceResult {
	if !a.Valid() {
		return models.SliceResult{}
	}
	return v.Slices[a]
}

// Engine owns the loaded volume, the cursor and the window settings.
type Engine struct {
	mu       sync.RWMutex
	store    *volume.Store
	cursor   models.Cursor
	window   window.Settings
	parallel bool
	logger   *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger routes engine events to l.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithParallel extracts the three views of an update concurrently.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.parallel = parallel
	}
}

// WithWindow sets the initial brightness/contrast.
func WithWindow(w window.Settings) Option {
	return func(e *Engine) {
		e.window = w.Normalize()
	}
}

// NewEngine creates an empty engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		window: window.Default(),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// snapshot is the state a set of views is rendered from.
type snapshot struct {
	store  *volume.Store
	cursor models.Cursor
	window window.Settings
}

// takeSnapshot must be called with e.mu held.
func (e *Engine) takeSnapshot() snapshot {
	return snapshot{store: e.store, cursor: e.cursor, window: e.window}
}

// Load replaces the current volume with one stacked from slabs and centers
// the cursor. On failure the engine keeps its previous state.
func (e *Engine) Load(slabs []*mat.Dense) (*Views, error) {
	store, err := volume.NewStore(slabs)
	if err != nil {
		e.logger.Error("Failed to load volume", "slabs", len(slabs), "error", err)
		return nil, err
	}

	e.mu.Lock()
	e.store = store
	e.cursor = models.CenterOf(store.Shape())
	snap := e.takeSnapshot()
	e.mu.Unlock()

	e.logger.Info("Loaded volume", "shape", store.Shape().String(), "cursor", snap.cursor.String())
	return e.render(snap)
}

// Loaded reports whether a volume is present.
func (e *Engine) Loaded() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store != nil
}

// Shape returns the shape of the loaded volume, or the zero shape.
func (e *Engine) Shape() models.Shape {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.store == nil {
		return models.Shape{}
	}
	return e.store.Shape()
}

// Cursor returns the current cursor.
func (e *Engine) Cursor() models.Cursor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursor
}

// Window returns the current brightness/contrast.
func (e *Engine) Window() window.Settings {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.window
}

// SetBrightness records a new additive window term, clamped to [-1, 1]. It
// returns the refreshed views, or nil when no volume is loaded or b is NaN.
func (e *Engine) SetBrightness(b float64) *Views {
	if math.IsNaN(b) {
		e.logger.Warn("Ignoring brightness", "value", b)
		return nil
	}
	return e.update(func() bool {
		e.window.Brightness = math.Max(window.MinBrightness, math.Min(window.MaxBrightness, b))
		e.logger.Debug("Brightness changed", "brightness", e.window.Brightness)
		return true
	})
}

// SetContrast records a new multiplicative window term, capped at 4.
// Values that are not positive are ignored. It returns the refreshed views,
// or nil when nothing is loaded or the value was ignored.
func (e *Engine) SetContrast(c float64) *Views {
	if math.IsNaN(c) || c <= 0 {
		e.logger.Warn("Ignoring contrast", "value", c)
		return nil
	}
	return e.update(func() bool {
		e.window.Contrast = math.Min(window.MaxContrast, c)
		e.logger.Debug("Contrast changed", "contrast", e.window.Contrast)
		return true
	})
}

// SetCursorFromSlider moves the cursor along the dimension fixed by axis.
// The value must lie in [0, D) for that dimension; anything else is ignored.
func (e *Engine) SetCursorFromSlider(axis models.Axis, value int) *Views {
	if !axis.Valid() {
		e.logger.Warn("Ignoring slider for unknown axis", "axis", int(axis))
		return nil
	}
	return e.update(func() bool {
		if e.store == nil {
			return false
		}
		dim := axis.Bound()
		if value < 0 || value >= e.store.Shape()[dim] {
			e.logger.Warn("Slider value out of range", "axis", axis.String(), "value", value,
				"size", e.store.Shape()[dim])
			return false
		}
		e.cursor[dim] = value
		return true
	})
}

// SetCursorFromClick moves the two cursor components shown on the view of
// axis to (row, col), given in that slice's index space. The component
// fixed by axis stays put. Clicks outside the slice are ignored.
func (e *Engine) SetCursorFromClick(axis models.Axis, row, col int) *Views {
	if !axis.Valid() {
		e.logger.Warn("Ignoring click on unknown axis", "axis", int(axis))
		return nil
	}
	return e.update(func() bool {
		if e.store == nil {
			return false
		}
		rows, cols := e.store.Shape().SliceShape(axis)
		if row < 0 || row >= rows || col < 0 || col >= cols {
			e.logger.Debug("Click outside slice", "axis", axis.String(), "row", row, "col", col)
			return false
		}
		rd, cd := axis.Dims()
		e.cursor[rd] = row
		e.cursor[cd] = col
		return true
	})
}

// GetSlice renders the current view of axis.
func (e *Engine) GetSlice(axis models.Axis) (models.SliceResult, error) {
	e.mu.RLock()
	snap := e.takeSnapshot()
	e.mu.RUnlock()

	if snap.store == nil {
		return models.SliceResult{}, ErrNotLoaded
	}
	return slicer.Extract(snap.store, snap.cursor, axis, snap.window)
}

// Views renders all three current views.
func (e *Engine) Views() (*Views, error) {
	e.mu.RLock()
	snap := e.takeSnapshot()
	e.mu.RUnlock()

	if snap.store == nil {
		return nil, ErrNotLoaded
	}
	return e.render(snap)
}

// update applies mutate under the write lock and, when it reports a change
// and a volume is loaded, renders the views from the state it left behind.
func (e *Engine) update(mutate func() bool) *Views {
	e.mu.Lock()
	changed := mutate()
	snap := e.takeSnapshot()
	e.mu.Unlock()

	if !changed || snap.store == nil {
		return nil
	}
	views, err := e.render(snap)
	if err != nil {
		// The snapshot was validated under the lock, so this means a bug.
		e.logger.Error("Failed to render views", "error", err)
		return nil
	}
	return views
}

func (e *Engine) render(snap snapshot) (*Views, error) {
	views := &Views{Cursor: snap.cursor, Window: snap.window}

	if !e.parallel {
		for _, axis := range models.Axes {
			res, err := slicer.Extract(snap.store, snap.cursor, axis, snap.window)
			if err != nil {
				return nil, err
			}
			views.Slices[axis] = res
		}
		return views, nil
	}

	var g errgroup.Group
	for _, axis := range models.Axes {
		axis := axis
		g.Go(func() error {
			res, err := slicer.Extract(snap.store, snap.cursor, axis, snap.window)
			if err != nil {
				return err
			}
			views.Slices[axis] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}
