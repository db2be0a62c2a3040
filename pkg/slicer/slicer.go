// Package slicer turns a cursor position into a display-ready orthogonal
// view of a volume.
package slicer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"mprviewer/internal/models"
	"mprviewer/pkg/volume"
	"mprviewer/pkg/window"
)

// Extract produces the view of axis through store at cursor.
//
// The cross-section is min-max normalized on its own range before the
// window is applied, so each view uses the full display range regardless
// of the intensities in the other two. A cross-section holding a single
// value normalizes to all zeros. NaN and infinite samples are left out of
// the range and statistics and display as 0.
//
// Extract only reads store and never retains data from it, so it may be
// called concurrently for different axes.
func Extract(store *volume.Store, cursor models.Cursor, axis models.Axis, w window.Settings) (models.SliceResult, error) {
	if !axis.Valid() {
		return models.SliceResult{}, fmt.Errorf("slicer: invalid axis %d", int(axis))
	}
	if !cursor.Within(store.Shape()) {
		return models.SliceResult{}, fmt.Errorf("slicer: cursor %v outside volume %v", cursor, store.Shape())
	}

	section, err := store.Section(axis.Bound(), cursor[axis.Bound()])
	if err != nil {
		return models.SliceResult{}, err
	}

	// Section hands back a fresh matrix, so the backing array can be
	// rewritten in place.
	raw := section.RawMatrix().Data
	stats := describe(raw)
	Normalize(raw, stats.Min, stats.Max)
	w.ApplyAll(raw)

	row, col := cursor.Crosshair(axis)
	return models.SliceResult{
		Axis:         axis,
		Position:     cursor[axis.Bound()],
		Data:         section,
		CrosshairRow: row,
		CrosshairCol: col,
		Raw:          stats,
	}, nil
}

// Normalize rescales data in place from [lo, hi] to [0, 1]. When hi equals
// lo every value becomes 0, as does every NaN or infinite value.
func Normalize(data []float64, lo, hi float64) {
	span := hi - lo
	for i, v := range data {
		if hi == lo || !isFinite(v) {
			data[i] = 0
			continue
		}
		data[i] = (v - lo) / span
	}
}

// describe summarizes the finite values of data. With none it returns zero
// stats.
func describe(data []float64) models.Stats {
	finite := data
	if floats.HasNaN(data) || hasInf(data) {
		finite = make([]float64, 0, len(data))
		for _, v := range data {
			if isFinite(v) {
				finite = append(finite, v)
			}
		}
	}
	if len(finite) == 0 {
		return models.Stats{}
	}

	mean, std := stat.MeanStdDev(finite, nil)
	if len(finite) < 2 {
		std = 0
	}
	return models.Stats{
		Min:    floats.Min(finite),
		Max:    floats.Max(finite),
		Mean:   mean,
		StdDev: std,
	}
}

func hasInf(data []float64) bool {
	for _, v := range data {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
