// Package visualization writes rendered views to image files.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"mprviewer/internal/models"
	"mprviewer/pkg/config"
	"mprviewer/pkg/mpr"
)

// crosshairColor is blended over the slice at half opacity.
var crosshairColor = color.RGBA{R: 255, A: 255}

// Exporter saves slices in a fixed format.
type Exporter struct {
	// Format is config.FormatJPEG or config.FormatPNG
	Format string

	// Quality is the JPEG quality
	Quality int

	// Crosshair draws the cursor lines over each slice
	Crosshair bool
}

// NewExporter creates an exporter from the export section of cfg.
func NewExporter(cfg *config.Config) *Exporter {
	return &Exporter{
		Format:    cfg.Export.Format,
		Quality:   cfg.Export.Quality,
		Crosshair: cfg.Export.Crosshair,
	}
}

// Ext returns the file extension matching the exporter's format.
func (x *Exporter) Ext() string {
	if x.Format == config.FormatJPEG {
		return ".jpg"
	}
	return ".png"
}

// Image converts a slice into an image, one pixel per sample. Row r of the
// slice becomes image row r.
func (x *Exporter) Image(res models.SliceResult) image.Image {
	rows, cols := res.Dims()
	gray := image.NewGray16(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			gray.SetGray16(c, r, color.Gray16{Y: toGray16(res.Data.At(r, c))})
		}
	}
	if !x.Crosshair {
		return gray
	}

	img := image.NewRGBA(gray.Bounds())
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g := gray.Gray16At(c, r)
			if r == res.CrosshairRow || c == res.CrosshairCol {
				img.Set(c, r, blend(g, crosshairColor))
				continue
			}
			img.Set(c, r, g)
		}
	}
	return img
}

// SaveSlice writes one slice to filename.
func (x *Exporter) SaveSlice(res models.SliceResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	img := x.Image(res)
	if x.Format == config.FormatJPEG {
		return jpeg.Encode(file, img, &jpeg.Options{Quality: x.Quality})
	}
	return png.Encode(file, img)
}

// SaveViews writes the three views into outputDir, one file per axis named
// after it, and returns the paths written.
func (x *Exporter) SaveViews(views *mpr.Views, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(models.Axes))
	for _, axis := range models.Axes {
		filename := filepath.Join(outputDir, axis.String()+x.Ext())
		if err := x.SaveSlice(views.Slice(axis), filename); err != nil {
			return paths, fmt.Errorf("failed to save %s view: %w", axis, err)
		}
		paths = append(paths, filename)
	}
	return paths, nil
}

// SaveSliceSequence steps the engine's slider for axis through every
// position and saves the view of axis at each one. The cursor is moved back
// to where it started afterwards.
func (x *Exporter) SaveSliceSequence(engine *mpr.Engine, axis models.Axis, outputDir string) error {
	if !axis.Valid() {
		return fmt.Errorf("invalid axis: %v", axis)
	}
	if !engine.Loaded() {
		return mpr.ErrNotLoaded
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	start := engine.Cursor()[axis.Bound()]
	defer engine.SetCursorFromSlider(axis, start)

	maxPos := engine.Shape()[axis.Bound()]
	for pos := 0; pos < maxPos; pos++ {
		views := engine.SetCursorFromSlider(axis, pos)
		if views == nil {
			return fmt.Errorf("slider rejected position %d on %s axis", pos, axis)
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d%s", axis, pos, x.Ext()))
		if err := x.SaveSlice(views.Slice(axis), filename); err != nil {
			return err
		}
	}

	return nil
}

func toGray16(v float64) uint16 {
	return uint16(math.Round(math.Max(0, math.Min(1, v)) * 65535))
}

func blend(g color.Gray16, over color.RGBA) color.RGBA64 {
	mix := func(base uint16, top uint8) uint16 {
		return uint16((uint32(base) + uint32(top)*0x101) / 2)
	}
	return color.RGBA64{
		R: mix(g.Y, over.R),
		G: mix(g.Y, over.G),
		B: mix(g.Y, over.B),
		A: 0xffff,
	}
}
