// Package window implements the brightness/contrast transform applied to
// normalized slice intensities.
package window

import "math"

const (
	// MinBrightness and MaxBrightness bound the additive term.
	MinBrightness = -1.0
	MaxBrightness = 1.0

	// MaxContrast bounds the multiplicative term. Contrast must stay above
	// zero.
	MaxContrast = 4.0

	DefaultBrightness = 0.0
	DefaultContrast   = 1.0
)

// Slider ranges of the presentation layer, in raw slider units.
const (
	BrightnessSliderMin = -100
	BrightnessSliderMax = 100
	ContrastSliderMin   = 1
	ContrastSliderMax   = 200
)

// Apply maps a normalized intensity to a display intensity:
// clamp(value*contrast + brightness, 0, 1).
func Apply(value, brightness, contrast float64) float64 {
	return clamp(value*contrast+brightness, 0, 1)
}

// Settings is a brightness/contrast pair.
type Settings struct {
	Brightness float64 `yaml:"brightness"`
	Contrast   float64 `yaml:"contrast"`
}

// Default returns the identity window.
func Default() Settings {
	return Settings{Brightness: DefaultBrightness, Contrast: DefaultContrast}
}

// Apply windows a single normalized value.
func (s Settings) Apply(value float64) float64 {
	return Apply(value, s.Brightness, s.Contrast)
}

// ApplyAll windows every value of data in place.
func (s Settings) ApplyAll(data []float64) {
	for i, v := range data {
		data[i] = Apply(v, s.Brightness, s.Contrast)
	}
}

// Normalize clamps both terms into their domains. A contrast that is not a
// positive number falls back to the default.
func (s Settings) Normalize() Settings {
	if math.IsNaN(s.Brightness) {
		s.Brightness = DefaultBrightness
	}
	s.Brightness = clamp(s.Brightness, MinBrightness, MaxBrightness)
	if math.IsNaN(s.Contrast) || s.Contrast <= 0 {
		s.Contrast = DefaultContrast
	}
	s.Contrast = math.Min(s.Contrast, MaxContrast)
	return s
}

// BrightnessFromSlider converts a brightness slider position into the
// additive term.
func BrightnessFromSlider(v int) float64 {
	v = clampInt(v, BrightnessSliderMin, BrightnessSliderMax)
	return float64(v) / 100.0
}

// ContrastFromSlider converts a contrast slider position into the
// multiplicative term. The lowest position maps to 0.02.
func ContrastFromSlider(v int) float64 {
	v = clampInt(v, ContrastSliderMin, ContrastSliderMax)
	return float64(v) / 50.0
}

// clamp sends NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
