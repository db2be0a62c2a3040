// Package loader reads a directory of 2D grayscale images into an ordered
// stack of slabs ready to be stacked into a volume.
package loader

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Slab is one decoded image of a stack.
type Slab struct {
	// Path is the file the slab was decoded from
	Path string

	// Key orders the slab within the stack. It is the last run of digits in
	// the file name, or the discovery index when the name has no digits.
	Key float64

	// HasKey reports whether Key came from the file name
	HasKey bool

	// Pixels holds intensities in [0, 1], one row per image row
	Pixels *mat.Dense
}

// extensions lists the image formats the loader decodes.
var extensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// LoadDir walks dir recursively, decodes every supported image and returns
// the slabs sorted by Key. Files are discovered in lexical path order. Slab
// shapes are not checked here.
func LoadDir(dir string) ([]Slab, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if extensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("no JPEG or PNG images found in %s", dir)
	}

	slabs := make([]Slab, 0, len(paths))
	for i, path := range paths {
		img, err := loadImage(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", path, err)
		}
		if img.Bounds().Empty() {
			return nil, fmt.Errorf("image %s has no pixels", path)
		}

		slab := Slab{Path: path, Key: float64(i), Pixels: ImageToDense(img)}
		if n, ok := extractNumber(path); ok {
			slab.Key = float64(n)
			slab.HasKey = true
		}
		slabs = append(slabs, slab)
	}

	Order(slabs)
	return slabs, nil
}

// Order sorts slabs by Key, keeping discovery order among equal keys.
func Order(slabs []Slab) {
	sort.SliceStable(slabs, func(i, j int) bool {
		return slabs[i].Key < slabs[j].Key
	})
}

// Matrices returns the pixel matrices of slabs in order.
func Matrices(slabs []Slab) []*mat.Dense {
	out := make([]*mat.Dense, len(slabs))
	for i, s := range slabs {
		out[i] = s.Pixels
	}
	return out
}

// ImageToDense converts an image to a matrix of 16-bit luminance scaled to
// [0, 1]. Colour images are reduced to gray with color.Gray16Model.
func ImageToDense(img image.Image) *mat.Dense {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	data := make([]float64, width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			data[y*width+x] = float64(g.Y) / 65535.0
		}
	}

	return mat.NewDense(height, width, data)
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}
	return img, nil
}

// extractNumber returns the last run of digits in the file name, so
// "s2_slice10.png" orders as 10.
func extractNumber(path string) (int, bool) {
	base := filepath.Base(path)
	end := strings.LastIndexFunc(base, isDigit)
	if end < 0 {
		return 0, false
	}
	start := strings.LastIndexFunc(base[:end], func(r rune) bool { return !isDigit(r) }) + 1

	num, err := strconv.Atoi(base[start : end+1])
	if err != nil {
		return 0, false
	}
	return num, true
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
