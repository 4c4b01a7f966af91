package volume

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// StackOptions controls how a directory of 2D binary mask images is
// assembled into a 3D volume.
type StackOptions struct {
	// Invert flips voxel polarity (background <-> particle). By
	// default any pixel with nonzero intensity is foreground.
	Invert bool
}

// LoadMaskStack reads all mask images (PNG or JPEG) from a directory,
// sorts them by the numeric portion of their filenames to preserve
// slice order, and stacks them into a boolean volume with shape
// (Z=slices, Y=height, X=width).
//
// All slices must share the same dimensions. The slice order is
// critical: it preserves the spatial relationship between adjacent
// sections of the scanned sample.
func LoadMaskStack(dir string, opts StackOptions) (*Volume, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read mask directory: %w", err)
	}

	var maskFiles []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".png" || ext == ".jpg" || ext == ".jpeg" {
			maskFiles = append(maskFiles, e.Name())
		}
	}
	if len(maskFiles) == 0 {
		return nil, fmt.Errorf("no mask images found in %s", dir)
	}

	// Sort by the number embedded in the filename so slice_2 comes
	// before slice_10.
	sort.Slice(maskFiles, func(i, j int) bool {
		return extractNumber(maskFiles[i]) < extractNumber(maskFiles[j])
	})

	var vol *Volume
	for z, name := range maskFiles {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load mask %s: %w", name, err)
		}

		bounds := img.Bounds()
		w, h := bounds.Dx(), bounds.Dy()
		if vol == nil {
			vol = New(Dim{Z: len(maskFiles), Y: h, X: w})
		} else if w != vol.Dim.X || h != vol.Dim.Y {
			return nil, fmt.Errorf("inconsistent mask dimensions: %s is %dx%d, expected %dx%d",
				name, w, h, vol.Dim.X, vol.Dim.Y)
		}

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				fg := r|g|b != 0
				if opts.Invert {
					fg = !fg
				}
				vol.Set(z, y, x, fg)
			}
		}
	}

	return vol, nil
}

// extractNumber extracts the numeric part from a filename, used to
// establish slice ordering.
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}
	if numStr != "" {
		if num, err := strconv.Atoi(numStr); err == nil {
			return num
		}
	}
	return 0
}

// loadImage decodes a single mask image from a file.
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
