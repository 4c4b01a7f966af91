// Package visualization renders labeled particle volumes as 2D slice
// images for inspection, assigning each particle id a stable distinct
// color. It consumes the optimizer's output and never influences it.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"ctparticles/pkg/volume"
)

// Viewer extracts and saves colorized 2D slices of a label volume.
type Viewer struct {
	labels *volume.LabelVolume
}

// NewViewer creates a viewer over the given label volume.
func NewViewer(labels *volume.LabelVolume) *Viewer {
	return &Viewer{labels: labels}
}

// labelColor maps a particle id to a stable, visually distinct color.
// Background maps to black.
func labelColor(id int32) color.RGBA {
	if id == 0 {
		return color.RGBA{A: 255}
	}
	// Multiplicative hashing spreads consecutive ids across hue space.
	h := uint32(id) * 2654435761
	return color.RGBA{
		R: uint8(h>>16)/2 + 96,
		G: uint8(h>>8)/2 + 96,
		B: uint8(h)/2 + 96,
		A: 255,
	}
}

// ExtractSlice extracts a colorized 2D slice from the label volume
// along the specified axis ("x", "y" or "z") at the given position.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}
	dim := v.labels.Dim

	switch axis {
	case "x", "X":
		if position >= dim.X {
			return nil, fmt.Errorf("position %d exceeds width %d", position, dim.X)
		}
		img := image.NewRGBA(image.Rect(0, 0, dim.Z, dim.Y))
		for y := 0; y < dim.Y; y++ {
			for z := 0; z < dim.Z; z++ {
				img.SetRGBA(z, y, labelColor(v.labels.At(z, y, position)))
			}
		}
		return img, nil

	case "y", "Y":
		if position >= dim.Y {
			return nil, fmt.Errorf("position %d exceeds height %d", position, dim.Y)
		}
		img := image.NewRGBA(image.Rect(0, 0, dim.X, dim.Z))
		for z := 0; z < dim.Z; z++ {
			for x := 0; x < dim.X; x++ {
				img.SetRGBA(x, z, labelColor(v.labels.At(z, position, x)))
			}
		}
		return img, nil

	case "z", "Z":
		if position >= dim.Z {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, dim.Z)
		}
		img := image.NewRGBA(image.Rect(0, 0, dim.X, dim.Y))
		for y := 0; y < dim.Y; y++ {
			for x := 0; x < dim.X; x++ {
				img.SetRGBA(x, y, labelColor(v.labels.At(position, y, x)))
			}
		}
		return img, nil

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}
}

// SaveSlice saves an extracted slice as a PNG image.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SaveSliceSequence extracts and saves every slice along the
// specified axis into outputDir.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	var maxPos int
	dim := v.labels.Dim
	switch axis {
	case "x", "X":
		maxPos = dim.X
	case "y", "Y":
		maxPos = dim.Y
	case "z", "Z":
		maxPos = dim.Z
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.png", axis, pos))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
