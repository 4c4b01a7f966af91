// Package volume defines the 3D volume data model shared by all
// processing stages: the binary foreground volume produced by the
// upstream binarizer and the integer label volume produced by the
// particle splitter.
//
// Volumes are stored as flat slices in Z-major, then Y, then X order,
// matching the slice-stacking order of the CT acquisition. Once a
// volume has been handed to a processing stage it is treated as
// read-only; stages that transform a volume always allocate a fresh
// output array.
package volume

import (
	"fmt"
)

// Dim holds the voxel dimensions of a volume in (Z, Y, X) order.
type Dim struct {
	Z, Y, X int
}

// Voxels returns the total number of voxels spanned by the dimensions.
func (d Dim) Voxels() int {
	return d.Z * d.Y * d.X
}

// Index converts (z, y, x) coordinates into a flat array index.
func (d Dim) Index(z, y, x int) int {
	return (z*d.Y+y)*d.X + x
}

// Contains reports whether (z, y, x) lies inside the volume bounds.
func (d Dim) Contains(z, y, x int) bool {
	return z >= 0 && z < d.Z && y >= 0 && y < d.Y && x >= 0 && x < d.X
}

// Volume is a 3D boolean volume, the segmented foreground of a CT
// scan. True voxels belong to particle material.
type Volume struct {
	// Data is the voxel data as a flat array in Z-major order.
	Data []bool

	// Dim holds the volume dimensions in voxels.
	Dim Dim
}

// New allocates a zeroed boolean volume with the given dimensions.
func New(dim Dim) *Volume {
	return &Volume{
		Data: make([]bool, dim.Voxels()),
		Dim:  dim,
	}
}

// At returns the voxel value at (z, y, x).
func (v *Volume) At(z, y, x int) bool {
	return v.Data[v.Dim.Index(z, y, x)]
}

// Set assigns the voxel value at (z, y, x).
func (v *Volume) Set(z, y, x int, val bool) {
	v.Data[v.Dim.Index(z, y, x)] = val
}

// CountForeground returns the number of true voxels.
func (v *Volume) CountForeground() int {
	n := 0
	for _, b := range v.Data {
		if b {
			n++
		}
	}
	return n
}

// Empty reports whether the volume contains no foreground voxels.
func (v *Volume) Empty() bool {
	for _, b := range v.Data {
		if b {
			return false
		}
	}
	return true
}

// Validate checks that the data length matches the declared
// dimensions and that every dimension is positive.
func (v *Volume) Validate() error {
	if v.Dim.Z <= 0 || v.Dim.Y <= 0 || v.Dim.X <= 0 {
		return fmt.Errorf("invalid volume dimensions %+v", v.Dim)
	}
	if len(v.Data) != v.Dim.Voxels() {
		return fmt.Errorf("volume data length %d does not match dimensions %+v (%d voxels)",
			len(v.Data), v.Dim, v.Dim.Voxels())
	}
	return nil
}

// LabelVolume is a 3D volume of particle labels with the same shape
// conventions as Volume. Label 0 is background; each positive label
// identifies one particle.
type LabelVolume struct {
	// Data is the label data as a flat array in Z-major order.
	Data []int32

	// Dim holds the volume dimensions in voxels.
	Dim Dim
}

// NewLabels allocates a zeroed label volume with the given dimensions.
func NewLabels(dim Dim) *LabelVolume {
	return &LabelVolume{
		Data: make([]int32, dim.Voxels()),
		Dim:  dim,
	}
}

// At returns the label at (z, y, x).
func (l *LabelVolume) At(z, y, x int) int32 {
	return l.Data[l.Dim.Index(z, y, x)]
}

// Set assigns the label at (z, y, x).
func (l *LabelVolume) Set(z, y, x int, label int32) {
	l.Data[l.Dim.Index(z, y, x)] = label
}

// MaxLabel returns the highest label id present in the volume, which
// for splitter output equals the number of particles.
func (l *LabelVolume) MaxLabel() int32 {
	var max int32
	for _, v := range l.Data {
		if v > max {
			max = v
		}
	}
	return max
}

// DistinctLabels returns the number of distinct nonzero labels.
func (l *LabelVolume) DistinctLabels() int {
	seen := make(map[int32]struct{})
	for _, v := range l.Data {
		if v > 0 {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

// Connectivity enumerates the supported voxel neighborhood
// definitions: face-only (6), face+edge (18), or face+edge+corner (26).
type Connectivity int

const (
	Conn6  Connectivity = 6
	Conn18 Connectivity = 18
	Conn26 Connectivity = 26
)

// Valid reports whether the connectivity is one of 6, 18 or 26.
func (c Connectivity) Valid() bool {
	return c == Conn6 || c == Conn18 || c == Conn26
}

// Offset is a relative voxel step in (Z, Y, X) order.
type Offset struct {
	DZ, DY, DX int
}

// Offsets returns the neighbor offsets for the connectivity. The
// full symmetric set is returned; callers that need each unordered
// voxel pair exactly once should use HalfOffsets.
func (c Connectivity) Offsets() []Offset {
	var offs []Offset
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dz == 0 && dy == 0 && dx == 0 {
					continue
				}
				if c.admits(dz, dy, dx) {
					offs = append(offs, Offset{dz, dy, dx})
				}
			}
		}
	}
	return offs
}

// HalfOffsets returns the lexicographically positive half of the
// neighborhood, so that scanning every voxel with these offsets
// visits each unordered voxel pair exactly once.
func (c Connectivity) HalfOffsets() []Offset {
	var offs []Offset
	for _, o := range c.Offsets() {
		if o.DZ > 0 || (o.DZ == 0 && o.DY > 0) || (o.DZ == 0 && o.DY == 0 && o.DX > 0) {
			offs = append(offs, o)
		}
	}
	return offs
}

func (c Connectivity) admits(dz, dy, dx int) bool {
	m := abs(dz) + abs(dy) + abs(dx)
	switch c {
	case Conn6:
		return m == 1
	case Conn18:
		return m <= 2
	default: // Conn26
		return true
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
