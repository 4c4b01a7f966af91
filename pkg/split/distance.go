package split

import (
	"math"

	"ctparticles/pkg/volume"
)

// inf is the initial "no background seen" value for the squared
// distance field. Any finite squared distance in a real volume is
// far below it.
const inf = math.MaxFloat64 / 4

// DistanceTransform computes the exact Euclidean distance transform
// of the foreground: for every true voxel, the distance to the
// nearest background voxel within the volume. Background voxels get
// distance 0. Voxels outside the array do not act as background.
//
// The transform is the Felzenszwalb-Huttenlocher squared-distance
// algorithm applied separably along the three axes.
func DistanceTransform(vol *volume.Volume) []float64 {
	dim := vol.Dim
	n := dim.Voxels()

	d := make([]float64, n)
	for i, fg := range vol.Data {
		if fg {
			d[i] = inf
		}
	}

	// Scratch buffers sized for the longest axis.
	maxLen := dim.Z
	if dim.Y > maxLen {
		maxLen = dim.Y
	}
	if dim.X > maxLen {
		maxLen = dim.X
	}
	f := make([]float64, maxLen)
	out := make([]float64, maxLen)
	v := make([]int, maxLen)
	zb := make([]float64, maxLen+1)

	// Pass along X.
	for z := 0; z < dim.Z; z++ {
		for y := 0; y < dim.Y; y++ {
			base := dim.Index(z, y, 0)
			for x := 0; x < dim.X; x++ {
				f[x] = d[base+x]
			}
			dt1d(f[:dim.X], out, v, zb)
			for x := 0; x < dim.X; x++ {
				d[base+x] = out[x]
			}
		}
	}

	// Pass along Y.
	for z := 0; z < dim.Z; z++ {
		for x := 0; x < dim.X; x++ {
			for y := 0; y < dim.Y; y++ {
				f[y] = d[dim.Index(z, y, x)]
			}
			dt1d(f[:dim.Y], out, v, zb)
			for y := 0; y < dim.Y; y++ {
				d[dim.Index(z, y, x)] = out[y]
			}
		}
	}

	// Pass along Z.
	for y := 0; y < dim.Y; y++ {
		for x := 0; x < dim.X; x++ {
			for z := 0; z < dim.Z; z++ {
				f[z] = d[dim.Index(z, y, x)]
			}
			dt1d(f[:dim.Z], out, v, zb)
			for z := 0; z < dim.Z; z++ {
				d[dim.Index(z, y, x)] = out[z]
			}
		}
	}

	// Convert squared distances to Euclidean distances.
	for i := range d {
		if d[i] >= inf {
			// No background anywhere along any axis path; the voxel
			// keeps a large but finite distance.
			d[i] = math.Sqrt(inf)
			continue
		}
		d[i] = math.Sqrt(d[i])
	}
	return d
}

// dt1d computes the 1D squared-distance transform of f into out using
// the lower envelope of parabolas (Felzenszwalb & Huttenlocher 2012).
// v and zb are caller-provided scratch buffers of length >= len(f)
// and len(f)+1 respectively.
func dt1d(f, out []float64, v []int, zb []float64) {
	n := len(f)
	k := 0
	v[0] = 0
	zb[0] = -inf
	zb[1] = inf

	for q := 1; q < n; q++ {
		s := intersect(f, q, v[k])
		for s <= zb[k] {
			k--
			s = intersect(f, q, v[k])
		}
		k++
		v[k] = q
		zb[k] = s
		zb[k+1] = inf
	}

	k = 0
	for q := 0; q < n; q++ {
		for zb[k+1] < float64(q) {
			k++
		}
		dq := float64(q - v[k])
		out[q] = dq*dq + f[v[k]]
	}
}

// intersect returns the horizontal position where the parabola rooted
// at q crosses the one rooted at p.
func intersect(f []float64, q, p int) float64 {
	fq := float64(q)
	fp := float64(p)
	return ((f[q] + fq*fq) - (f[p] + fp*fp)) / (2*fq - 2*fp)
}
