package split

import (
	"ctparticles/pkg/volume"
)

// LabelComponents assigns a unique positive label to every connected
// component of the foreground under the given connectivity, using an
// iterative flood fill. It returns the label volume and the number of
// components found. Labels are assigned in scan order, so the result
// is deterministic.
func LabelComponents(vol *volume.Volume, conn volume.Connectivity) (*volume.LabelVolume, int) {
	dim := vol.Dim
	labels := volume.NewLabels(dim)
	offsets := conn.Offsets()

	// Reusable BFS queue of flat indices.
	queue := make([]int, 0, 1024)

	var next int32
	for z := 0; z < dim.Z; z++ {
		for y := 0; y < dim.Y; y++ {
			for x := 0; x < dim.X; x++ {
				idx := dim.Index(z, y, x)
				if !vol.Data[idx] || labels.Data[idx] != 0 {
					continue
				}
				next++
				labels.Data[idx] = next
				queue = append(queue[:0], idx)

				for len(queue) > 0 {
					cur := queue[len(queue)-1]
					queue = queue[:len(queue)-1]

					cz := cur / (dim.Y * dim.X)
					rem := cur % (dim.Y * dim.X)
					cy := rem / dim.X
					cx := rem % dim.X

					for _, o := range offsets {
						nz, ny, nx := cz+o.DZ, cy+o.DY, cx+o.DX
						if !dim.Contains(nz, ny, nx) {
							continue
						}
						nidx := dim.Index(nz, ny, nx)
						if vol.Data[nidx] && labels.Data[nidx] == 0 {
							labels.Data[nidx] = next
							queue = append(queue, nidx)
						}
					}
				}
			}
		}
	}

	return labels, int(next)
}
