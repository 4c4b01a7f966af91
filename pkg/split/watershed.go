package split

import (
	"container/heap"

	"ctparticles/pkg/volume"
)

// Watershed grows the seed labels outward across the masked
// foreground, flooding the negated distance landscape: voxels deep
// inside a particle (large distance) are claimed first, so competing
// seeds meet along the low-distance necks between particles and the
// original particle boundaries are restored without merging labels.
//
// dist is the Euclidean distance transform of the mask (one value per
// voxel), seeds is the labeled seed volume, and mask restricts growth
// to the original foreground. A fresh label volume is returned; all
// inputs are read-only. Ties are broken in insertion order, making
// the flood deterministic.
func Watershed(dist []float64, seeds *volume.LabelVolume, mask *volume.Volume, conn volume.Connectivity) *volume.LabelVolume {
	dim := mask.Dim
	out := volume.NewLabels(dim)
	offsets := conn.Offsets()

	pq := &floodQueue{}
	heap.Init(pq)

	var seq uint64
	for idx, label := range seeds.Data {
		if label == 0 {
			continue
		}
		out.Data[idx] = label
		heap.Push(pq, floodItem{index: idx, height: -dist[idx], order: seq})
		seq++
	}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(floodItem)
		idx := item.index
		label := out.Data[idx]

		cz := idx / (dim.Y * dim.X)
		rem := idx % (dim.Y * dim.X)
		cy := rem / dim.X
		cx := rem % dim.X

		for _, o := range offsets {
			nz, ny, nx := cz+o.DZ, cy+o.DY, cx+o.DX
			if !dim.Contains(nz, ny, nx) {
				continue
			}
			nidx := dim.Index(nz, ny, nx)
			if !mask.Data[nidx] || out.Data[nidx] != 0 {
				continue
			}
			out.Data[nidx] = label
			heap.Push(pq, floodItem{index: nidx, height: -dist[nidx], order: seq})
			seq++
		}
	}

	return out
}

// floodItem is a single queued voxel. Lower height floods first;
// equal heights pop in insertion order.
type floodItem struct {
	index  int
	height float64
	order  uint64
}

type floodQueue []floodItem

func (q floodQueue) Len() int { return len(q) }

func (q floodQueue) Less(i, j int) bool {
	if q[i].height != q[j].height {
		return q[i].height < q[j].height
	}
	return q[i].order < q[j].order
}

func (q floodQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *floodQueue) Push(x interface{}) {
	*q = append(*q, x.(floodItem))
}

func (q *floodQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}
