package pairseq

import (
	"fmt"
	"math"
	"sort"
)

type bin struct {
	count int
	mean  float64
	min   float64
	max   float64
}

// BinStats is a struct-of-arrays snapshot of per-bin statistics, aligned with
// the bin-center slice returned alongside it.
type BinStats struct {
	Count []int
	Avg   []float64
	Min   []float64
	Max   []float64
}

// Binned groups incoming pairs into fixed-width bins along x and keeps a
// running mean/min/max per bin. Bins are created lazily; when the live bin
// count exceeds the capacity the lowest-index (oldest) bin is dropped. Bin
// indices are anchored at the first x seen.
type Binned struct {
	resolution float64
	capacity   int
	x0         float64
	anchored   bool
	bins       map[int]*bin
}

func NewBinned(resolution float64, capacity int) (*Binned, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("bin resolution must be > 0, got %v", resolution)
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Binned{
		resolution: resolution,
		capacity:   capacity,
		bins:       make(map[int]*bin),
	}, nil
}

func (b *Binned) Resolution() float64 {
	return b.resolution
}

func (b *Binned) Append(x, y float64) {
	if !b.anchored {
		b.x0 = x
		b.anchored = true
	}
	idx := int(math.Floor((x - b.x0) / b.resolution))
	if bn, ok := b.bins[idx]; ok {
		bn.count++
		bn.mean += (y - bn.mean) / float64(bn.count)
		bn.min = math.Min(bn.min, y)
		bn.max = math.Max(bn.max, y)
		return
	}
	b.bins[idx] = &bin{count: 1, mean: y, min: y, max: y}
	if len(b.bins) > b.capacity {
		b.evictOldest()
	}
}

func (b *Binned) evictOldest() {
	oldest := math.MaxInt
	for idx := range b.bins {
		if idx < oldest {
			oldest = idx
		}
	}
	delete(b.bins, oldest)
}

func (b *Binned) Len() int {
	return len(b.bins)
}

func (b *Binned) Reset() {
	b.bins = make(map[int]*bin)
	b.anchored = false
	b.x0 = 0
}

// Data returns the bin centers sorted by index with the per-bin running mean
// as y, satisfying Sequence.
func (b *Binned) Data() (xs, ys []float64) {
	centers, st := b.Snapshot()
	return centers, st.Avg
}

// Snapshot returns bin centers sorted by index alongside the full statistics.
func (b *Binned) Snapshot() ([]float64, BinStats) {
	idxs := make([]int, 0, len(b.bins))
	for idx := range b.bins {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)

	centers := make([]float64, len(idxs))
	st := BinStats{
		Count: make([]int, len(idxs)),
		Avg:   make([]float64, len(idxs)),
		Min:   make([]float64, len(idxs)),
		Max:   make([]float64, len(idxs)),
	}
	for i, idx := range idxs {
		bn := b.bins[idx]
		centers[i] = b.x0 + (float64(idx)+0.5)*b.resolution
		st.Count[i] = bn.count
		st.Avg[i] = bn.mean
		st.Min[i] = bn.min
		st.Max[i] = bn.max
	}
	return centers, st
}
