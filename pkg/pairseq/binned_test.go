package pairseq

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinnedRejectsBadResolution(t *testing.T) {
	_, err := NewBinned(0, 10)
	assert.Error(t, err)
	_, err = NewBinned(-1, 10)
	assert.Error(t, err)
}

func TestBinnedScenario(t *testing.T) {
	b, err := NewBinned(2.0, 100)
	require.NoError(t, err)

	b.Append(0, 1)
	b.Append(1, 3)
	b.Append(2, 5)

	centers, st := b.Snapshot()
	require.Equal(t, []float64{1.0, 3.0}, centers)
	assert.Equal(t, []float64{2, 5}, st.Avg)
	assert.Equal(t, []float64{1, 5}, st.Min)
	assert.Equal(t, []float64{3, 5}, st.Max)
	assert.Equal(t, []int{2, 1}, st.Count)

	xs, ys := b.Data()
	assert.Equal(t, centers, xs)
	assert.Equal(t, st.Avg, ys)
}

func TestBinnedStatsMatchBruteForce(t *testing.T) {
	const resolution = 0.5
	b, err := NewBinned(resolution, 1000)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	type agg struct {
		sum, min, max float64
		n             int
	}
	want := make(map[int]*agg)
	var x0 float64
	for i := 0; i < 500; i++ {
		x := rng.Float64() * 20
		y := rng.NormFloat64()
		if i == 0 {
			x0 = x
		}
		b.Append(x, y)

		idx := int(math.Floor((x - x0) / resolution))
		a, ok := want[idx]
		if !ok {
			want[idx] = &agg{sum: y, min: y, max: y, n: 1}
			continue
		}
		a.sum += y
		a.n++
		if y < a.min {
			a.min = y
		}
		if y > a.max {
			a.max = y
		}
	}

	centers, st := b.Snapshot()
	require.Len(t, centers, len(want))
	i := 0
	for range centers {
		idx := int(math.Floor((centers[i] - x0) / resolution)) // center maps back to its bin
		a := want[idx]
		require.NotNil(t, a)
		assert.InDelta(t, a.sum/float64(a.n), st.Avg[i], 1e-9)
		assert.Equal(t, a.min, st.Min[i])
		assert.Equal(t, a.max, st.Max[i])
		assert.Equal(t, a.n, st.Count[i])
		i++
	}
}

func TestBinnedEvictsLowestIndex(t *testing.T) {
	b, err := NewBinned(2.0, 2)
	require.NoError(t, err)

	b.Append(0, 1) // bin 0
	b.Append(2, 2) // bin 1
	b.Append(4, 3) // bin 2, bin 0 evicted

	centers, st := b.Snapshot()
	assert.Equal(t, []float64{3, 5}, centers)
	assert.Equal(t, []float64{2, 3}, st.Avg)
	assert.Equal(t, 2, b.Len())
}

func TestBinnedNegativeOffsets(t *testing.T) {
	b, err := NewBinned(1.0, 100)
	require.NoError(t, err)

	// The anchor is the first x seen; earlier x-values land in negative bins
	// and still sort before it.
	b.Append(5, 50)
	b.Append(3.5, 35)

	centers, st := b.Snapshot()
	assert.Equal(t, []float64{3.5, 5.5}, centers)
	assert.Equal(t, []float64{35, 50}, st.Avg)
}

func TestBinnedReset(t *testing.T) {
	b, err := NewBinned(1.0, 10)
	require.NoError(t, err)
	b.Append(1, 1)
	b.Reset()
	xs, ys := b.Data()
	assert.Empty(t, xs)
	assert.Empty(t, ys)

	// The anchor resets too.
	b.Append(10, 1)
	centers, _ := b.Snapshot()
	assert.Equal(t, []float64{10.5}, centers)
}
