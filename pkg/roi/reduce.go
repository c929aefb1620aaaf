package roi

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/foamline/foamline/pkg/image"
)

// FomType selects the reduction collapsing a region to a scalar.
type FomType int

const (
	FomSum FomType = iota + 1
	FomMean
	FomMedian
	FomMax
	FomMin
)

func (t FomType) String() string {
	switch t {
	case FomSum:
		return "sum"
	case FomMean:
		return "mean"
	case FomMedian:
		return "median"
	case FomMax:
		return "max"
	case FomMin:
		return "min"
	}
	return fmt.Sprintf("FomType(%d)", int(t))
}

// Threshold excludes pixel values outside [Low, High] from reductions.
// Excluded pixels do not contribute; they are not treated as zero.
type Threshold struct {
	Low, High float64
}

// gather collects the pixels of a frame that survive the exclusion mask and
// threshold into dst.
func gather(dst []float64, img image.Image, mask *image.Mask, th *Threshold) []float64 {
	for i, v := range img.Data {
		if mask != nil && mask.Data[i] {
			continue
		}
		if th != nil && (v < th.Low || v > th.High) {
			continue
		}
		dst = append(dst, v)
	}
	return dst
}

func reduce(t FomType, values []float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), nil
	}
	switch t {
	case FomSum:
		return floats.Sum(values), nil
	case FomMean:
		return stat.Mean(values, nil), nil
	case FomMedian:
		sort.Float64s(values)
		n := len(values)
		if n%2 == 1 {
			return values[n/2], nil
		}
		return (values[n/2-1] + values[n/2]) / 2, nil
	case FomMax:
		return floats.Max(values), nil
	case FomMin:
		return floats.Min(values), nil
	}
	return 0, fmt.Errorf("unknown FOM type: %v", t)
}

// Reduce collapses a train-resolved region to a single scalar. The mask and
// threshold are optional.
func Reduce(t FomType, img image.Image, mask *image.Mask, th *Threshold) (float64, error) {
	scratch := make([]float64, 0, len(img.Data))
	return reduce(t, gather(scratch, img, mask, th))
}

// ReduceStack collapses a pulse-resolved region along the last two axes,
// yielding one scalar per pulse.
func ReduceStack(t FomType, s image.Stack, mask *image.Mask, th *Threshold) ([]float64, error) {
	out := make([]float64, s.N)
	scratch := make([]float64, 0, s.H*s.W)
	for i := 0; i < s.N; i++ {
		v, err := reduce(t, gather(scratch[:0], s.Pulse(i), mask, th))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
