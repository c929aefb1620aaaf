package roi

import (
	"fmt"

	"gonum.org/v1/gonum/integrate"

	"github.com/foamline/foamline/pkg/image"
)

// Direction is the axis a 2-D region is summed along when projecting.
type Direction string

const (
	DirectionX Direction = "x"
	DirectionY Direction = "y"
)

// Project reduces a region to a 1-D profile by summing along one axis.
// DirectionX sums columns (profile along x), DirectionY sums rows.
func Project(img image.Image, d Direction) ([]float64, error) {
	switch d {
	case DirectionX:
		out := make([]float64, img.W)
		for y := 0; y < img.H; y++ {
			row := img.Data[y*img.W : (y+1)*img.W]
			for x, v := range row {
				out[x] += v
			}
		}
		return out, nil
	case DirectionY:
		out := make([]float64, img.H)
		for y := 0; y < img.H; y++ {
			row := img.Data[y*img.W : (y+1)*img.W]
			for _, v := range row {
				out[y] += v
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown projection direction: %q", d)
}

// Range is a half-open numeric interval used for AUC and integration windows.
type Range struct {
	Lo, Hi float64
}

func (r Range) contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// SliceCurve restricts a curve to the x-range, returning aligned sub-slices.
func SliceCurve(x, y []float64, r Range) (xs, ys []float64) {
	for i := range x {
		if r.contains(x[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	return xs, ys
}

// Normalizer selects how a projection profile is normalized before the final
// FOM integration.
type Normalizer int

const (
	NormUndefined Normalizer = 0
	NormAuc       Normalizer = 1
	NormRoi       Normalizer = 2
)

func (n Normalizer) String() string {
	switch n {
	case NormUndefined:
		return "undefined"
	case NormAuc:
		return "auc"
	case NormRoi:
		return "roi"
	}
	return fmt.Sprintf("Normalizer(%d)", int(n))
}

// NormalizeAuc divides a profile by its area under the curve within the given
// x-range. A vanishing area cannot normalize anything and is reported.
func NormalizeAuc(y, x []float64, r Range) ([]float64, error) {
	xs, ys := SliceCurve(x, y, r)
	if len(xs) < 2 {
		return nil, fmt.Errorf("AUC range [%v, %v] covers fewer than two points", r.Lo, r.Hi)
	}
	area := integrate.Trapezoidal(xs, ys)
	if area == 0 {
		return nil, fmt.Errorf("normalized by zero AUC over [%v, %v]", r.Lo, r.Hi)
	}
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = v / area
	}
	return out, nil
}

// NormalizeProfile applies the selected normalization to a profile. roiNorm is
// the train-resolved ROI normalizer, required only by NormRoi; a missing
// normalizer value is reported so the caller can skip the train.
func NormalizeProfile(n Normalizer, y, x []float64, aucRange Range, roiNorm *float64) ([]float64, error) {
	switch n {
	case NormUndefined:
		return y, nil
	case NormAuc:
		return NormalizeAuc(y, x, aucRange)
	case NormRoi:
		if roiNorm == nil {
			return nil, fmt.Errorf("ROI normalizer is not available")
		}
		if *roiNorm == 0 {
			return nil, fmt.Errorf("normalized by zero ROI normalizer")
		}
		out := make([]float64, len(y))
		for i, v := range y {
			out[i] = v / *roiNorm
		}
		return out, nil
	}
	return nil, fmt.Errorf("unknown normalizer: %v", n)
}
