package roi

import "fmt"

// Combo selects how two region results are composed. The FOM and projection
// paths combine ROI1/ROI2; the normalizer path combines ROI3/ROI4.
type Combo int

const (
	Roi1 Combo = iota + 1
	Roi2
	Roi1SubRoi2
	Roi1AddRoi2

	Roi3 Combo = iota + 7
	Roi4
	Roi3SubRoi4
	Roi3AddRoi4
)

func (c Combo) String() string {
	switch c {
	case Roi1:
		return "roi1"
	case Roi2:
		return "roi2"
	case Roi1SubRoi2:
		return "roi1-roi2"
	case Roi1AddRoi2:
		return "roi1+roi2"
	case Roi3:
		return "roi3"
	case Roi4:
		return "roi4"
	case Roi3SubRoi4:
		return "roi3-roi4"
	case Roi3AddRoi4:
		return "roi3+roi4"
	}
	return fmt.Sprintf("Combo(%d)", int(c))
}

// Operand lazily evaluates one region to a scalar. A nil result with a nil
// error means the region is not configured.
type Operand func() (*float64, error)

// VecOperand lazily evaluates one region to a per-pulse vector or a profile.
type VecOperand func() ([]float64, error)

// Combine composes two scalar operands. Single-region modes never evaluate
// the unused operand. When a two-region mode finds either operand unset the
// result is unset, not an error; partial ROI configuration must not break the
// pipeline.
func Combine(combo Combo, a, b Operand) (*float64, error) {
	switch combo {
	case Roi1, Roi3:
		return a()
	case Roi2, Roi4:
		return b()
	case Roi1SubRoi2, Roi3SubRoi4, Roi1AddRoi2, Roi3AddRoi4:
	default:
		return nil, fmt.Errorf("unknown ROI combo: %v", combo)
	}

	va, err := a()
	if err != nil {
		return nil, err
	}
	vb, err := b()
	if err != nil {
		return nil, err
	}
	if va == nil || vb == nil {
		return nil, nil
	}
	var v float64
	switch combo {
	case Roi1SubRoi2, Roi3SubRoi4:
		v = *va - *vb
	case Roi1AddRoi2, Roi3AddRoi4:
		v = *va + *vb
	}
	return &v, nil
}

// CombineVec is Combine over vectors, applied elementwise.
func CombineVec(combo Combo, a, b VecOperand) ([]float64, error) {
	switch combo {
	case Roi1, Roi3:
		return a()
	case Roi2, Roi4:
		return b()
	case Roi1SubRoi2, Roi3SubRoi4, Roi1AddRoi2, Roi3AddRoi4:
	default:
		return nil, fmt.Errorf("unknown ROI combo: %v", combo)
	}

	va, err := a()
	if err != nil {
		return nil, err
	}
	vb, err := b()
	if err != nil {
		return nil, err
	}
	if va == nil || vb == nil {
		return nil, nil
	}
	if len(va) != len(vb) {
		return nil, fmt.Errorf("combined regions have different lengths: %d vs %d", len(va), len(vb))
	}
	out := make([]float64, len(va))
	switch combo {
	case Roi1SubRoi2, Roi3SubRoi4:
		for i := range va {
			out[i] = va[i] - vb[i]
		}
	case Roi1AddRoi2, Roi3AddRoi4:
		for i := range va {
			out[i] = va[i] + vb[i]
		}
	}
	return out, nil
}
