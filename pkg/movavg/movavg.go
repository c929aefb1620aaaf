package movavg

import (
	"errors"
	"fmt"

	"github.com/foamline/foamline/pkg/image"
)

// ErrShapeMismatch is returned when a sample does not match the shape the
// accumulator was first seeded with.
var ErrShapeMismatch = errors.New("sample shape does not match accumulator shape")

// Array is a moving average over detector frames. The first sample seeds the
// accumulator; further samples blend cumulatively until the window fills, after
// which each update steps the accumulator by (sample - acc) / window. Samples
// must keep the shape of the first one until Reset.
type Array struct {
	acc    []float64
	h, w   int
	window int
	count  int
}

func NewArray(window int) (*Array, error) {
	if window < 1 {
		return nil, fmt.Errorf("moving average window must be >= 1, got %d", window)
	}
	return &Array{window: window}, nil
}

// Set folds a new frame into the accumulator.
func (a *Array) Set(sample image.Image) error {
	if a.count == 0 {
		a.acc = make([]float64, len(sample.Data))
		copy(a.acc, sample.Data)
		a.h, a.w = sample.H, sample.W
		a.count = 1
		return nil
	}
	if sample.H != a.h || sample.W != a.w {
		return fmt.Errorf("%w: have (%d, %d), got (%d, %d)", ErrShapeMismatch, a.h, a.w, sample.H, sample.W)
	}
	if a.count < a.window {
		c := float64(a.count)
		for i := range a.acc {
			a.acc[i] = (a.acc[i]*c + sample.Data[i]) / (c + 1)
		}
		a.count++
		return nil
	}
	w := float64(a.window)
	for i := range a.acc {
		a.acc[i] += (sample.Data[i] - a.acc[i]) / w
	}
	return nil
}

// Image returns a copy of the current accumulator. ok is false while the
// accumulator is untouched, in which case downstream code must treat the value
// as absent rather than zero.
func (a *Array) Image() (image.Image, bool) {
	if a.count == 0 {
		return image.Image{}, false
	}
	out := image.Image{Data: make([]float64, len(a.acc)), H: a.h, W: a.w}
	copy(out.Data, a.acc)
	return out, true
}

// Count returns the number of samples blended so far, pinned at the window size.
func (a *Array) Count() int {
	return a.count
}

func (a *Array) Window() int {
	return a.window
}

// SetWindow changes the blending window. Accumulated data is not rescaled;
// only future updates use the new window.
func (a *Array) SetWindow(window int) error {
	if window < 1 {
		return fmt.Errorf("moving average window must be >= 1, got %d", window)
	}
	a.window = window
	if a.count > window {
		a.count = window
	}
	return nil
}

// Reset returns the accumulator to the untouched state.
func (a *Array) Reset() {
	a.acc = nil
	a.h, a.w = 0, 0
	a.count = 0
}
