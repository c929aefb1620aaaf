package image

import "fmt"

// Image is a single 2-D detector frame stored row-major.
type Image struct {
	Data []float64
	H, W int
}

func New(h, w int) Image {
	return Image{Data: make([]float64, h*w), H: h, W: w}
}

func (m Image) At(y, x int) float64 {
	return m.Data[y*m.W+x]
}

func (m Image) Set(y, x int, v float64) {
	m.Data[y*m.W+x] = v
}

// SameShape reports whether two images have identical dimensions.
func (m Image) SameShape(o Image) bool {
	return m.H == o.H && m.W == o.W
}

// Clone returns a deep copy.
func (m Image) Clone() Image {
	c := Image{Data: make([]float64, len(m.Data)), H: m.H, W: m.W}
	copy(c.Data, m.Data)
	return c
}

// Stack is a pulse-resolved series of frames, one slice per pulse.
type Stack struct {
	Data    []float64
	N, H, W int
}

func NewStack(n, h, w int) Stack {
	return Stack{Data: make([]float64, n*h*w), N: n, H: h, W: w}
}

// Pulse returns pulse i as an Image sharing the stack's backing storage.
func (s Stack) Pulse(i int) Image {
	size := s.H * s.W
	return Image{Data: s.Data[i*size : (i+1)*size], H: s.H, W: s.W}
}

func (s Stack) At(i, y, x int) float64 {
	return s.Data[(i*s.H+y)*s.W+x]
}

func (s Stack) Set(i, y, x int, v float64) {
	s.Data[(i*s.H+y)*s.W+x] = v
}

// MeanImage collapses the pulse axis into a single averaged frame.
func (s Stack) MeanImage() Image {
	out := New(s.H, s.W)
	if s.N == 0 {
		return out
	}
	size := s.H * s.W
	for i := 0; i < s.N; i++ {
		base := i * size
		for j := 0; j < size; j++ {
			out.Data[j] += s.Data[base+j]
		}
	}
	for j := range out.Data {
		out.Data[j] /= float64(s.N)
	}
	return out
}

// Mask is a boolean exclusion mask aligned to a frame; true excludes a pixel.
type Mask struct {
	Data []bool
	H, W int
}

func NewMask(h, w int) Mask {
	return Mask{Data: make([]bool, h*w), H: h, W: w}
}

func (m Mask) At(y, x int) bool {
	return m.Data[y*m.W+x]
}

func (m Mask) Set(y, x int, v bool) {
	m.Data[y*m.W+x] = v
}

func (m Mask) check(h, w int) error {
	if m.H != h || m.W != w {
		return fmt.Errorf("mask shape (%d, %d) does not match image shape (%d, %d)", m.H, m.W, h, w)
	}
	return nil
}

// Validate reports whether the mask can be applied to an image of the given shape.
func (m Mask) Validate(img Image) error {
	return m.check(img.H, img.W)
}
