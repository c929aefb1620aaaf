// Package roi implements rectangular region-of-interest geometry, masked
// reductions, combination algebra and 1-D projections over detector frames.
package roi

import "github.com/foamline/foamline/pkg/image"

// Geom is a rectangle in image coordinates. A non-positive width or height
// marks the region as unconfigured; unconfigured regions contribute nothing.
type Geom struct {
	X, Y, W, H int
}

// InvalidGeom is the sentinel for an unconfigured region.
var InvalidGeom = Geom{0, 0, -1, -1}

func (g Geom) Valid() bool {
	return g.W > 0 && g.H > 0
}

// Intersect clips g against another rectangle, typically the image bounds.
// Disjoint rectangles yield InvalidGeom.
func (g Geom) Intersect(o Geom) Geom {
	if !g.Valid() || !o.Valid() {
		return InvalidGeom
	}
	x0 := max(g.X, o.X)
	y0 := max(g.Y, o.Y)
	x1 := min(g.X+g.W, o.X+o.W)
	y1 := min(g.Y+g.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return InvalidGeom
	}
	return Geom{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// ImageBounds returns the rectangle covering a whole h x w frame.
func ImageBounds(h, w int) Geom {
	return Geom{X: 0, Y: 0, W: w, H: h}
}

// Crop copies the region out of a frame. ok is false for an unconfigured or
// out-of-bounds geometry.
func (g Geom) Crop(img image.Image) (image.Image, bool) {
	if !g.Valid() || g.X < 0 || g.Y < 0 || g.X+g.W > img.W || g.Y+g.H > img.H {
		return image.Image{}, false
	}
	out := image.New(g.H, g.W)
	for y := 0; y < g.H; y++ {
		src := (g.Y+y)*img.W + g.X
		copy(out.Data[y*g.W:(y+1)*g.W], img.Data[src:src+g.W])
	}
	return out, true
}

// CropMask copies the region out of an exclusion mask.
func (g Geom) CropMask(m image.Mask) (image.Mask, bool) {
	if !g.Valid() || g.X < 0 || g.Y < 0 || g.X+g.W > m.W || g.Y+g.H > m.H {
		return image.Mask{}, false
	}
	out := image.NewMask(g.H, g.W)
	for y := 0; y < g.H; y++ {
		src := (g.Y+y)*m.W + g.X
		copy(out.Data[y*g.W:(y+1)*g.W], m.Data[src:src+g.W])
	}
	return out, true
}

// CropStack copies the region out of every pulse of a stack.
func (g Geom) CropStack(s image.Stack) (image.Stack, bool) {
	if !g.Valid() || g.X < 0 || g.Y < 0 || g.X+g.W > s.W || g.Y+g.H > s.H {
		return image.Stack{}, false
	}
	out := image.NewStack(s.N, g.H, g.W)
	for i := 0; i < s.N; i++ {
		dst := out.Pulse(i)
		src := s.Pulse(i)
		for y := 0; y < g.H; y++ {
			off := (g.Y+y)*src.W + g.X
			copy(dst.Data[y*g.W:(y+1)*g.W], src.Data[off:off+g.W])
		}
	}
	return out, true
}
