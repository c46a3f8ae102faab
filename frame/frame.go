/*
DESCRIPTION
  frame.go defines the luma frame type that flows through the subtitlefast
  pipeline, along with the pixel and normalized rectangle types used for
  region geometry.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frame provides the Frame type and pixel/normalized rectangle
// geometry shared by every pipeline stage.
package frame

import "fmt"

// Frame is a single decoded luma plane handed down the pipeline by a
// Decoder. The Buf slice is immutable and shared by reference between
// stages; no stage may write to it.
type Frame struct {
	Width  int
	Height int
	Stride int // Bytes from one row's start to the next; Stride >= Width.
	Buf    []byte

	// PTS is the presentation timestamp in nanoseconds from stream start.
	// Zero means "not supplied"; use HasPTS to distinguish from an actual
	// zero timestamp on the very first frame.
	PTS    int64
	HasPTS bool

	// Index is the decoder-assigned frame ordinal, if the decoder supplies
	// one. Zero means "not supplied"; use HasIndex to distinguish index 0
	// from "absent".
	Index    uint64
	HasIndex bool
}

// Validate checks the structural invariants from spec.md §3.
func (f *Frame) Validate() error {
	if f.Stride < f.Width {
		return fmt.Errorf("frame: stride %d < width %d", f.Stride, f.Width)
	}
	need := f.Stride * f.Height
	if len(f.Buf) < need {
		return fmt.Errorf("frame: buffer length %d shorter than stride*height %d", len(f.Buf), need)
	}
	return nil
}

// At returns the luma sample at (x, y).
func (f *Frame) At(x, y int) byte {
	return f.Buf[y*f.Stride+x]
}

// PixelRect is an integer rectangle clipped to frame bounds, Width/Height >= 1.
type PixelRect struct {
	X, Y, Width, Height int
}

// Clip returns r clipped to a frameW x frameH frame, and whether the
// result has positive area.
func (r PixelRect) Clip(frameW, frameH int) (PixelRect, bool) {
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.Width, r.Y+r.Height

	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > frameW {
		x1 = frameW
	}
	if y1 > frameH {
		y1 = frameH
	}

	if x1 <= x0 || y1 <= y0 {
		return PixelRect{}, false
	}
	return PixelRect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

// RoiNormalized is a (x, y, width, height) rectangle in [0, 1], resolution
// independent, used for persistent region identity.
type RoiNormalized struct {
	X, Y, Width, Height float64
}

// ToPixel converts a normalized ROI to pixel space against a frameW x
// frameH frame.
func (r RoiNormalized) ToPixel(frameW, frameH int) PixelRect {
	x := int(r.X * float64(frameW))
	y := int(r.Y * float64(frameH))
	w := int(r.Width * float64(frameW))
	h := int(r.Height * float64(frameH))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return PixelRect{X: x, Y: y, Width: w, Height: h}
}

// FromPixel converts a pixel rectangle to normalized space against a
// frameW x frameH frame.
func FromPixel(r PixelRect, frameW, frameH int) RoiNormalized {
	return RoiNormalized{
		X:      float64(r.X) / float64(frameW),
		Y:      float64(r.Y) / float64(frameH),
		Width:  float64(r.Width) / float64(frameW),
		Height: float64(r.Height) / float64(frameH),
	}
}

// area returns the area of a normalized rectangle.
func (r RoiNormalized) area() float64 { return r.Width * r.Height }

// intersect returns the intersection of two normalized rectangles, and
// whether it has positive area.
func (r RoiNormalized) intersect(o RoiNormalized) (RoiNormalized, bool) {
	x0 := max(r.X, o.X)
	y0 := max(r.Y, o.Y)
	x1 := min(r.X+r.Width, o.X+o.Width)
	y1 := min(r.Y+r.Height, o.Y+o.Height)
	if x1 <= x0 || y1 <= y0 {
		return RoiNormalized{}, false
	}
	return RoiNormalized{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, true
}

// IoU returns the intersection-over-union of two normalized rectangles.
func IoU(a, b RoiNormalized) float64 {
	inter, ok := a.intersect(b)
	if !ok {
		return 0
	}
	ia := inter.area()
	union := a.area() + b.area() - ia
	if union <= 0 {
		return 0
	}
	return ia / union
}

// Residual computes the largest axis-aligned rectangle contained in prev
// but not overlapping next, considering the four candidates (above, below,
// left, right of the overlap). It returns the winning candidate and
// whether it has positive area. This implements the single-largest-residual
// policy pinned by DESIGN.md for the Region Determiner's split-on-growth
// heuristic.
func Residual(prev, next RoiNormalized) (RoiNormalized, bool) {
	overlap, ok := prev.intersect(next)
	if !ok {
		return RoiNormalized{}, false
	}

	type candidate struct {
		r    RoiNormalized
		area float64
	}
	var candidates []candidate

	// Above: the part of prev above the overlap's top edge.
	if overlap.Y > prev.Y {
		h := overlap.Y - prev.Y
		c := RoiNormalized{X: prev.X, Y: prev.Y, Width: prev.Width, Height: h}
		candidates = append(candidates, candidate{c, c.area()})
	}
	// Below: the part of prev below the overlap's bottom edge.
	prevBottom := prev.Y + prev.Height
	overlapBottom := overlap.Y + overlap.Height
	if prevBottom > overlapBottom {
		h := prevBottom - overlapBottom
		c := RoiNormalized{X: prev.X, Y: overlapBottom, Width: prev.Width, Height: h}
		candidates = append(candidates, candidate{c, c.area()})
	}
	// Left: the part of prev left of the overlap's left edge.
	if overlap.X > prev.X {
		w := overlap.X - prev.X
		c := RoiNormalized{X: prev.X, Y: prev.Y, Width: w, Height: prev.Height}
		candidates = append(candidates, candidate{c, c.area()})
	}
	// Right: the part of prev right of the overlap's right edge.
	prevRight := prev.X + prev.Width
	overlapRight := overlap.X + overlap.Width
	if prevRight > overlapRight {
		w := prevRight - overlapRight
		c := RoiNormalized{X: overlapRight, Y: prev.Y, Width: w, Height: prev.Height}
		candidates = append(candidates, candidate{c, c.area()})
	}

	if len(candidates) == 0 {
		return RoiNormalized{}, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.area > best.area {
			best = c
		}
	}
	if best.area <= 0 {
		return RoiNormalized{}, false
	}
	return best.r, true
}
