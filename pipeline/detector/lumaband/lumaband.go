//go:build withcv
// +build withcv

/*
DESCRIPTION
  lumaband.go is a reference implementation of the pipeline/detector
  RegionDetector interface: it thresholds a luma frame around a target
  brightness band (the burned-in-caption case — captions are usually
  bright text on a darker background) and returns a bounding box per
  surviving contour. Grounded on filter/mog.go's Threshold/Erode/Dilate/
  FindContours/ContourArea sequence, replacing its background-subtraction
  foreground mask with a direct luma-band threshold.

  The detection algorithm itself is explicitly out of core scope
  (spec.md §1); this package exists only to give the Detector stage one
  concrete, runnable RegionDetector to exercise gocv with.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package lumaband is a gocv-backed reference RegionDetector that finds
// bright-on-dark (or dark-on-bright) caption-like regions by luma
// thresholding.
package lumaband

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

const defaultMinArea = 25.0

// Detector thresholds luma frames around Target +/- Delta and reports a
// DetectionRegion per surviving contour.
type Detector struct {
	Target  uint8
	Delta   uint8
	MinArea float64
	knl     gocv.Mat
}

// New returns a Detector targeting the given luma band. minArea <= 0 uses
// defaultMinArea.
func New(target, delta uint8, minArea float64) *Detector {
	if minArea <= 0 {
		minArea = defaultMinArea
	}
	return &Detector{
		Target:  target,
		Delta:   delta,
		MinArea: minArea,
		knl:     gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
	}
}

// Close releases the gocv structuring element. Must be called once the
// Detector is no longer in use.
func (d *Detector) Close() error {
	return d.knl.Close()
}

// Detect implements detector.RegionDetector.
func (d *Detector) Detect(f *frame.Frame, roi *frame.RoiNormalized) ([]types.DetectionRegion, error) {
	if f.Stride != f.Width {
		return nil, fmt.Errorf("lumaband: strided luma buffers not supported (stride %d != width %d)", f.Stride, f.Width)
	}

	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8U, f.Buf)
	if err != nil {
		return nil, fmt.Errorf("lumaband: could not wrap luma buffer: %w", err)
	}
	defer mat.Close()

	scanRegion := mat
	var offsetX, offsetY int
	if roi != nil {
		r := roi.ToPixel(f.Width, f.Height)
		clipped, ok := r.Clip(f.Width, f.Height)
		if !ok {
			return nil, nil
		}
		rect := image.Rect(clipped.X, clipped.Y, clipped.X+clipped.Width, clipped.Y+clipped.Height)
		scanRegion = mat.Region(rect)
		defer scanRegion.Close()
		offsetX, offsetY = clipped.X, clipped.Y
	}

	lo := int(d.Target) - int(d.Delta)
	hi := int(d.Target) + int(d.Delta)
	if lo < 0 {
		lo = 0
	}
	if hi > 255 {
		hi = 255
	}

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(scanRegion, gocv.NewScalar(float64(lo), 0, 0, 0), gocv.NewScalar(float64(hi), 0, 0, 0), &mask)

	gocv.Erode(mask, &mask, d.knl)
	gocv.Dilate(mask, &mask, d.knl)
	gocv.Dilate(mask, &mask, d.knl)
	gocv.Erode(mask, &mask, d.knl)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var regions []types.DetectionRegion
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		area := gocv.ContourArea(c)
		if area < d.MinArea {
			continue
		}
		bound := gocv.BoundingRect(c)
		rect := frame.PixelRect{
			X:      bound.Min.X + offsetX,
			Y:      bound.Min.Y + offsetY,
			Width:  bound.Dx(),
			Height: bound.Dy(),
		}
		clipped, ok := rect.Clip(f.Width, f.Height)
		if !ok {
			continue
		}
		regions = append(regions, types.DetectionRegion{
			Rect:       clipped,
			Confidence: area / float64(f.Width*f.Height),
		})
	}
	return regions, nil
}
