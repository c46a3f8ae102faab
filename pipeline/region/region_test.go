package region

import (
	"errors"
	"testing"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

var errBoom = errors.New("boom")

type nullLogger struct{}

func (nullLogger) SetLevel(int8)                  {}
func (nullLogger) Debug(string, ...interface{})   {}
func (nullLogger) Info(string, ...interface{})    {}
func (nullLogger) Warning(string, ...interface{}) {}
func (nullLogger) Error(string, ...interface{})   {}
func (nullLogger) Fatal(string, ...interface{})   {}

func mkFrame() *frame.Frame {
	return &frame.Frame{Width: 100, Height: 100, Stride: 100, Buf: make([]byte, 10000)}
}

func sampleWithRects(rects ...frame.PixelRect) types.DetectionSample {
	var regions []types.DetectionRegion
	for _, r := range rects {
		regions = append(regions, types.DetectionRegion{Rect: r, Confidence: 0.9})
	}
	return types.DetectionSample{Frame: mkFrame(), Regions: regions}
}

func TestDeterminer_AssignsAndReusesIdentity(t *testing.T) {
	d := New(0.05)

	s1 := sampleWithRects(frame.PixelRect{X: 10, Y: 10, Width: 20, Height: 10})
	units1 := d.process(s1)
	if len(units1) != 1 {
		t.Fatalf("got %d units, want 1", len(units1))
	}
	id1 := units1[0].RegionID

	// Same rectangle again: same identity expected (IoU == 1).
	s2 := sampleWithRects(frame.PixelRect{X: 10, Y: 10, Width: 20, Height: 10})
	units2 := d.process(s2)
	if len(units2) != 1 || units2[0].RegionID != id1 {
		t.Fatalf("expected identity reuse, got %+v", units2)
	}
}

func TestDeterminer_NewRegionOnNoMatch(t *testing.T) {
	d := New(0.05)

	d.process(sampleWithRects(frame.PixelRect{X: 0, Y: 0, Width: 10, Height: 10}))
	units := d.process(sampleWithRects(frame.PixelRect{X: 80, Y: 80, Width: 10, Height: 10}))

	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
	if units[0].RegionID != 2 {
		t.Errorf("RegionID = %d, want 2 (a fresh region)", units[0].RegionID)
	}
}

// TestRegionDeterminer_SplitOnGrowth exercises split-on-growth: growth that
// fully contains the previous extent splits nothing, and growth that leaves
// one side of it uncovered adds exactly one residual unit. Neither case
// grows across both axes, so the single-residual choice over emitting
// several residuals is not distinguished here.
func TestRegionDeterminer_SplitOnGrowth(t *testing.T) {
	d := New(0.05)

	// Initial small caption at the bottom-left of a wide strip.
	d.process(sampleWithRects(frame.PixelRect{X: 10, Y: 85, Width: 30, Height: 8}))

	// Grows to the right, same top/height: overlap is the original rect;
	// the residual is the new area to the right (a second strictly new
	// growth) OR, mirroring frame_test's TestResidual_PartialOverlap
	// shape, the left remainder if next shifts right without containing
	// all of prev. Use a next rect that contains prev entirely plus more
	// on the right, so growth is unambiguous and the residual is empty
	// (next fully contains prev -- no split).
	unitsNoSplit := d.process(sampleWithRects(frame.PixelRect{X: 10, Y: 85, Width: 60, Height: 8}))
	if len(unitsNoSplit) != 1 {
		t.Fatalf("expected no split when next fully contains prev, got %d units", len(unitsNoSplit))
	}

	// Now simulate a genuine partial-overlap growth: the region grows while
	// shifting right, so it only partially overlaps its previous extent,
	// leaving a residual on the left.
	d2 := New(0.05)
	d2.process(sampleWithRects(frame.PixelRect{X: 10, Y: 85, Width: 30, Height: 8}))          // prev
	units := d2.process(sampleWithRects(frame.PixelRect{X: 25, Y: 85, Width: 40, Height: 8})) // next, partial overlap, strictly bigger

	if len(units) != 2 {
		t.Fatalf("expected a split producing 2 units (matched + residual), got %d: %+v", len(units), units)
	}
}

func TestRun_PropagatesError(t *testing.T) {
	in := make(chan types.Result[types.DetectionSample], 1)
	out := make(chan types.Result[types.RegionFrame], 1)

	in <- types.Error[types.DetectionSample](errBoom)
	close(in)

	Run(nullLogger{}, New(0.05), in, out)

	r := <-out
	if r.Err != errBoom {
		t.Errorf("got err %v, want %v", r.Err, errBoom)
	}
}
