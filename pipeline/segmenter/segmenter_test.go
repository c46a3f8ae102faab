package segmenter

import (
	"testing"
	"time"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

type nullLogger struct{}

func (nullLogger) SetLevel(int8)                  {}
func (nullLogger) Debug(string, ...interface{})   {}
func (nullLogger) Info(string, ...interface{})    {}
func (nullLogger) Warning(string, ...interface{}) {}
func (nullLogger) Error(string, ...interface{})   {}
func (nullLogger) Fatal(string, ...interface{})   {}

func mkFrame(pts time.Duration, idx uint64) *frame.Frame {
	return &frame.Frame{
		Width: 10, Height: 10, Stride: 10, Buf: make([]byte, 100),
		PTS: int64(pts), HasPTS: true,
		Index: idx, HasIndex: true,
	}
}

func runSegmenter(in []types.Result[types.RegionFrame]) []types.Result[types.SubtitleInterval] {
	inCh := make(chan types.Result[types.RegionFrame], len(in))
	outCh := make(chan types.Result[types.SubtitleInterval], len(in)+2)
	for _, r := range in {
		inCh <- r
	}
	close(inCh)
	Run(nullLogger{}, inCh, outCh)

	var out []types.Result[types.SubtitleInterval]
	for r := range outCh {
		out = append(out, r)
	}
	return out
}

func TestSegmenter_ClosesIntervalOnAbsence(t *testing.T) {
	roi := frame.RoiNormalized{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.1}
	in := []types.Result[types.RegionFrame]{
		types.Ok(types.RegionFrame{
			Sample:  types.DetectionSample{Frame: mkFrame(0, 0)},
			Regions: []types.RegionUnit{{RegionID: 1, Roi: roi, Score: 0.5}},
		}),
		types.Ok(types.RegionFrame{
			Sample:  types.DetectionSample{Frame: mkFrame(time.Second, 1)},
			Regions: []types.RegionUnit{{RegionID: 1, Roi: roi, Score: 0.9}},
		}),
		types.Ok(types.RegionFrame{
			Sample:  types.DetectionSample{Frame: mkFrame(2 * time.Second, 2)},
			Regions: nil, // region 1 disappears.
		}),
	}
	out := runSegmenter(in)

	if len(out) != 1 {
		t.Fatalf("got %d intervals, want 1", len(out))
	}
	iv := out[0].Value
	if iv.Start != 0 || iv.End != time.Second {
		t.Errorf("interval = [%v, %v], want [0, 1s]", iv.Start, iv.End)
	}
	if iv.MaxScore != 0.9 {
		t.Errorf("MaxScore = %v, want 0.9 (highest-confidence representative)", iv.MaxScore)
	}
	if iv.Start > iv.End {
		t.Errorf("invariant violated: start %v > end %v", iv.Start, iv.End)
	}
}

func TestSegmenter_FinalizesStillActiveOnClose(t *testing.T) {
	roi := frame.RoiNormalized{X: 0, Y: 0, Width: 0.1, Height: 0.1}
	in := []types.Result[types.RegionFrame]{
		types.Ok(types.RegionFrame{
			Sample:  types.DetectionSample{Frame: mkFrame(0, 0)},
			Regions: []types.RegionUnit{{RegionID: 7, Roi: roi, Score: 0.3}},
		}),
	}
	out := runSegmenter(in)

	if len(out) != 1 {
		t.Fatalf("got %d intervals, want 1 (finalization close)", len(out))
	}
	if out[0].Value.RegionID != 7 {
		t.Errorf("RegionID = %d, want 7", out[0].Value.RegionID)
	}
}
