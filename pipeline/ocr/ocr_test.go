package ocr

import (
	"errors"
	"testing"

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

type fakeEngine struct {
	warmUpErr    error
	recognizeErr error
	result       types.OcrResult
	warmedUp     bool
}

func (e *fakeEngine) WarmUp() error {
	e.warmedUp = true
	return e.warmUpErr
}

func (e *fakeEngine) Recognize(f *frame.Frame, rects []frame.PixelRect) (types.OcrResult, error) {
	return e.result, e.recognizeErr
}

func mkFrame() *frame.Frame {
	return &frame.Frame{Width: 100, Height: 100, Stride: 100, Buf: make([]byte, 10000)}
}

func runOCR(engine Engine, in []types.Result[types.SubtitleInterval]) []types.Result[types.OcrInterval] {
	inCh := make(chan types.Result[types.SubtitleInterval], len(in))
	outCh := make(chan types.Result[types.OcrInterval], len(in)+1)
	for _, r := range in {
		inCh <- r
	}
	close(inCh)
	Run(nullLogger{}, engine, inCh, outCh)

	var out []types.Result[types.OcrInterval]
	for r := range outCh {
		out = append(out, r)
	}
	return out
}

func TestOCR_NormalizesText(t *testing.T) {
	engine := &fakeEngine{result: types.OcrResult{Segments: []types.OcrSegment{
		{Text: "  hello   world  "},
		{Text: "   "}, // dropped: empty after normalization.
	}}}

	in := []types.Result[types.SubtitleInterval]{
		types.Ok(types.SubtitleInterval{
			RepresentativeFrame: mkFrame(),
			RepresentativeRoi:   frame.RoiNormalized{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.1},
		}),
	}
	out := runOCR(engine, in)

	if !engine.warmedUp {
		t.Fatal("expected WarmUp to be called")
	}
	if len(out) != 1 {
		t.Fatalf("got %d results, want 1", len(out))
	}
	segs := out[0].Value.Result.Segments
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1 (empty one dropped)", len(segs))
	}
	if segs[0].Text != "hello world" {
		t.Errorf("text = %q, want %q", segs[0].Text, "hello world")
	}
}

func TestOCR_WarmUpFailureIsFatal(t *testing.T) {
	engine := &fakeEngine{warmUpErr: errors.New("model load failed")}
	out := runOCR(engine, nil)

	if len(out) != 1 {
		t.Fatalf("got %d results, want 1 (the warm-up error)", len(out))
	}
	var ocrErr *types.OcrError
	if !errors.As(out[0].Err, &ocrErr) {
		t.Fatalf("expected OcrError, got %T: %v", out[0].Err, out[0].Err)
	}
}

func TestOCR_EmptyRectWhenRoiDegenerate(t *testing.T) {
	engine := &fakeEngine{}
	in := []types.Result[types.SubtitleInterval]{
		types.Ok(types.SubtitleInterval{
			RepresentativeFrame: mkFrame(),
			RepresentativeRoi:   frame.RoiNormalized{X: 2, Y: 2, Width: 0.1, Height: 0.1}, // out of bounds.
		}),
	}
	out := runOCR(engine, in)

	if len(out) != 1 {
		t.Fatalf("got %d results, want 1", len(out))
	}
	if len(out[0].Value.Result.Segments) != 0 {
		t.Errorf("expected empty OcrResult for a degenerate ROI")
	}
}
