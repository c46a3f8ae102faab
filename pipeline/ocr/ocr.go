/*
DESCRIPTION
  ocr.go implements the OCR stage (spec.md §4.6): for each closed
  SubtitleInterval, clamp its representative ROI to a pixel rect, invoke
  the OCR engine once over the representative frame, and normalize the
  returned text segments (collapse whitespace, trim, drop empties). OCR
  is sequential and single-worker per spec.md, so this stage has none of
  detector's reorder machinery.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ocr runs the OCR engine over one representative frame per
// presence interval.
package ocr

import (
	"strings"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

// Engine is the out-of-scope collaborator spec.md §6 names: WarmUp is
// called once before the first Recognize call; Recognize is only ever
// invoked from this stage's single goroutine, so implementations need
// not be thread-safe.
type Engine interface {
	WarmUp() error
	Recognize(f *frame.Frame, rects []frame.PixelRect) (types.OcrResult, error)
}

// Run calls engine.WarmUp() once, then for every SubtitleInterval on in,
// clamps its representative ROI and invokes engine.Recognize, writing a
// normalized OcrInterval to out. A WarmUp failure or any Recognize error
// is fatal and terminates the pipeline, per spec.md §4.6.
func Run(log logging.Logger, engine Engine, in <-chan types.Result[types.SubtitleInterval], out chan<- types.Result[types.OcrInterval]) {
	defer close(out)

	if err := engine.WarmUp(); err != nil {
		log.Error("ocr engine warm-up failed", "error", err)
		out <- types.Error[types.OcrInterval](&types.OcrError{Err: err})
		return
	}

	for r := range in {
		if r.Err != nil {
			log.Error("ocr received terminal error from segmenter", "error", r.Err)
			out <- types.Error[types.OcrInterval](r.Err)
			return
		}

		iv := r.Value
		rect, ok := clampRoi(iv.RepresentativeRoi, iv.RepresentativeFrame)
		if !ok {
			out <- types.Ok(types.OcrInterval{Interval: iv, Result: types.OcrResult{}, Region: frame.PixelRect{}})
			continue
		}

		start := time.Now()
		result, err := engine.Recognize(iv.RepresentativeFrame, []frame.PixelRect{rect})
		elapsed := time.Since(start)
		if err != nil {
			log.Error("ocr engine failed", "error", err)
			out <- types.Error[types.OcrInterval](&types.OcrError{Err: err})
			return
		}

		out <- types.Ok(types.OcrInterval{
			Interval: iv,
			Result:   normalize(result),
			Region:   rect,
			Elapsed:  elapsed,
		})
	}
}

// clampRoi converts a normalized ROI to pixel space against f and clamps
// it to frame bounds, enforcing minimum width/height of 1 per spec.md
// §4.6 step 2.
func clampRoi(roi frame.RoiNormalized, f *frame.Frame) (frame.PixelRect, bool) {
	if f == nil {
		return frame.PixelRect{}, false
	}
	r := roi.ToPixel(f.Width, f.Height)
	return r.Clip(f.Width, f.Height)
}

// normalize collapses internal whitespace to single spaces, trims, and
// drops empty segments.
func normalize(result types.OcrResult) types.OcrResult {
	out := types.OcrResult{Segments: make([]types.OcrSegment, 0, len(result.Segments))}
	for _, seg := range result.Segments {
		text := collapseWhitespace(seg.Text)
		if text == "" {
			continue
		}
		seg.Text = text
		out.Segments = append(out.Segments, seg)
	}
	return out
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
