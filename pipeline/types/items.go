/*
DESCRIPTION
  items.go defines the item types carried on the bounded channels that
  connect pipeline stages (spec.md §5), and the Result[T] envelope that
  carries either a value or a terminal error through those channels, the
  same way a stage's send/receive loop in codec/codecutil/lex.go's Noop
  forwards either a frame or an error to its caller.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package types holds the data shapes shared between pipeline stages, kept
// dependency-free of any individual stage so every stage package (and the
// top-level pipeline orchestrator) can import it without a cycle.
package types

import (
	"time"

	"github.com/ausocean/subtitlefast/frame"
)

// Result carries either a value or a terminal error. Once a stage observes
// a non-nil Err, it forwards that Result downstream and stops reading its
// input (spec.md §7's propagation rule).
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a value in a successful Result.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Error wraps an error in a failed Result.
func Error[T any](err error) Result[T] { return Result[T]{Err: err} }

// DetectionRegion is a detector-reported rectangle plus confidence.
type DetectionRegion struct {
	Rect       frame.PixelRect
	Confidence float64
}

// DetectionSample is what the Detector stage emits: a frame plus its
// detected regions, tagged with the stage-entry sequence number used by
// the reorder buffer, and how long detection took.
type DetectionSample struct {
	Seq     uint64
	Frame   *frame.Frame
	Regions []DetectionRegion
	Elapsed time.Duration
}

// RegionUnit is a persistent region's identity plus the ROI observed on
// the current frame.
type RegionUnit struct {
	RegionID uint64
	Label    string
	Roi      frame.RoiNormalized
	Score    float64
}

// RegionFrame is what the Region Determiner emits: a detection sample plus
// the RegionUnits derived from it (possibly empty, possibly containing
// extra split-on-growth residual regions beyond the raw detections).
type RegionFrame struct {
	Sample  DetectionSample
	Regions []RegionUnit
}

// SubtitleInterval is a closed (or finalization-closed) presence interval
// for one persistent region, with its chosen representative frame.
type SubtitleInterval struct {
	RegionID           uint64
	Start              time.Duration
	End                time.Duration
	StartFrameIndex    uint64
	RepresentativeFrame *frame.Frame
	RepresentativeRoi   frame.RoiNormalized
	MaxScore            float64

	// Elapsed is the segmenter's wall-clock time spent processing the
	// input event that closed this interval.
	Elapsed time.Duration
}

// OcrSegment is one normalized recognized text segment.
type OcrSegment struct {
	Rect       frame.PixelRect
	Text       string
	Confidence float64
	HasConf    bool
}

// OcrResult is the ordered, normalized output of one OCR call.
type OcrResult struct {
	Segments []OcrSegment
}

// OcrInterval is what the OCR stage emits: the interval it ran on, the OCR
// result, the pixel rect actually scanned, and how long the call took.
type OcrInterval struct {
	Interval SubtitleInterval
	Result   OcrResult
	Region   frame.PixelRect
	Elapsed  time.Duration
}

// SubtitleCue is the unit the Merger builds from one OCR segment inside an
// interval, before cache merge/dedup is applied.
type SubtitleCue struct {
	Start          time.Duration
	End            time.Duration
	StartFrame     uint64
	Text           string
	VerticalCenter float64
	RegionID       uint64
}

// MergeEventKind distinguishes a brand-new cue cluster from an update to
// an existing one.
type MergeEventKind int

const (
	MergeNew MergeEventKind = iota
	MergeUpdated
)

// SubtitleLine is one line of rendered text at a vertical position.
type SubtitleLine struct {
	VerticalCenter float64
	Text           string
}

// MergedSubtitle is the final output unit of the Merger stage.
type MergedSubtitle struct {
	ID          uint64
	Start       time.Duration
	End         time.Duration
	StartFrame  uint64
	Lines       []SubtitleLine
}

// MergeEvent is what the Merger stage emits.
type MergeEvent struct {
	Kind      MergeEventKind
	Subtitle  MergedSubtitle
}
