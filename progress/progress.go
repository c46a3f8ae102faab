/*
DESCRIPTION
  progress.go defines the PipelineProgress snapshot emitted by the Averager
  stage for UI/CLI consumers (spec.md §3, §6).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package progress defines the pipeline's progress snapshot type. The
// Averager stage is the sole producer; GUI and CLI consumers are purely
// observers (spec.md §1 Non-goals), so this package has no dependents
// inside the core beyond that one producer.
package progress

// PipelineProgress is a point-in-time snapshot of pipeline health,
// produced by the Averager on every Merger event plus one final snapshot
// with Completed=true on upstream close.
type PipelineProgress struct {
	SamplesSeen      uint64
	LatestFrameIndex uint64
	TotalFrames      uint64 // Zero means unknown.

	// FPS is latest_frame_index / wall_elapsed, per spec.md §4.8, exactly.
	FPS float64

	// RecentFPS is a secondary, EMA-smoothed ingestion rate, derived from
	// github.com/ausocean/utils/bitrate.Calculator repurposed to count
	// sampled frames instead of bytes (see DESIGN.md). It is not part of
	// the spec's literal formula and exists only as a supplementary
	// smoothed-rate metric.
	RecentFPS float64

	// DetMsEMA is the EMA (alpha=0.1) of detection latency in milliseconds.
	DetMsEMA float64

	// SegMsAvg and OcrMsAvg are arithmetic averages of segmenter and OCR
	// wall-time per unit emitted, in milliseconds.
	SegMsAvg float64
	OcrMsAvg float64

	Cues     uint64
	Merged   uint64
	OcrEmpty uint64

	// FractionalProgress is LatestFrameIndex / TotalFrames if TotalFrames
	// is known, else 0.
	FractionalProgress float64

	Completed bool
}
