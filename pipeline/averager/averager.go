/*
DESCRIPTION
  averager.go implements the Averager stage (spec.md §4.8): it observes the
  Merger's output stream, maintains an EMA of detection latency, running
  averages of segmenter/OCR wall-time, cumulative cue/merge/empty-OCR
  counts, and emits a PipelineProgress snapshot on every Merger event plus
  one final snapshot on upstream close. The EMA'd rate tracking reuses
  github.com/ausocean/utils/bitrate.Calculator (normally a byte-rate
  counter for revid.Revid's senders) repurposed to count sampled frames
  instead of bytes, giving a smoothed secondary FPS figure alongside the
  spec's literal fps formula.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package averager aggregates per-stage timing and emits progress
// snapshots for UI/CLI consumers.
package averager

import (
	"sync"
	"time"

	"github.com/ausocean/utils/bitrate"
	"github.com/ausocean/utils/logging"
	"gonum.org/v1/gonum/stat"

	"github.com/ausocean/subtitlefast/pipeline/types"
	"github.com/ausocean/subtitlefast/progress"
)

const detectionEMAAlpha = 0.1

// Averager accumulates the running statistics behind a PipelineProgress
// snapshot. Observe and ObserveMergeEvent may be called concurrently from
// separate tap goroutines (one per upstream stage whose timing is being
// folded in); a mutex guards the shared counters.
type Averager struct {
	mu sync.Mutex

	totalFrames uint64

	samplesSeen      uint64
	latestFrameIndex uint64

	detMsEMA   float64
	haveDetEMA bool

	segMsSamples []float64
	ocrMsSamples []float64

	cues     uint64
	merged   uint64
	ocrEmpty uint64

	rate  bitrate.Calculator
	start time.Time
}

// New returns an Averager. totalFrames of 0 means unknown (spec.md §4.8's
// fractional-progress formula is then skipped).
func New(totalFrames uint64) *Averager {
	return &Averager{totalFrames: totalFrames, start: timeNow()}
}

// timeNow is a seam so tests can stand in a fixed start time; production
// callers get the real wall clock.
var timeNow = time.Now

// Observe folds one frame's per-stage timings into the running averages.
// hasDet/hasSeg/hasOcr select which of detMs/segMs/ocrMs this call carries:
// a value whose flag is false is ignored, and a value whose flag is true is
// folded in even when it is 0. Only the
// detection tap carries one call per sampled frame; segmenter/OCR taps run
// at their own, smaller cardinality (per closed interval), so samplesSeen
// and the frame-rate counters only advance when hasDet is set.
func (a *Averager) Observe(frameIndex uint64, detMs, segMs, ocrMs float64, hasDet, hasSeg, hasOcr bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if hasDet {
		a.samplesSeen++
		if frameIndex > a.latestFrameIndex {
			a.latestFrameIndex = frameIndex
		}
		a.rate.Report(1)

		if !a.haveDetEMA {
			a.detMsEMA = detMs
			a.haveDetEMA = true
		} else {
			a.detMsEMA = detectionEMAAlpha*detMs + (1-detectionEMAAlpha)*a.detMsEMA
		}
	}
	if hasSeg {
		a.segMsSamples = append(a.segMsSamples, segMs)
	}
	if hasOcr {
		a.ocrMsSamples = append(a.ocrMsSamples, ocrMs)
	}
}

// ObserveMergeEvent records the Merger's current running totals (cues,
// merged, ocr_empty — authoritative on the Merger side, per spec.md §4.7)
// and returns a progress snapshot. Called once per MergeEvent.
func (a *Averager) ObserveMergeEvent(cues, merged, ocrEmpty uint64) progress.PipelineProgress {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cues = cues
	a.merged = merged
	a.ocrEmpty = ocrEmpty
	return a.snapshot(false)
}

// Finalize returns the final snapshot with Completed=true.
func (a *Averager) Finalize() progress.PipelineProgress {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.snapshot(true)
}

// snapshot must be called with a.mu held.
func (a *Averager) snapshot(completed bool) progress.PipelineProgress {
	elapsed := time.Since(a.start).Seconds()
	var fps float64
	if elapsed > 0 {
		fps = float64(a.latestFrameIndex) / elapsed
	}

	var fractional float64
	if a.totalFrames > 0 {
		fractional = float64(a.latestFrameIndex) / float64(a.totalFrames)
	}

	return progress.PipelineProgress{
		SamplesSeen:         a.samplesSeen,
		LatestFrameIndex:    a.latestFrameIndex,
		TotalFrames:         a.totalFrames,
		FPS:                 fps,
		RecentFPS:           float64(a.rate.Bitrate()),
		DetMsEMA:            a.detMsEMA,
		SegMsAvg:            mean(a.segMsSamples),
		OcrMsAvg:            mean(a.ocrMsSamples),
		Cues:                a.cues,
		Merged:              a.merged,
		OcrEmpty:            a.ocrEmpty,
		FractionalProgress:  fractional,
		Completed:           completed,
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}

// Stats is the subset of merger.Stats the Averager needs; defined here
// (rather than importing package merger) to keep this package a leaf.
type Stats struct {
	Cues     uint64
	Merged   uint64
	OcrEmpty uint64
}

// Run drives an Averager end-to-end: for every MergeEvent observed on in,
// it asks currentStats for the Merger's latest running totals and emits a
// progress snapshot on out; on upstream close (clean or terminal-error),
// it emits one final snapshot with Completed=true.
func Run(log logging.Logger, a *Averager, currentStats func() Stats, in <-chan types.Result[types.MergeEvent], out chan<- progress.PipelineProgress) {
	defer close(out)

	for r := range in {
		if r.Err != nil {
			log.Error("averager received terminal error from merger", "error", r.Err)
			break
		}
		s := currentStats()
		out <- a.ObserveMergeEvent(s.Cues, s.Merged, s.OcrEmpty)
	}
	out <- a.Finalize()
}
