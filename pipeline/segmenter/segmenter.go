/*
DESCRIPTION
  segmenter.go implements the Segmenter stage (spec.md §4.5): it tracks,
  per persistent region id, a presence interval — the contiguous run of
  frames in which that region is reported — and closes the interval into a
  SubtitleInterval once the region stops appearing, carrying forward the
  highest-confidence frame seen as the interval's representative. The
  single-owner state-map shape follows the Region Determiner's table
  ownership convention, generalized from a mutex-guarded shared map to a
  map owned outright by the one goroutine that runs this stage.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package segmenter groups consecutive per-region presences into
// timestamped intervals with a representative frame.
package segmenter

import (
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

// presenceRecord is the per-region state described in spec.md §3.
type presenceRecord struct {
	active             bool
	startedAt          time.Duration
	startedFrameIndex  uint64
	representativeFrame *frame.Frame
	representativeRoi  frame.RoiNormalized
	lastSeenAt         time.Duration
	maxScore           float64
}

// Run reads RegionFrames from in, tracks presence per region id, and
// writes a SubtitleInterval to out every time a region's presence ends.
// On upstream close, Run closes every still-active interval using its
// last-seen timestamp as the end time, per spec.md §4.5's finalization
// rule.
func Run(log logging.Logger, in <-chan types.Result[types.RegionFrame], out chan<- types.Result[types.SubtitleInterval]) {
	defer close(out)

	state := make(map[uint64]*presenceRecord)

	for r := range in {
		eventStart := time.Now()

		if r.Err != nil {
			log.Error("segmenter received terminal error from region determiner", "error", r.Err)
			out <- types.Error[types.SubtitleInterval](r.Err)
			return
		}

		rf := r.Value
		ts := frameTimestamp(rf.Sample.Frame)
		idx := frameIndex(rf.Sample.Frame)

		present := make(map[uint64]bool, len(rf.Regions))
		for _, unit := range rf.Regions {
			present[unit.RegionID] = true

			rec, ok := state[unit.RegionID]
			if !ok || !rec.active {
				if !ok {
					rec = &presenceRecord{}
					state[unit.RegionID] = rec
				}
				rec.active = true
				rec.startedAt = ts
				rec.startedFrameIndex = idx
				rec.representativeFrame = rf.Sample.Frame
				rec.representativeRoi = unit.Roi
				rec.maxScore = unit.Score
				rec.lastSeenAt = ts
				continue
			}

			rec.lastSeenAt = ts
			if unit.Score > rec.maxScore {
				rec.maxScore = unit.Score
				rec.representativeFrame = rf.Sample.Frame
				rec.representativeRoi = unit.Roi
			}
		}

		elapsed := time.Since(eventStart)
		for id, rec := range state {
			if !rec.active || present[id] {
				continue
			}
			out <- types.Ok(closeInterval(id, rec, elapsed))
			rec.active = false
		}
	}

	finalizeStart := time.Now()
	for id, rec := range state {
		if !rec.active {
			continue
		}
		out <- types.Ok(closeInterval(id, rec, time.Since(finalizeStart)))
		rec.active = false
	}
}

func closeInterval(id uint64, rec *presenceRecord, elapsed time.Duration) types.SubtitleInterval {
	return types.SubtitleInterval{
		RegionID:            id,
		Start:               rec.startedAt,
		End:                 rec.lastSeenAt,
		StartFrameIndex:     rec.startedFrameIndex,
		RepresentativeFrame: rec.representativeFrame,
		RepresentativeRoi:   rec.representativeRoi,
		MaxScore:            rec.maxScore,
		Elapsed:             elapsed,
	}
}

func frameTimestamp(f *frame.Frame) time.Duration {
	if f.HasPTS {
		return time.Duration(f.PTS)
	}
	return 0
}

func frameIndex(f *frame.Frame) uint64 {
	if f.HasIndex {
		return f.Index
	}
	return 0
}
