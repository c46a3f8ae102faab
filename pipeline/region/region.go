/*
DESCRIPTION
  region.go implements the Region Determiner (spec.md §4.4): it maps each
  frame's raw detected rectangles onto a persistent-region table by IoU
  matching in normalized space, assigning new identities where nothing
  matches closely enough, and splitting off a residual region when a
  matched ROI has grown to subsume a meaningfully sized remainder of its
  previous extent (the "split-on-growth" heuristic). The single owning
  goroutine holding a mutex around the table mirrors revid.Revid's
  single-task-owns-state convention.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package region assigns persistent identity to per-frame detected
// regions via IoU matching, and implements the split-on-growth heuristic.
package region

import (
	"strconv"
	"sync"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

// persistentRegion is one row of the table: a stable id/label plus its
// most-recently observed ROI.
type persistentRegion struct {
	id    uint64
	label string
	roi   frame.RoiNormalized
}

// Determiner owns the persistent-region table across a pipeline run.
// Exported so a caller can construct one with an explicit MinIoU before
// handing it to Run.
type Determiner struct {
	MinIoU float64

	mu      sync.Mutex
	regions []*persistentRegion
	nextID  uint64
}

// New returns a Determiner admitting matches at minIoU or above.
func New(minIoU float64) *Determiner {
	return &Determiner{MinIoU: minIoU}
}

// Run reads DetectionSamples from in and writes RegionFrames to out,
// applying the match/insert/split policy on the shared table.
func Run(log logging.Logger, d *Determiner, in <-chan types.Result[types.DetectionSample], out chan<- types.Result[types.RegionFrame]) {
	defer close(out)

	for r := range in {
		if r.Err != nil {
			log.Error("region determiner received terminal error from detector", "error", r.Err)
			out <- types.Error[types.RegionFrame](r.Err)
			return
		}

		units := d.process(r.Value)
		out <- types.Ok(types.RegionFrame{Sample: r.Value, Regions: units})
	}
}

// process applies the match/insert/split policy for one frame's detected
// regions and returns the RegionUnits observed on it.
func (d *Determiner) process(sample types.DetectionSample) []types.RegionUnit {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, h := sample.Frame.Width, sample.Frame.Height
	claimed := make(map[*persistentRegion]bool, len(d.regions))

	var units []types.RegionUnit
	for _, det := range sample.Regions {
		roi := frame.FromPixel(det.Rect, w, h)

		best := d.bestMatch(roi, claimed)
		if best == nil {
			best = d.insert(roi)
		} else {
			claimed[best] = true
			prevRoi := best.roi
			best.roi = roi

			if resid, ok := splitOnGrowth(prevRoi, roi); ok {
				split := d.insert(resid)
				units = append(units, types.RegionUnit{
					RegionID: split.id,
					Label:    split.label,
					Roi:      split.roi,
					Score:    det.Confidence,
				})
			}
		}

		units = append(units, types.RegionUnit{
			RegionID: best.id,
			Label:    best.label,
			Roi:      best.roi,
			Score:    det.Confidence,
		})
	}
	return units
}

// bestMatch scans the table for the highest-IoU unclaimed region at or
// above d.MinIoU.
func (d *Determiner) bestMatch(roi frame.RoiNormalized, claimed map[*persistentRegion]bool) *persistentRegion {
	var best *persistentRegion
	bestIoU := d.MinIoU
	for _, pr := range d.regions {
		if claimed[pr] {
			continue
		}
		iou := frame.IoU(pr.roi, roi)
		if iou >= bestIoU {
			best = pr
			bestIoU = iou
		}
	}
	return best
}

// insert creates and registers a new persistent region for roi.
func (d *Determiner) insert(roi frame.RoiNormalized) *persistentRegion {
	d.nextID++
	pr := &persistentRegion{
		id:    d.nextID,
		label: regionLabel(d.nextID),
		roi:   roi,
	}
	d.regions = append(d.regions, pr)
	return pr
}

func regionLabel(id uint64) string {
	return "region-" + strconv.FormatUint(id, 10)
}

// splitOnGrowth implements spec.md §4.4 step 4: if next strictly contains
// more area than prev and they overlap, the largest axis-aligned residual
// of prev minus the overlap becomes a candidate new region.
func splitOnGrowth(prev, next frame.RoiNormalized) (frame.RoiNormalized, bool) {
	if next.Width*next.Height <= prev.Width*prev.Height {
		return frame.RoiNormalized{}, false
	}
	return frame.Residual(prev, next)
}
