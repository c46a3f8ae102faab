//go:build !withcv
// +build !withcv

/*
DESCRIPTION
  detector_nocv.go is the no-op region detector stub used for builds
  compiled without OpenCV, mirroring cmd/rv/probe_circleci.go.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package main

import (
	"errors"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/detector"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

// noopDetector reports an error on every call, so a build without OpenCV
// fails loudly at runtime rather than silently producing no subtitles.
type noopDetector struct{}

func (noopDetector) Detect(f *frame.Frame, roi *frame.RoiNormalized) ([]types.DetectionRegion, error) {
	return nil, errors.New("region detection requires a build tagged withcv")
}

// newDetector builds the region detector used by builds compiled without
// OpenCV support: a stub that errors rather than silently skipping frames.
func newDetector(target, delta uint8, minArea float64) detector.RegionDetector {
	return noopDetector{}
}
