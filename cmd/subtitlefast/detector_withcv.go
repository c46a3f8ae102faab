//go:build withcv
// +build withcv

/*
DESCRIPTION
  detector_withcv.go wires the real gocv-backed region detector, mirroring
  cmd/rv/probe.go's withcv/!withcv stub pairing.

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
	"github.com/ausocean/subtitlefast/pipeline/detector"
	"github.com/ausocean/subtitlefast/pipeline/detector/lumaband"
)

// newDetector builds the luma-band contour detector used by builds
// compiled with OpenCV support.
func newDetector(target, delta uint8, minArea float64) detector.RegionDetector {
	return lumaband.New(target, delta, minArea)
}
