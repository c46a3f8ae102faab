/*
DESCRIPTION
  config.go holds the configuration settings for the subtitlefast frame-
  processing pipeline.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the configuration settings for the subtitlefast
// pipeline.
package config

import (
	"fmt"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitlefast/frame"
)

// Defaults, per spec.md §6.
const (
	DefaultSamplesPerSecond    = 7
	DefaultMergeGapMS          = 120
	DefaultCacheWindowMS       = 2000
	DefaultDetectorParallelism = 1
	DefaultMinIoU              = 0.05
)

// Config provides the parameters relevant to a pipeline run. Defaults are
// backfilled by Validate for any zero-valued field that has one; fields
// with no sane default instead cause Validate to fail.
type Config struct {
	// Logger receives all pipeline diagnostics. Required.
	Logger logging.Logger

	// SamplesPerSecond is the maximum number of frames the Sampler stage
	// will emit per second of source media time. Must be >= 1.
	SamplesPerSecond uint32

	// LumaBandTarget and LumaBandDelta are forwarded to the region
	// detector opaquely; the core does not interpret them.
	LumaBandTarget uint8
	LumaBandDelta  uint8

	// RoiOverride, if set, constrains the detector to a single region of
	// interest instead of scanning the whole frame.
	RoiOverride    *frame.RoiNormalized
	MinRegionIoU   float64 // Minimum IoU for the Region Determiner to admit a match. Default DefaultMinIoU.
	MergeGapMS     uint32  // Default DefaultMergeGapMS.
	CacheWindowMS  uint32  // Default DefaultCacheWindowMS.
	DetectorParallelism uint32 // Default DefaultDetectorParallelism.

	// TotalFrames, if known ahead of time, lets the Averager report
	// fractional progress. Zero means unknown.
	TotalFrames uint64
}

// Validate checks the Config for invalid combinations, backfills defaults
// for unset-but-defaultable fields (logging each backfill at Warning), and
// returns a ConfigurationError for anything that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Logger == nil {
		return NewConfigurationError("Logger must be set")
	}

	if c.SamplesPerSecond == 0 {
		c.logInvalidField("SamplesPerSecond", DefaultSamplesPerSecond)
		c.SamplesPerSecond = DefaultSamplesPerSecond
	}

	if c.MergeGapMS == 0 {
		c.logInvalidField("MergeGapMS", DefaultMergeGapMS)
		c.MergeGapMS = DefaultMergeGapMS
	}

	if c.CacheWindowMS == 0 {
		c.logInvalidField("CacheWindowMS", DefaultCacheWindowMS)
		c.CacheWindowMS = DefaultCacheWindowMS
	}

	if c.DetectorParallelism == 0 {
		c.logInvalidField("DetectorParallelism", DefaultDetectorParallelism)
		c.DetectorParallelism = DefaultDetectorParallelism
	}

	if c.MinRegionIoU == 0 {
		c.logInvalidField("MinRegionIoU", DefaultMinIoU)
		c.MinRegionIoU = DefaultMinIoU
	}

	if c.RoiOverride != nil {
		r := *c.RoiOverride
		if r.X < 0 || r.Y < 0 || r.Width <= 0 || r.Height <= 0 || r.X+r.Width > 1 || r.Y+r.Height > 1 {
			return NewConfigurationError(fmt.Sprintf("RoiOverride %+v is out of [0,1] bounds or has zero area", r))
		}
	}

	return nil
}

// logInvalidField logs a Warning that field was unset/invalid and has been
// defaulted to def, mirroring revid/config.Config.LogInvalidField.
func (c *Config) logInvalidField(field string, def interface{}) {
	if c.Logger == nil {
		return
	}
	c.Logger.Warning("invalid or unset config field, using default", "field", field, "default", def)
}
