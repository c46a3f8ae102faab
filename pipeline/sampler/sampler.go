/*
DESCRIPTION
  sampler.go implements the second pipeline stage (spec.md §4.2): it
  enforces "at most N samples per second of source media time" by
  partitioning time into 1-second buckets with N target offsets each and
  greedily consuming every target an incoming frame's offset has reached.
  This generalizes filter/vfps.go's VariableFPS gate (a frame counter
  deciding which frames pass) to a timestamp-bucket target schedule.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sampler throttles the sorted frame stream to at most N frames
// per second of source media time.
package sampler

import (
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

// Run reads sorted frames from in and writes to out at most n per second
// of source time, dropping the rest. Frames without a PTS get a synthetic
// one derived from their position in the stream (processed_index), per
// spec.md §4.2, so sampling stays stable for decoders that never supply
// timestamps.
func Run(log logging.Logger, n uint32, in <-chan types.Result[*frame.Frame], out chan<- types.Result[*frame.Frame]) {
	defer close(out)

	if n == 0 {
		n = 1
	}

	var (
		bucket       int64 = -1
		targetCursor uint32
		processed    uint64
	)

	for r := range in {
		if r.Err != nil {
			log.Error("sampler received terminal error from sorter", "error", r.Err)
			out <- types.Error[*frame.Frame](r.Err)
			return
		}

		f := r.Value
		processed++

		b, offset := bucketAndOffset(f, processed-1, n)

		if b != bucket {
			bucket = b
			targetCursor = 0
		}

		// Consume every target offset the current frame's offset has
		// reached or passed; a single frame may consume more than one
		// target if frames arrived sparsely within the bucket.
		consumed := false
		for targetCursor < n && offset >= targetOffset(targetCursor, n) {
			targetCursor++
			consumed = true
		}

		if !consumed {
			continue
		}
		out <- types.Ok(f)
	}
}

// bucketAndOffset returns the 1-second bucket index and in-bucket offset
// (seconds) for f, using its PTS if present, else synthesizing one from
// its position in the stream as spec.md §4.2 prescribes.
func bucketAndOffset(f *frame.Frame, processedIndex uint64, n uint32) (int64, float64) {
	if f.HasPTS {
		secs := float64(f.PTS) / float64(time.Second)
		b := int64(secs)
		return b, secs - float64(b)
	}
	b := int64(processedIndex / uint64(n))
	offset := float64(processedIndex%uint64(n)) / float64(n)
	return b, offset
}

// targetOffset returns the k-th of n target offsets within a 1-second
// bucket: k/n.
func targetOffset(k, n uint32) float64 {
	return float64(k) / float64(n)
}
