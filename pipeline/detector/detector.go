/*
DESCRIPTION
  detector.go implements the third pipeline stage (spec.md §4.3): a pool of
  K worker goroutines invoking a region-detector callback, with a reorder
  buffer that re-serializes results by sequence number so downstream stages
  see a strictly seq-monotonic stream despite workers completing out of
  order. The fan-out/fan-in shape is grounded on filter/basic.go's
  sync.WaitGroup worker style, generalized from a single shared struct to
  K independent detector handles.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package detector runs the region-detector callback across a worker pool
// while preserving frame order downstream.
package detector

import (
	"errors"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

var errNoWorkers = errors.New("detector: no workers configured")

// RegionDetector is the out-of-scope collaborator spec.md §6 names: a
// pure, thread-safe function from a luma frame (plus an optional ROI
// constraint) to a list of detected regions. Implementations may be
// invoked concurrently from multiple workers.
type RegionDetector interface {
	Detect(f *frame.Frame, roi *frame.RoiNormalized) ([]types.DetectionRegion, error)
}

// Run assigns each sampled frame a monotonically increasing sequence
// number at stage entry, round-robin dispatches it to one of workers
// independent RegionDetector handles, and re-serializes the results by
// seq before writing to out.
//
// On any worker error, Run forwards the error (after draining and
// emitting any lower-seq results already in hand, per the reorder
// buffer's normal discipline) and stops dispatching further work.
func Run(log logging.Logger, workers []RegionDetector, roi *frame.RoiNormalized, in <-chan types.Result[*frame.Frame], out chan<- types.Result[types.DetectionSample]) {
	defer close(out)

	if len(workers) == 0 {
		out <- types.Error[types.DetectionSample](&types.InternalError{Err: errNoWorkers})
		return
	}

	type outcome struct {
		seq  uint64
		res  types.Result[types.DetectionSample]
	}

	// Each worker owns a small job queue; the dispatcher feeds the queues
	// round-robin by seq.
	work := make([]chan job, len(workers))
	for i := range work {
		work[i] = make(chan job, 2)
	}
	results := make(chan outcome, len(workers)*2)

	// stop is closed once, either by the dispatcher itself (on an upstream
	// error from in) or by the reorder buffer (on a worker-side terminal
	// error surfacing through results), so the dispatcher stops feeding
	// work the moment either source goes terminal.
	stop := make(chan struct{})
	var stopOnce sync.Once
	stopDispatch := func() { stopOnce.Do(func() { close(stop) }) }

	var wg sync.WaitGroup
	for i, w := range workers {
		wg.Add(1)
		go func(w RegionDetector, jobs <-chan job) {
			defer wg.Done()
			for j := range jobs {
				start := time.Now()
				regions, err := w.Detect(j.f, roi)
				elapsed := time.Since(start)
				if err != nil {
					results <- outcome{j.seq, types.Error[types.DetectionSample](&types.DetectorError{Err: err})}
					continue
				}
				results <- outcome{j.seq, types.Ok(types.DetectionSample{
					Seq:     j.seq,
					Frame:   j.f,
					Regions: regions,
					Elapsed: elapsed,
				})}
			}
		}(w, work[i])
	}

	// Dispatcher: reads in, assigns seq, feeds work. Closes work and
	// returns once in is exhausted, an upstream terminal error arrives, or
	// stop fires because a worker went terminal first.
	dispatchDone := make(chan struct{})
	go func() {
		defer close(dispatchDone)
		defer func() {
			for _, c := range work {
				close(c)
			}
		}()

		var seq uint64
		for {
			select {
			case r, ok := <-in:
				if !ok {
					return
				}
				if r.Err != nil {
					log.Error("detector received terminal error from sampler", "error", r.Err)
					results <- outcome{seq, types.Error[types.DetectionSample](r.Err)}
					stopDispatch()
					return
				}
				select {
				case work[seq%uint64(len(work))] <- job{seq: seq, f: r.Value}:
					seq++
				case <-stop:
					return
				}
			case <-stop:
				return
			}
		}
	}()

	go func() {
		<-dispatchDone
		wg.Wait()
		close(results)
	}()

	// Reorder buffer: buffer out-of-order outcomes keyed by seq, emit in
	// strict seq order.
	pending := make(map[uint64]outcome)
	var cursor uint64
	terminal := false

	for o := range results {
		if terminal {
			continue
		}
		pending[o.seq] = o
		for {
			next, ok := pending[cursor]
			if !ok {
				break
			}
			delete(pending, cursor)
			out <- next.res
			if next.res.Err != nil {
				terminal = true
				stopDispatch()
				break
			}
			cursor++
		}
	}
}

type job struct {
	seq uint64
	f   *frame.Frame
}
