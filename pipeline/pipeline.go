/*
DESCRIPTION
  pipeline.go wires the eight stages (Sorter, Sampler, Detector, Region
  Determiner, Segmenter, OCR, Merger, Averager) together via the bounded
  channels spec.md §5 specifies, tees Detector/OCR timings into the
  Averager, and exposes a Registry of in-flight runs keyed by run id for
  external cancellation (spec.md §9), modeled on revid.Revid's
  running/wg/err-chan lifecycle.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package pipeline wires the subtitle-extraction stages into a runnable
// whole and tracks in-flight runs for external cancellation.
package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ausocean/subtitlefast/decoder"
	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/averager"
	"github.com/ausocean/subtitlefast/pipeline/config"
	"github.com/ausocean/subtitlefast/pipeline/detector"
	"github.com/ausocean/subtitlefast/pipeline/merger"
	"github.com/ausocean/subtitlefast/pipeline/ocr"
	"github.com/ausocean/subtitlefast/pipeline/region"
	"github.com/ausocean/subtitlefast/pipeline/sampler"
	"github.com/ausocean/subtitlefast/pipeline/segmenter"
	"github.com/ausocean/subtitlefast/pipeline/sorter"
	"github.com/ausocean/subtitlefast/pipeline/types"
	"github.com/ausocean/subtitlefast/progress"
)

// Channel capacities, per spec.md §5.
const (
	capSorterToSampler   = 64
	capSamplerToDetector = 2
	capDetectorToRegion  = 2
	capRegionToSegmenter = 4
	capSegmenterToOcr    = 4
	capOcrToMerger       = 4
	capMergerToAverager  = 4
)

// Pipeline is one configured, runnable instance of the eight-stage chain.
// Build one with New, then run it via a Registry (or call Run directly
// for a synchronous, single-shot invocation).
type Pipeline struct {
	cfg    config.Config
	dec    decoder.Decoder
	detW   []detector.RegionDetector
	ocrEng ocr.Engine

	// Subtitles and Progress are the pipeline's two public output
	// streams. Both are closed when Run returns.
	Subtitles chan types.MergeEvent
	Progress  chan progress.PipelineProgress

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// New constructs a Pipeline. cfg must already be Validate()d.
func New(cfg config.Config, dec decoder.Decoder, detectors []detector.RegionDetector, ocrEngine ocr.Engine) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		dec:       dec,
		detW:      detectors,
		ocrEng:    ocrEngine,
		Subtitles: make(chan types.MergeEvent, capMergerToAverager),
		Progress:  make(chan progress.PipelineProgress, 1),
	}
}

// Run starts every stage and blocks until the decoder is exhausted or ctx
// is cancelled, draining and finalizing every downstream stage in turn,
// then closes Subtitles and Progress. Callers that want to keep consuming
// those channels while Run is still draining should call Run from its own
// goroutine; Registry.Start does exactly that.
func (p *Pipeline) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancelMu.Lock()
	p.cancel = cancel
	p.cancelMu.Unlock()
	defer cancel()

	decOut := make(chan types.Result[*frame.Frame], capSorterToSampler)
	sortOut := make(chan types.Result[*frame.Frame], capSorterToSampler)
	sampOut := make(chan types.Result[*frame.Frame], capSamplerToDetector)
	detOut := make(chan types.Result[types.DetectionSample], capDetectorToRegion)
	regOut := make(chan types.Result[types.RegionFrame], capRegionToSegmenter)
	segOut := make(chan types.Result[types.SubtitleInterval], capSegmenterToOcr)
	ocrOut := make(chan types.Result[types.OcrInterval], capOcrToMerger)
	mergeOut := make(chan types.Result[types.MergeEvent], capMergerToAverager)
	avgIn := make(chan types.Result[types.MergeEvent], capMergerToAverager)
	progOut := make(chan progress.PipelineProgress, 1)

	m := merger.New(time.Duration(p.cfg.CacheWindowMS)*time.Millisecond, time.Duration(p.cfg.MergeGapMS)*time.Millisecond)
	avg := averager.New(p.cfg.TotalFrames)

	var wg sync.WaitGroup
	run := func(f func()) {
		wg.Add(1)
		go func() { defer wg.Done(); f() }()
	}

	// Detector, Segmenter and OCR are tapped (not just piped) so their
	// per-unit elapsed time reaches the Averager.
	detTapped := make(chan types.Result[types.DetectionSample], capDetectorToRegion)
	segTapped := make(chan types.Result[types.SubtitleInterval], capSegmenterToOcr)
	ocrTapped := make(chan types.Result[types.OcrInterval], capOcrToMerger)

	run(func() {
		if err := p.dec.Start(ctx, decOut); err != nil {
			p.cfg.Logger.Error("decoder returned an error", "error", err)
		}
	})
	run(func() { sorter.Run(p.cfg.Logger, decOut, sortOut) })
	run(func() { sampler.Run(p.cfg.Logger, p.cfg.SamplesPerSecond, sortOut, sampOut) })
	run(func() { detector.Run(p.cfg.Logger, p.detW, p.cfg.RoiOverride, sampOut, detOut) })
	run(func() { tapDetections(avg, detOut, detTapped) })
	run(func() { region.Run(p.cfg.Logger, region.New(p.cfg.MinRegionIoU), detTapped, regOut) })
	run(func() { segmenter.Run(p.cfg.Logger, regOut, segOut) })
	run(func() { tapSegmenter(avg, segOut, segTapped) })
	run(func() { ocr.Run(p.cfg.Logger, p.ocrEng, segTapped, ocrOut) })
	run(func() { tapOcr(avg, ocrOut, ocrTapped) })
	run(func() { merger.Run(p.cfg.Logger, m, ocrTapped, mergeOut) })
	run(func() { teeMergeEvents(mergeOut, avgIn, p.Subtitles) })
	run(func() {
		statsOf := func() averager.Stats {
			s := m.Stats()
			return averager.Stats{Cues: s.Cues, Merged: s.Merged, OcrEmpty: s.OcrEmpty}
		}
		averager.Run(p.cfg.Logger, avg, statsOf, avgIn, progOut)
	})
	run(func() {
		for pr := range progOut {
			p.Progress <- pr
		}
		close(p.Progress)
	})

	wg.Wait()
}

// Cancel stops the pipeline's decode loop; every downstream stage then
// drains whatever is already in flight and finalizes per spec.md §5's
// cancellation rule.
func (p *Pipeline) Cancel() {
	p.cancelMu.Lock()
	c := p.cancel
	p.cancelMu.Unlock()
	if c != nil {
		c()
	}
}

// tapDetections forwards every DetectionSample unchanged while also
// folding its Elapsed time into the Averager as a detection-latency
// observation.
func tapDetections(avg *averager.Averager, in <-chan types.Result[types.DetectionSample], out chan<- types.Result[types.DetectionSample]) {
	defer close(out)
	for r := range in {
		if r.Err == nil {
			avg.Observe(r.Value.Frame.Index, float64(r.Value.Elapsed.Milliseconds()), 0, 0, true, false, false)
		}
		out <- r
	}
}

// tapSegmenter forwards every SubtitleInterval unchanged while also
// folding its Elapsed time into the Averager as a segmenter-latency
// observation.
func tapSegmenter(avg *averager.Averager, in <-chan types.Result[types.SubtitleInterval], out chan<- types.Result[types.SubtitleInterval]) {
	defer close(out)
	for r := range in {
		if r.Err == nil {
			avg.Observe(r.Value.StartFrameIndex, 0, float64(r.Value.Elapsed.Milliseconds()), 0, false, true, false)
		}
		out <- r
	}
}

// tapOcr forwards every OcrInterval unchanged while also folding its
// Elapsed time into the Averager as an OCR-latency observation.
func tapOcr(avg *averager.Averager, in <-chan types.Result[types.OcrInterval], out chan<- types.Result[types.OcrInterval]) {
	defer close(out)
	for r := range in {
		if r.Err == nil {
			avg.Observe(r.Value.Interval.StartFrameIndex, 0, 0, float64(r.Value.Elapsed.Milliseconds()), false, false, true)
		}
		out <- r
	}
}

// teeMergeEvents fans the Merger's event stream out to both the
// Averager's input and the Pipeline's public Subtitles channel, closing
// both once the source closes.
func teeMergeEvents(src <-chan types.Result[types.MergeEvent], avgIn chan<- types.Result[types.MergeEvent], subtitles chan<- types.MergeEvent) {
	defer close(avgIn)
	defer close(subtitles)
	for r := range src {
		if r.Err == nil {
			subtitles <- r.Value
		}
		avgIn <- r
	}
}

// Registry tracks in-flight pipeline runs keyed by an external run id, per
// spec.md §9's guidance that the only process-wide mutable state is the
// set of active runs. It is the sole shared mutable surface a host
// process (cmd/subtitlefast, or an embedding service) needs.
type Registry struct {
	mu   sync.Mutex
	runs map[string]*Pipeline
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{runs: make(map[string]*Pipeline)}
}

// ErrRunExists is returned by Start when id is already registered.
var ErrRunExists = errors.New("pipeline: run id already registered")

// ErrRunNotFound is returned by Cancel for an unknown id.
var ErrRunNotFound = errors.New("pipeline: run id not found")

// Start registers p under id and runs it in its own goroutine, removing
// the registration once it finishes. Returns ErrRunExists if id is
// already in use.
func (r *Registry) Start(ctx context.Context, id string, p *Pipeline) error {
	r.mu.Lock()
	if _, exists := r.runs[id]; exists {
		r.mu.Unlock()
		return ErrRunExists
	}
	r.runs[id] = p
	r.mu.Unlock()

	go func() {
		p.Run(ctx)
		r.mu.Lock()
		delete(r.runs, id)
		r.mu.Unlock()
	}()
	return nil
}

// Cancel stops the run registered under id. Returns ErrRunNotFound if no
// such run is active.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	p, ok := r.runs[id]
	r.mu.Unlock()
	if !ok {
		return ErrRunNotFound
	}
	p.Cancel()
	return nil
}

// Active reports whether id currently names a running pipeline.
func (r *Registry) Active(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.runs[id]
	return ok
}
