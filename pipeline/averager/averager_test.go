package averager

import (
	"testing"

	"github.com/ausocean/subtitlefast/pipeline/types"
	"github.com/ausocean/subtitlefast/progress"
)

type nullLogger struct{}

func (nullLogger) SetLevel(int8)                  {}
func (nullLogger) Debug(string, ...interface{})   {}
func (nullLogger) Info(string, ...interface{})    {}
func (nullLogger) Warning(string, ...interface{}) {}
func (nullLogger) Error(string, ...interface{})   {}
func (nullLogger) Fatal(string, ...interface{})   {}

func noStats() Stats { return Stats{} }

// TestAverager_EmptyStreamEmitsFinalSnapshot mirrors spec.md §8 scenario 1:
// no upstream events at all still produces exactly one final snapshot
// with Completed=true and samples_seen=0.
func TestAverager_EmptyStreamEmitsFinalSnapshot(t *testing.T) {
	a := New(0)
	in := make(chan types.Result[types.MergeEvent])
	out := make(chan progress.PipelineProgress, 1)
	close(in)

	Run(nullLogger{}, a, noStats, in, out)

	var snapshots []progress.PipelineProgress
	for p := range out {
		snapshots = append(snapshots, p)
	}

	if len(snapshots) != 1 {
		t.Fatalf("got %d snapshots, want 1", len(snapshots))
	}
	final := snapshots[0]
	if !final.Completed {
		t.Error("expected Completed=true on the final snapshot")
	}
	if final.SamplesSeen != 0 {
		t.Errorf("SamplesSeen = %d, want 0", final.SamplesSeen)
	}
}

func TestAverager_ObserveFoldsDetectionEMA(t *testing.T) {
	a := New(100)
	a.Observe(1, 10, 0, 0, true, false, false)
	a.Observe(2, 20, 0, 0, true, false, false)

	snap := a.Finalize()
	if snap.DetMsEMA <= 10 || snap.DetMsEMA >= 20 {
		t.Errorf("DetMsEMA = %v, want strictly between first and second sample", snap.DetMsEMA)
	}
	if snap.LatestFrameIndex != 2 {
		t.Errorf("LatestFrameIndex = %d, want 2", snap.LatestFrameIndex)
	}
	if snap.FractionalProgress != 0.02 {
		t.Errorf("FractionalProgress = %v, want 0.02 (2/100)", snap.FractionalProgress)
	}
}

// TestAverager_SamplesSeenCountsOnlyDetectionTap guards against folding
// the Segmenter's and OCR's own (smaller, interval-cardinality) tap calls
// into the frame-cardinality samples_seen counter.
func TestAverager_SamplesSeenCountsOnlyDetectionTap(t *testing.T) {
	a := New(0)
	a.Observe(1, 5, 0, 0, true, false, false)
	a.Observe(1, 0, 7, 0, false, true, false)
	a.Observe(1, 0, 7, 0, false, true, false)
	a.Observe(1, 0, 0, 9, false, false, true)
	a.Observe(1, 0, 0, 9, false, false, true)
	a.Observe(1, 0, 0, 9, false, false, true)

	snap := a.Finalize()
	if snap.SamplesSeen != 1 {
		t.Errorf("SamplesSeen = %d, want 1 (only the single detection-tap call)", snap.SamplesSeen)
	}
	if snap.SegMsAvg != 7 {
		t.Errorf("SegMsAvg = %v, want 7", snap.SegMsAvg)
	}
	if snap.OcrMsAvg != 9 {
		t.Errorf("OcrMsAvg = %v, want 9", snap.OcrMsAvg)
	}
}

func TestAverager_MergeEventSnapshotCarriesStats(t *testing.T) {
	a := New(0)
	in := make(chan types.Result[types.MergeEvent], 1)
	out := make(chan progress.PipelineProgress, 2)

	in <- types.Ok(types.MergeEvent{Kind: types.MergeNew})
	close(in)

	stats := func() Stats { return Stats{Cues: 1, Merged: 0, OcrEmpty: 2} }
	Run(nullLogger{}, a, stats, in, out)

	var snaps []progress.PipelineProgress
	for p := range out {
		snaps = append(snaps, p)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2 (one per event, one final)", len(snaps))
	}
	if snaps[0].Cues != 1 || snaps[0].OcrEmpty != 2 {
		t.Errorf("snapshot stats = %+v, want Cues=1 OcrEmpty=2", snaps[0])
	}
	if !snaps[1].Completed {
		t.Error("expected final snapshot to have Completed=true")
	}
}
