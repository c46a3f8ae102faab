package merger

import (
	"testing"
	"time"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

type nullLogger struct{}

func (nullLogger) SetLevel(int8)                  {}
func (nullLogger) Debug(string, ...interface{})   {}
func (nullLogger) Info(string, ...interface{})    {}
func (nullLogger) Warning(string, ...interface{}) {}
func (nullLogger) Error(string, ...interface{})   {}
func (nullLogger) Fatal(string, ...interface{})   {}

func ocrInterval(regionID uint64, start, end time.Duration, vc float64, text string) types.Result[types.OcrInterval] {
	return types.Ok(types.OcrInterval{
		Interval: types.SubtitleInterval{
			RegionID:          regionID,
			Start:             start,
			End:               end,
			RepresentativeRoi: frame.RoiNormalized{Y: vc, Height: 0},
		},
		Result: types.OcrResult{Segments: []types.OcrSegment{{Text: text}}},
	})
}

func runMerger(m *Merger, in []types.Result[types.OcrInterval]) []types.MergeEvent {
	inCh := make(chan types.Result[types.OcrInterval], len(in))
	outCh := make(chan types.Result[types.MergeEvent], len(in)+1)
	for _, r := range in {
		inCh <- r
	}
	close(inCh)
	Run(nullLogger{}, m, inCh, outCh)

	var events []types.MergeEvent
	for r := range outCh {
		events = append(events, r.Value)
	}
	return events
}

// TestMerger_CaptionChange mirrors spec.md §8 scenario 3: two disjoint
// captions in sequence must produce two distinct MergedSubtitles.
func TestMerger_CaptionChange(t *testing.T) {
	m := New(2*time.Second, 120*time.Millisecond)
	in := []types.Result[types.OcrInterval]{
		ocrInterval(1, 0, 1000*time.Millisecond, 0.5, "Alpha"),
		ocrInterval(2, 1001*time.Millisecond, 2000*time.Millisecond, 0.5, "Beta"),
	}
	events := runMerger(m, in)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Kind != types.MergeNew || events[1].Kind != types.MergeNew {
		t.Fatalf("expected both events to be New, got %+v", events)
	}
	if events[0].Subtitle.Lines[0].Text != "Alpha" || events[1].Subtitle.Lines[0].Text != "Beta" {
		t.Errorf("unexpected text: %+v", events)
	}
	if events[0].Subtitle.ID >= events[1].Subtitle.ID {
		t.Errorf("ids not monotonic in source-time order: %d, %d", events[0].Subtitle.ID, events[1].Subtitle.ID)
	}

	stats := m.Stats()
	if stats.Cues != 2 || stats.Merged != 0 {
		t.Errorf("stats = %+v, want Cues=2 Merged=0", stats)
	}
}

// TestMerger_BriefDropoutMerges mirrors spec.md §8 scenario 4: a 100ms gap
// with matching text, under the 120ms merge_gap, must merge into one
// MergedSubtitle spanning both intervals.
func TestMerger_BriefDropoutMerges(t *testing.T) {
	m := New(2*time.Second, 120*time.Millisecond)
	in := []types.Result[types.OcrInterval]{
		ocrInterval(1, 0, 500*time.Millisecond, 0.5, "Alpha"),
		ocrInterval(1, 600*time.Millisecond, 1200*time.Millisecond, 0.5, "Alpha"),
	}
	events := runMerger(m, in)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (new, then updated)", len(events))
	}
	if events[0].Kind != types.MergeNew {
		t.Fatalf("first event should be New, got %v", events[0].Kind)
	}
	if events[1].Kind != types.MergeUpdated {
		t.Fatalf("second event should be Updated (merged), got %v", events[1].Kind)
	}

	final := events[1].Subtitle
	if final.Start != 0 || final.End != 1200*time.Millisecond {
		t.Errorf("merged range = [%v, %v], want [0, 1200ms]", final.Start, final.End)
	}
	if len(final.Lines) != 1 {
		t.Errorf("got %d lines, want 1 (same text deduped)", len(final.Lines))
	}

	stats := m.Stats()
	if stats.Cues != 1 || stats.Merged != 1 {
		t.Errorf("stats = %+v, want Cues=1 Merged=1", stats)
	}
}

// TestMerger_TwoLineCaption mirrors spec.md §8 scenario 5: two
// simultaneous detections at different vertical centers (so, two
// distinct persistent regions, each with its own closed interval
// covering the same time span) must appear as two lines on one
// MergedSubtitle, ordered by vertical_center ascending.
func TestMerger_TwoLineCaption(t *testing.T) {
	m := New(2*time.Second, 120*time.Millisecond)
	in := []types.Result[types.OcrInterval]{
		ocrInterval(1, 0, 500*time.Millisecond, 0.90, "Bottom line"),
		ocrInterval(2, 0, 500*time.Millisecond, 0.80, "Top line"),
	}
	events := runMerger(m, in)

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	final := events[1].Subtitle
	if len(final.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(final.Lines))
	}
	if final.Lines[0].Text != "Top line" || final.Lines[1].Text != "Bottom line" {
		t.Errorf("lines not ordered by vertical_center ascending: %+v", final.Lines)
	}
}

func TestMerger_PruneDropsStaleCacheEntries(t *testing.T) {
	m := New(200*time.Millisecond, 50*time.Millisecond)
	in := []types.Result[types.OcrInterval]{
		ocrInterval(1, 0, 100*time.Millisecond, 0.5, "Alpha"),
		// Far beyond the cache window and merge gap: must be a new cue.
		ocrInterval(2, 2*time.Second, 2100*time.Millisecond, 0.5, "Gamma"),
	}
	events := runMerger(m, in)
	if len(events) != 2 || events[1].Kind != types.MergeNew {
		t.Fatalf("expected two independent New events, got %+v", events)
	}
	if len(m.cache) != 1 || m.cache[0].Lines[0].Text != "Gamma" {
		t.Errorf("cache = %+v, want only the Gamma entry after pruning", m.cache)
	}
}
