/*
DESCRIPTION
  merger.go implements the Merger stage (spec.md §4.7): it turns each OCR
  segment inside an interval into a SubtitleCue, then merges it against a
  time-ordered, sliding-window cache of previously emitted subtitles —
  pruning stale entries, extending the last cue on overlap or on a brief
  gap with identical text (covering short detector dropouts), and
  otherwise emitting a brand-new MergedSubtitle. The cache is owned
  outright by this stage's single goroutine, same ownership convention as
  the Segmenter's state map.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package merger clusters per-interval OCR output into timed subtitle
// cues with a sliding-window merge/dedup policy.
package merger

import (
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitlefast/pipeline/types"
)

// Stats are the running totals spec.md §4.7 requires the Merger to
// maintain.
type Stats struct {
	Cues     uint64 // New MergedSubtitles emitted.
	Merged   uint64 // Times an incoming cue was merged into an existing MergedSubtitle.
	OcrEmpty uint64 // Intervals whose OCR output was empty (and thus dropped).
}

// Merger owns the in-cache MergedSubtitle list and running stats across a
// pipeline run.
type Merger struct {
	CacheWindow time.Duration
	MergeGap    time.Duration

	cache  []types.MergedSubtitle
	nextID uint64
	stats  Stats
}

// New returns a Merger with the given cache window and merge-gap
// tolerance.
func New(cacheWindow, mergeGap time.Duration) *Merger {
	return &Merger{CacheWindow: cacheWindow, MergeGap: mergeGap}
}

// Stats returns a snapshot of the running totals.
func (m *Merger) Stats() Stats { return m.stats }

// Run reads OcrIntervals from in and writes MergeEvents to out.
func Run(log logging.Logger, m *Merger, in <-chan types.Result[types.OcrInterval], out chan<- types.Result[types.MergeEvent]) {
	defer close(out)

	for r := range in {
		if r.Err != nil {
			log.Error("merger received terminal error from ocr", "error", r.Err)
			out <- types.Error[types.MergeEvent](r.Err)
			return
		}

		oi := r.Value
		if len(oi.Result.Segments) == 0 {
			m.stats.OcrEmpty++
			continue
		}

		for _, seg := range oi.Result.Segments {
			roi := oi.Interval.RepresentativeRoi
			cue := types.SubtitleCue{
				Start:          oi.Interval.Start,
				End:            oi.Interval.End,
				StartFrame:     oi.Interval.StartFrameIndex,
				Text:           seg.Text,
				VerticalCenter: roi.Y + roi.Height/2,
				RegionID:       oi.Interval.RegionID,
			}
			event := m.merge(cue)
			out <- types.Ok(event)
		}
	}
}

// merge applies spec.md §4.7's prune/merge/emit policy for one cue.
func (m *Merger) merge(cue types.SubtitleCue) types.MergeEvent {
	m.prune(cue.Start)

	if n := len(m.cache); n > 0 {
		last := &m.cache[n-1]

		if cue.Start <= last.End {
			m.extend(last, cue)
			m.stats.Merged++
			return types.MergeEvent{Kind: types.MergeUpdated, Subtitle: *last}
		}

		if cue.Start-last.End <= m.MergeGap && hasLine(last.Lines, cue.Text) {
			m.extend(last, cue)
			m.stats.Merged++
			return types.MergeEvent{Kind: types.MergeUpdated, Subtitle: *last}
		}
	}

	m.nextID++
	sub := types.MergedSubtitle{
		ID:         m.nextID,
		Start:      cue.Start,
		End:        cue.End,
		StartFrame: cue.StartFrame,
		Lines:      []types.SubtitleLine{{VerticalCenter: cue.VerticalCenter, Text: cue.Text}},
	}
	m.cache = append(m.cache, sub)
	m.stats.Cues++
	return types.MergeEvent{Kind: types.MergeNew, Subtitle: sub}
}

// extend widens last's time range to cover cue and inserts cue's line in
// vertical_center order, unless an identical-text line is already present
// (spec.md §8: lines sorted by vertical_center ascending, deduped by
// exact text).
func (m *Merger) extend(last *types.MergedSubtitle, cue types.SubtitleCue) {
	if cue.End > last.End {
		last.End = cue.End
	}
	if cue.StartFrame < last.StartFrame {
		last.StartFrame = cue.StartFrame
	}
	if hasLine(last.Lines, cue.Text) {
		return
	}

	line := types.SubtitleLine{VerticalCenter: cue.VerticalCenter, Text: cue.Text}
	i := 0
	for i < len(last.Lines) && last.Lines[i].VerticalCenter <= line.VerticalCenter {
		i++
	}
	last.Lines = append(last.Lines, types.SubtitleLine{})
	copy(last.Lines[i+1:], last.Lines[i:])
	last.Lines[i] = line
}

// prune drops cached entries whose End predates incomingStart by more
// than the cache window.
func (m *Merger) prune(incomingStart time.Duration) {
	cutoff := incomingStart - m.CacheWindow
	i := 0
	for i < len(m.cache) && m.cache[i].End < cutoff {
		i++
	}
	if i > 0 {
		m.cache = m.cache[i:]
	}
}

func hasLine(lines []types.SubtitleLine, text string) bool {
	for _, l := range lines {
		if l.Text == text {
			return true
		}
	}
	return false
}
