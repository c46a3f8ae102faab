/*
DESCRIPTION
  srt.go renders and parses the SRT subtitle format per spec.md §6: one
  block per cue, a 1-based ordinal, an "HH:MM:SS,mmm --> HH:MM:SS,mmm"
  timestamp range, then lines ordered by vertical_center ascending and
  de-duplicated by exact text, separated by a blank line.

  Parsing is not in spec.md's original core boundary (the serializer is an
  external collaborator) but is added here — grounded on
  original_source/crates/subtitle-fast-sink's own sink+dump round trip — so
  spec.md §8's "Round-trip" testable property is actually exercisable
  in-repo.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package subtitle holds the final merged-subtitle type and its SRT
// serialization. This is the boundary spec.md §1 calls an external
// collaborator ("how results are serialized"); it is implemented here only
// far enough to make the round-trip testable property concrete.
package subtitle

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ausocean/subtitlefast/pipeline/types"
)

// RenderSRT renders subs (assumed already sorted by Start, as the Merger
// guarantees via spec.md's end-to-end monotonicity property) as an SRT
// document.
func RenderSRT(subs []types.MergedSubtitle) string {
	var b strings.Builder
	for i, s := range subs {
		lines := sortedDedupedLines(s.Lines)

		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", formatTimestamp(s.Start), formatTimestamp(s.End))
		for _, l := range lines {
			fmt.Fprintln(&b, l.Text)
		}
		fmt.Fprintln(&b)
	}
	return b.String()
}

// sortedDedupedLines returns lines sorted by VerticalCenter ascending with
// exact-text duplicates removed, matching spec.md §8's Merger invariant.
func sortedDedupedLines(lines []types.SubtitleLine) []types.SubtitleLine {
	out := make([]types.SubtitleLine, len(lines))
	copy(out, lines)
	sort.SliceStable(out, func(i, j int) bool { return out[i].VerticalCenter < out[j].VerticalCenter })

	seen := make(map[string]bool, len(out))
	deduped := out[:0]
	for _, l := range out {
		if seen[l.Text] {
			continue
		}
		seen[l.Text] = true
		deduped = append(deduped, l)
	}
	return deduped
}

func formatTimestamp(d time.Duration) string {
	ms := d.Milliseconds()
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// ParseSRT parses a document produced by RenderSRT back into a list of
// MergedSubtitle. IDs are reassigned in file order starting at 1, since
// SRT has no concept of the original MergedSubtitle.ID; per spec.md §8 the
// round trip is defined modulo this and modulo millisecond rounding.
func ParseSRT(doc string) ([]types.MergedSubtitle, error) {
	var subs []types.MergedSubtitle

	sc := bufio.NewScanner(strings.NewReader(doc))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var id uint64
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		// line is the ordinal; ignore its value and assign our own.
		id++

		if !sc.Scan() {
			return nil, fmt.Errorf("subtitle: unexpected EOF after ordinal %s", line)
		}
		start, end, err := parseTimestampRange(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("subtitle: cue %d: %w", id, err)
		}

		var lines []types.SubtitleLine
		for sc.Scan() {
			text := sc.Text()
			if strings.TrimSpace(text) == "" {
				break
			}
			lines = append(lines, types.SubtitleLine{Text: text})
		}

		subs = append(subs, types.MergedSubtitle{
			ID:    id,
			Start: start,
			End:   end,
			Lines: lines,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("subtitle: scan failed: %w", err)
	}
	return subs, nil
}

func parseTimestampRange(line string) (start, end time.Duration, err error) {
	parts := strings.SplitN(line, "-->", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed timestamp range: %q", line)
	}
	start, err = parseTimestamp(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	end, err = parseTimestamp(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseTimestamp(s string) (time.Duration, error) {
	// HH:MM:SS,mmm
	commaParts := strings.SplitN(s, ",", 2)
	if len(commaParts) != 2 {
		return 0, fmt.Errorf("malformed timestamp: %q", s)
	}
	hms := strings.Split(commaParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("malformed timestamp: %q", s)
	}
	h, err := strconv.Atoi(hms[0])
	if err != nil {
		return 0, fmt.Errorf("malformed hour in %q: %w", s, err)
	}
	m, err := strconv.Atoi(hms[1])
	if err != nil {
		return 0, fmt.Errorf("malformed minute in %q: %w", s, err)
	}
	sec, err := strconv.Atoi(hms[2])
	if err != nil {
		return 0, fmt.Errorf("malformed second in %q: %w", s, err)
	}
	ms, err := strconv.Atoi(commaParts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed millisecond in %q: %w", s, err)
	}
	total := time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second + time.Duration(ms)*time.Millisecond
	return total, nil
}
