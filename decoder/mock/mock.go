/*
DESCRIPTION
  mock.go is a synthetic in-memory Decoder, grounded on
  original_source/crates/subtitle-fast-decoder/src/backends/mock.rs: it
  generates a fixed-size sequence of luma frames with a striped test
  pattern and a synthetic timestamp per frame, on a configurable interval.
  Used by pipeline-level tests as a zero-dependency frame source.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package mock is a synthetic Decoder backend for tests and demos.
package mock

import (
	"context"
	"time"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

const (
	defaultWidth         = 640
	defaultHeight        = 360
	defaultFrameCount    = 120
	defaultFrameInterval = 16 * time.Millisecond
)

// Decoder emits FrameCount synthetic frames, each width x height, spaced
// FrameInterval apart (use 0 for as-fast-as-possible, useful in tests).
type Decoder struct {
	Width         int
	Height        int
	FrameCount    int
	FrameInterval time.Duration

	// Frames, if non-nil, is emitted verbatim instead of the generated
	// striped pattern -- lets tests inject exact pixel content (e.g. a
	// caption-shaped bright rectangle).
	Frames []*frame.Frame
}

// New returns a Decoder with spec-reasonable defaults, matching
// mock.rs's MockProvider::open.
func New() *Decoder {
	return &Decoder{
		Width:         defaultWidth,
		Height:        defaultHeight,
		FrameCount:    defaultFrameCount,
		FrameInterval: defaultFrameInterval,
	}
}

// TotalFrames reports the frame count this Decoder will emit, letting a
// caller populate pipeline/config.Config.TotalFrames for fractional
// progress reporting.
func (d *Decoder) TotalFrames() uint64 {
	if d.Frames != nil {
		return uint64(len(d.Frames))
	}
	return uint64(d.FrameCount)
}

// Start implements decoder.Decoder.
func (d *Decoder) Start(ctx context.Context, out chan<- types.Result[*frame.Frame]) error {
	defer close(out)

	if d.Frames != nil {
		return d.emit(ctx, out, len(d.Frames), d.frameAt)
	}
	return d.emit(ctx, out, d.FrameCount, d.generatedFrameAt)
}

func (d *Decoder) emit(ctx context.Context, out chan<- types.Result[*frame.Frame], n int, at func(i int) *frame.Frame) error {
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		out <- types.Ok(at(i))

		if d.FrameInterval > 0 {
			select {
			case <-time.After(d.FrameInterval):
			case <-ctx.Done():
				return nil
			}
		}
	}
	return nil
}

func (d *Decoder) frameAt(i int) *frame.Frame {
	f := d.Frames[i]
	f.Index = uint64(i)
	f.HasIndex = true
	return f
}

func (d *Decoder) generatedFrameAt(i int) *frame.Frame {
	w, h := d.Width, d.Height
	buf := make([]byte, w*h)
	for row := 0; row < h; row++ {
		v := byte((row + i) % 256)
		start := row * w
		for col := start; col < start+w; col++ {
			buf[col] = v
		}
	}
	return &frame.Frame{
		Width: w, Height: h, Stride: w, Buf: buf,
		PTS: int64(i) * int64(16*time.Millisecond), HasPTS: true,
		Index: uint64(i), HasIndex: true,
	}
}
