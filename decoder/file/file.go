/*
DESCRIPTION
  file.go is a Decoder backend reading an MJPEG (or single-frame JPEG)
  media file from disk, grounded on device/file.AVFile's open/read/loop
  lifecycle and codec/jpeg.Lex's frame lexing.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file is a Decoder backend that reads MJPEG frames from a local
// file.
package file

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/ausocean/utils/logging"

	avfile "github.com/ausocean/subtitlefast/device/file"
	"github.com/ausocean/subtitlefast/codec/jpeg"
	"github.com/ausocean/subtitlefast/decoder"
	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

// Decoder reads JPEG/MJPEG frames from Path, decoding each to a luma Frame.
type Decoder struct {
	Path string
	Loop bool
	// FrameInterval paces successive frames no closer together than this;
	// zero reads as fast as the file allows, mirroring jpeg.Lex's own
	// zero-delay behavior.
	FrameInterval time.Duration
	Logger        logging.Logger
}

var _ decoder.Decoder = (*Decoder)(nil)

// Start implements decoder.Decoder.
func (d *Decoder) Start(ctx context.Context, out chan<- types.Result[*frame.Frame]) error {
	defer close(out)

	av := avfile.NewWith(d.Logger, d.Path, d.Loop)
	if err := av.Start(); err != nil {
		err = &types.DecoderError{Err: err}
		out <- types.Error[*frame.Frame](err)
		return err
	}
	defer av.Stop()

	var index uint64
	sink := &frameSink{ctx: ctx, out: out, nextIndex: func() uint64 { index++; return index - 1 }}

	lexDone := make(chan error, 1)
	go func() { lexDone <- jpeg.Lex(sink, av, d.FrameInterval) }()

	select {
	case <-ctx.Done():
		av.Stop()
		<-lexDone
		return nil
	case err := <-lexDone:
		if sink.sendErr != nil {
			out <- types.Error[*frame.Frame](sink.sendErr)
			return sink.sendErr
		}
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			// Clean end of (non-looping) file.
			return nil
		}
		derr := &types.DecoderError{Err: err}
		out <- types.Error[*frame.Frame](derr)
		return derr
	}
}

// frameSink is the io.Writer jpeg.Lex writes one complete JPEG image to per
// call; it decodes the image's luma plane and forwards it on out.
type frameSink struct {
	ctx       context.Context
	out       chan<- types.Result[*frame.Frame]
	nextIndex func() uint64
	sendErr   error
}

func (s *frameSink) Write(p []byte) (int, error) {
	idx := s.nextIndex()
	f, err := decoder.LumaFromJPEG(p, idx, true, 0, false)
	if err != nil {
		s.sendErr = &types.DecoderError{Err: err}
		return 0, s.sendErr
	}

	select {
	case s.out <- types.Ok(f):
	case <-s.ctx.Done():
		return 0, s.ctx.Err()
	}
	return len(p), nil
}
