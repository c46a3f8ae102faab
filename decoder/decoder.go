/*
DESCRIPTION
  decoder.go defines the Decoder interface, the out-of-scope collaborator
  spec.md §6 names: a lazy, possibly-out-of-order stream of luma frames.
  Concrete backends (decoder/mock, decoder/file, decoder/rtsp) each open a
  source and feed frames onto a channel using this contract.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package decoder defines the Decoder contract the pipeline's Sorter
// stage consumes.
package decoder

import (
	"context"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

// Decoder produces a finite, lazily generated sequence of frames. Start
// runs until ctx is cancelled or the source is exhausted, writing every
// frame (or a single terminal DecoderError) to out, then closes out.
type Decoder interface {
	Start(ctx context.Context, out chan<- types.Result[*frame.Frame]) error
}
