/*
DESCRIPTION
  sorter.go implements the first pipeline stage (spec.md §4.1): it buffers
  decoder output keyed by frame index and pops the smallest buffered key
  greedily whenever one is present; since that empties the buffer on every
  input frame, frames leave in arrival order. This
  mirrors codec/codecutil/lex.go's Noop: a goroutine owns a buffer and an
  output loop, and a terminal error observed on the input is forwarded then
  stops the stage.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sorter keys decoder frames by frame index and re-emits them
// smallest key first without waiting for missing indices; each frame is
// emitted as soon as it arrives, so out-of-order input is not reordered.
package sorter

import (
	"container/heap"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

// Run reads frames from in, buffers them keyed by index (falling back to
// arrival order for frames with no decoder-assigned index), and writes each
// to out as soon as it is buffered.
//
// Policy (pinned by DESIGN.md's Open Question decision): the Sorter does
// NOT wait for key contiguity. It pops the smallest buffered key as soon
// as one exists, on every input frame and once more when in closes. This
// is the permissive policy spec.md §4.1 names as the contract for this
// pipeline; decoders are trusted to emit indices that are contiguous in
// practice, and the core does not stall waiting for a hole that may never
// fill.
//
// On a DecoderError observed on in, Run forwards it on out and returns
// without flushing the remaining buffer, per spec.md §4.1's terminal
// propagation rule.
func Run(log logging.Logger, in <-chan types.Result[*frame.Frame], out chan<- types.Result[*frame.Frame]) {
	defer close(out)

	buf := &frameHeap{}
	heap.Init(buf)
	var keys fallbackKeys

	drainOne := func() bool {
		if buf.Len() == 0 {
			return false
		}
		item := heap.Pop(buf).(keyedFrame)
		out <- types.Ok(item.f)
		return true
	}

	for r := range in {
		if r.Err != nil {
			log.Error("sorter received terminal error from decoder", "error", r.Err)
			out <- types.Error[*frame.Frame](r.Err)
			return
		}

		f := r.Value
		key := keys.next(f)

		heap.Push(buf, keyedFrame{key: key, f: f})

		// Permissive/greedy pop: always drain everything currently
		// buffered, in key order, rather than waiting for contiguity.
		for buf.Len() > 0 {
			if !drainOne() {
				break
			}
		}
	}

	// Upstream closed cleanly; flush anything still buffered (there
	// should be nothing left given the greedy-pop policy above, but this
	// keeps the stage correct if a caller changes the drain strategy).
	for buf.Len() > 0 {
		drainOne()
	}
}

// fallbackKeys assigns each frame its sort key: the decoder-supplied index
// if present, else an arrival-order counter independent of any real index
// values seen, per spec.md §4.1. Only an indexless frame advances the
// fallback counter; a real index never does.
type fallbackKeys struct {
	counter uint64
}

func (k *fallbackKeys) next(f *frame.Frame) uint64 {
	if f.HasIndex {
		return f.Index
	}
	key := k.counter
	k.counter++
	return key
}

type keyedFrame struct {
	key uint64
	f   *frame.Frame
}

// frameHeap is a container/heap min-heap ordered by key.
type frameHeap []keyedFrame

func (h frameHeap) Len() int            { return len(h) }
func (h frameHeap) Less(i, j int) bool  { return h[i].key < h[j].key }
func (h frameHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *frameHeap) Push(x interface{}) { *h = append(*h, x.(keyedFrame)) }
func (h *frameHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
