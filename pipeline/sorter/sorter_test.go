package sorter

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

type nullLogger struct{}

func (nullLogger) SetLevel(int8)                                  {}
func (nullLogger) Debug(string, ...interface{})                   {}
func (nullLogger) Info(string, ...interface{})                    {}
func (nullLogger) Warning(string, ...interface{})                 {}
func (nullLogger) Error(string, ...interface{})                   {}
func (nullLogger) Fatal(string, ...interface{})                   {}

func idxFrame(i uint64) *frame.Frame {
	return &frame.Frame{Width: 2, Height: 2, Stride: 2, Buf: make([]byte, 4), Index: i, HasIndex: true}
}

func indices(t *testing.T, out []types.Result[*frame.Frame]) []uint64 {
	t.Helper()
	var got []uint64
	for _, r := range out {
		if r.Err != nil {
			t.Fatalf("unexpected error in result: %v", r.Err)
		}
		got = append(got, r.Value.Index)
	}
	return got
}

func runSorter(in []types.Result[*frame.Frame]) []types.Result[*frame.Frame] {
	inCh := make(chan types.Result[*frame.Frame], len(in))
	outCh := make(chan types.Result[*frame.Frame], len(in)+1)
	for _, r := range in {
		inCh <- r
	}
	close(inCh)

	Run(nullLogger{}, inCh, outCh)

	var out []types.Result[*frame.Frame]
	for r := range outCh {
		out = append(out, r)
	}
	return out
}

// TestSorter_PopsAheadOfGap pins the Open Question decision: the Sorter
// never stalls waiting for a missing index to fill in. Index 2 never
// arrives; the Sorter must still emit 0, 1, 3, 4 rather than buffering 3
// and 4 forever.
func TestSorter_PopsAheadOfGap(t *testing.T) {
	in := []types.Result[*frame.Frame]{
		types.Ok(idxFrame(0)),
		types.Ok(idxFrame(1)),
		types.Ok(idxFrame(3)),
		types.Ok(idxFrame(4)),
	}
	out := runSorter(in)

	got := indices(t, out)
	want := []uint64{0, 1, 3, 4}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("index order mismatch (-want +got):\n%s", diff)
	}
}

func TestSorter_FallbackKeyWhenIndexAbsent(t *testing.T) {
	mk := func() *frame.Frame { return &frame.Frame{Width: 1, Height: 1, Stride: 1, Buf: []byte{0}} }
	in := []types.Result[*frame.Frame]{types.Ok(mk()), types.Ok(mk()), types.Ok(mk())}
	out := runSorter(in)

	if len(out) != 3 {
		t.Fatalf("got %d outputs, want 3", len(out))
	}
	for _, r := range out {
		if r.Err != nil {
			t.Fatalf("unexpected error: %v", r.Err)
		}
	}
}

// TestFallbackKeys_IndependentOfRealIndex guards against the fallback
// counter being poisoned by an unrelated real index: assigning a frame
// index 100 must not bump the arrival-order counter used for later
// indexless frames, or they'd collide with (or sort after) any genuine
// index in that range.
func TestFallbackKeys_IndependentOfRealIndex(t *testing.T) {
	var keys fallbackKeys

	noIdx := &frame.Frame{}
	withIdx := &frame.Frame{Index: 100, HasIndex: true}

	got := []uint64{
		keys.next(noIdx),
		keys.next(withIdx),
		keys.next(noIdx),
		keys.next(noIdx),
	}
	want := []uint64{0, 100, 1, 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("assigned key mismatch (-want +got):\n%s", diff)
	}
}

func TestSorter_PropagatesDecoderError(t *testing.T) {
	wantErr := errors.New("boom")
	in := []types.Result[*frame.Frame]{
		types.Ok(idxFrame(0)),
		types.Error[*frame.Frame](wantErr),
	}
	out := runSorter(in)

	if len(out) != 2 {
		t.Fatalf("got %d outputs, want 2 (one ok frame, then the error)", len(out))
	}
	if out[0].Err != nil {
		t.Fatalf("first output should be ok, got err %v", out[0].Err)
	}
	if !errors.Is(out[1].Err, wantErr) {
		t.Errorf("second output error = %v, want %v", out[1].Err, wantErr)
	}
}
