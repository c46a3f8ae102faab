/*
DESCRIPTION
  file_test.go provides testing for file.go.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package file

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/subtitlefast/frame"
	"github.com/ausocean/subtitlefast/pipeline/types"
)

func testLogger() logging.Logger {
	return logging.New(logging.Debug, &bytes.Buffer{}, true)
}

func TestDecoder_Start_MissingFile(t *testing.T) {
	d := &Decoder{Path: filepath.Join(t.TempDir(), "missing.mjpeg"), Logger: testLogger()}

	out := make(chan types.Result[*frame.Frame], 1)
	err := d.Start(context.Background(), out)
	if err == nil {
		t.Fatal("expected an error opening a missing file, got nil")
	}

	r, ok := <-out
	if !ok {
		t.Fatal("expected an error Result before out closed")
	}
	if r.Err == nil {
		t.Error("expected the Result to carry the open error")
	}
	if _, ok := <-out; ok {
		t.Error("expected out to be closed after the single error Result")
	}
}

func TestDecoder_Start_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mjpeg")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("could not write test file: %v", err)
	}

	d := &Decoder{Path: path, Logger: testLogger()}
	out := make(chan types.Result[*frame.Frame], 1)
	if err := d.Start(context.Background(), out); err != nil {
		t.Fatalf("did not expect an error on a clean empty file, got: %v", err)
	}
	if _, ok := <-out; ok {
		t.Error("expected out to be closed with no frames for an empty file")
	}
}

func TestDecoder_Start_ContextCancelled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.mjpeg")
	// A frame start with no terminator: Lex reaches end of file mid-frame
	// and returns io.ErrUnexpectedEOF, which Start treats as a clean end, so
	// Start returns nil whichever of cancellation or end of file it sees first.
	if err := os.WriteFile(path, []byte{0xff, 0xd8, 0xff, 0x00}, 0o644); err != nil {
		t.Fatalf("could not write test file: %v", err)
	}

	d := &Decoder{Path: path, Logger: testLogger()}
	out := make(chan types.Result[*frame.Frame], 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- d.Start(ctx, out) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected a cancelled Start to return nil, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return promptly after context cancellation")
	}
}
