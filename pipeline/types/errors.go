/*
DESCRIPTION
  errors.go defines the pipeline's error taxonomy (spec.md §7). Each kind
  wraps the underlying cause so errors.As/errors.Is work across stage
  boundaries, the same way revid/pipeline.go wraps lower errors with
  fmt.Errorf("...: %w", err).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package types

import "fmt"

// DecoderError wraps a fatal error from the Decoder. Terminates the
// pipeline; there is no recovery in the core.
type DecoderError struct{ Err error }

func (e *DecoderError) Error() string { return fmt.Sprintf("decoder error: %s", e.Err) }
func (e *DecoderError) Unwrap() error  { return e.Err }

// DetectorError wraps a fatal error from the region detector.
type DetectorError struct{ Err error }

func (e *DetectorError) Error() string { return fmt.Sprintf("detector error: %s", e.Err) }
func (e *DetectorError) Unwrap() error  { return e.Err }

// OcrError wraps a fatal error from the OCR engine.
type OcrError struct{ Err error }

func (e *OcrError) Error() string { return fmt.Sprintf("ocr error: %s", e.Err) }
func (e *OcrError) Unwrap() error  { return e.Err }

// InternalError indicates a channel closed unexpectedly (a worker crashed).
type InternalError struct{ Err error }

func (e *InternalError) Error() string { return fmt.Sprintf("internal error: %s", e.Err) }
func (e *InternalError) Unwrap() error  { return e.Err }
