/*
DESCRIPTION
  luma.go extracts the luma (Y) plane from a decoded JPEG image into a
  frame.Frame, shared by the decoder/file and decoder/rtsp backends, both
  of which receive a stream of complete JPEG images and only need their
  brightness channel.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package decoder

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"github.com/ausocean/subtitlefast/frame"
)

// LumaFromJPEG decodes one complete JPEG image and returns its luma plane
// as a Frame. index/hasIndex and pts/hasPTS are stamped onto the result as
// given, since a JPEG codestream carries neither.
func LumaFromJPEG(buf []byte, index uint64, hasIndex bool, pts int64, hasPTS bool) (*frame.Frame, error) {
	img, err := jpeg.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decoder: could not decode JPEG: %w", err)
	}

	f := lumaPlane(img)
	f.Index, f.HasIndex = index, hasIndex
	f.PTS, f.HasPTS = pts, hasPTS
	return f, nil
}

// lumaPlane extracts the Y (brightness) channel of img into a Frame,
// fast-pathing the common *image.YCbCr and *image.Gray cases JPEG decoding
// actually produces, and falling back to a generic per-pixel grayscale
// conversion for anything else.
func lumaPlane(img image.Image) *frame.Frame {
	switch im := img.(type) {
	case *image.YCbCr:
		return &frame.Frame{
			Width: im.Rect.Dx(), Height: im.Rect.Dy(),
			Stride: im.YStride, Buf: im.Y,
		}
	case *image.Gray:
		return &frame.Frame{
			Width: im.Rect.Dx(), Height: im.Rect.Dy(),
			Stride: im.Stride, Buf: im.Pix,
		}
	default:
		b := img.Bounds()
		w, h := b.Dx(), b.Dy()
		buf := make([]byte, w*h)
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				buf[y*w+x] = g.Y
			}
		}
		return &frame.Frame{Width: w, Height: h, Stride: w, Buf: buf}
	}
}
