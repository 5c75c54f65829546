package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

// CaptureOptions controls frame sampling and encoding.
type CaptureOptions struct {
	DefaultWidth  int // used when the stream reports no intrinsic size
	DefaultHeight int
	Quality       int // JPEG quality 1-100
}

// DefaultCaptureOptions returns 640x480 at quality 90.
func DefaultCaptureOptions() CaptureOptions {
	return CaptureOptions{DefaultWidth: 640, DefaultHeight: 480, Quality: 90}
}

// CaptureFrame samples the current frame of s into an offscreen bitmap sized
// to the stream resolution (or the defaults when the stream reports none) and
// encodes it as JPEG. Each call produces exactly one payload.
func CaptureFrame(ctx context.Context, s Stream, opts CaptureOptions) ([]byte, error) {
	frame, err := s.Frame(ctx)
	if err != nil {
		return nil, err
	}

	width, height := s.Size()
	if width <= 0 || height <= 0 {
		width, height = opts.DefaultWidth, opts.DefaultHeight
	}
	if width <= 0 || height <= 0 {
		width, height = 640, 480
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	src := frame.Bounds()
	if src.Dx() == width && src.Dy() == height {
		draw.Draw(canvas, canvas.Bounds(), frame, src.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), frame, src, draw.Src, nil)
	}

	quality := opts.Quality
	if quality < 1 || quality > 100 {
		quality = jpeg.DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
